package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/paxto2002/blogtalkhees/internal/observability"
	"github.com/paxto2002/blogtalkhees/internal/pipeline"
)

var (
	processJSON  bool
	processQuiet bool
)

var processCmd = &cobra.Command{
	Use:   "process <url>",
	Short: "Summarize one blog post",
	Long: `Fetches the page, extracts the article, builds the summary and renders it through the lexicon.

The finished record is stored in every configured store before the command exits.`,
	Args: cobra.ExactArgs(1),
	RunE: runProcess,
}

func init() {
	processCmd.Flags().BoolVar(&processJSON, "json", false, "Print the record as JSON")
	processCmd.Flags().BoolVarP(&processQuiet, "quiet", "q", false, "Do not print progress")
	rootCmd.AddCommand(processCmd)
}

func runProcess(cmd *cobra.Command, args []string) error {
	ctx, stop := withSignals(cmd.Context())
	defer stop()

	a, err := newApp(ctx, cfg, logger, true)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Warn().Err(err).Msg("pending storage writes failed")
		}
	}()

	progress := observability.NewPrinter(cmd.ErrOrStderr())
	var onProgress pipeline.ProgressCallback
	if !processQuiet && !processJSON {
		onProgress = progress.PrintProgress
	}

	rec, err := a.pipeline.ProcessWithProgress(ctx, args[0], onProgress)
	if err != nil {
		return fmt.Errorf("%s: %w", pipeline.KindOf(err), err)
	}

	if processJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(rec)
	}
	observability.NewPrinter(cmd.OutOrStdout()).PrintRecord(rec)
	return nil
}
