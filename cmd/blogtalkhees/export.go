package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/paxto2002/blogtalkhees/internal/pipeline"
	"github.com/paxto2002/blogtalkhees/internal/rendering"
)

var (
	exportOut      string
	exportTemplate string
	exportArticle  bool
)

var exportCmd = &cobra.Command{
	Use:   "export <url>",
	Short: "Write a Markdown document for one blog post",
	Long: `Runs the pipeline for the URL and renders the record as Markdown.

With --article the extracted article is converted to Markdown and appended.`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "Output file (default stdout)")
	exportCmd.Flags().StringVarP(&exportTemplate, "template", "t", "", "Path to a text/template file overriding the built-in layout")
	exportCmd.Flags().BoolVar(&exportArticle, "article", false, "Include the article body")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	ctx, stop := withSignals(cmd.Context())
	defer stop()

	// Stored records carry no article body, so export always runs the pipeline
	a, err := newApp(ctx, cfg, logger, false)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Warn().Err(err).Msg("pending storage writes failed")
		}
	}()

	rec, err := a.pipeline.Process(ctx, args[0])
	if err != nil {
		return fmt.Errorf("%s: %w", pipeline.KindOf(err), err)
	}

	doc, err := rendering.RenderMarkdown(rec, rendering.Options{
		TemplatePath:   exportTemplate,
		IncludeArticle: exportArticle,
	})
	if err != nil {
		return err
	}

	if exportOut == "" {
		_, err = fmt.Fprint(cmd.OutOrStdout(), doc)
		return err
	}
	if err := os.WriteFile(exportOut, []byte(doc), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", exportOut, err)
	}
	logger.Info().Str("path", exportOut).Msg("exported")
	return nil
}
