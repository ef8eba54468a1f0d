package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/paxto2002/blogtalkhees/internal/observability"
)

var (
	listLimit int
	listJSON  bool
)

var listCmd = &cobra.Command{
	Use:       "list <blogs|summaries>",
	Short:     "List stored blogs or summaries",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"blogs", "summaries"},
	RunE:      runList,
}

func init() {
	listCmd.Flags().IntVarP(&listLimit, "limit", "n", 20, "Maximum rows to print")
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Print rows as JSON")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	if args[0] != "blogs" && args[0] != "summaries" {
		return fmt.Errorf("unknown table %q (want blogs or summaries)", args[0])
	}

	ctx := cmd.Context()
	blogs, summaries, conns, err := openStores(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	defer func() {
		for _, c := range conns {
			c.Close()
		}
	}()

	printer := observability.NewPrinter(cmd.OutOrStdout())
	var rows any

	switch args[0] {
	case "blogs":
		if blogs == nil {
			return fmt.Errorf("blogs store is not configured (set BLOGS_DATABASE_URL or DATABASE_URL)")
		}
		list, err := blogs.ListBlogs(ctx, listLimit)
		if err != nil {
			return err
		}
		if !listJSON {
			printer.PrintBlogs(list)
			return nil
		}
		rows = list
	case "summaries":
		if summaries == nil {
			return fmt.Errorf("summaries store is not configured (set SUMMARIES_DATABASE_URL or DATABASE_URL)")
		}
		list, err := summaries.ListSummaries(ctx, listLimit)
		if err != nil {
			return err
		}
		if !listJSON {
			printer.PrintSummaries(list)
			return nil
		}
		rows = list
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(rows)
}
