package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the blogs and summaries tables",
	Long:  `Applies the embedded migrations to every configured store. Migrations are idempotent.`,
	Args:  cobra.NoArgs,
	RunE:  runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, _ []string) error {
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

	if blogs == nil && summaries == nil {
		return fmt.Errorf("no store configured (set DATABASE_URL)")
	}
	if blogs != nil {
		if err := blogs.Migrate(ctx); err != nil {
			return err
		}
		logger.Info().Str("store", blogs.Name()).Msg("migrated")
	}
	if summaries != nil {
		if err := summaries.Migrate(ctx); err != nil {
			return err
		}
		logger.Info().Str("store", summaries.Name()).Msg("migrated")
	}
	return nil
}
