package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/paxto2002/blogtalkhees/internal/server"
	"github.com/paxto2002/blogtalkhees/internal/server/ratelimit"
)

var (
	servePort    int
	serveMigrate bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server that accepts blog URLs and returns summaries, with a streaming endpoint for progress.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides config)")
	serveCmd.Flags().BoolVar(&serveMigrate, "migrate", true, "Create tables for configured stores before serving")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := withSignals(cmd.Context())
	defer stop()

	a, err := newApp(ctx, cfg, logger, true)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Warn().Err(err).Msg("pending storage writes failed")
		}
	}()

	if serveMigrate {
		if err := a.migrate(ctx); err != nil {
			return err
		}
	}

	port := cfg.Server.Port
	if servePort > 0 {
		port = servePort
	}

	srv := server.New(server.Config{
		Port:         port,
		CORSOrigins:  cfg.Server.CORSOrigins,
		WriteTimeout: cfg.Pipeline.RunTimeout + cfg.Pipeline.SinkTimeout,
	}, serverDeps(a))

	return srv.Start(ctx)
}

// serverDeps keeps absent stores as untyped nils so the handlers see them
// as unconfigured.
func serverDeps(a *app) server.Deps {
	deps := server.Deps{
		Pipeline: a.pipeline,
		Logger:   logger.With().Str("component", "server").Logger(),
	}
	if a.blogs != nil {
		deps.Blogs = a.blogs
	}
	if a.summaries != nil {
		deps.Summaries = a.summaries
	}
	if cfg.Server.RateLimit {
		deps.Limiter = ratelimit.NewLimiter(ratelimit.LoadConfig(os.Getenv))
	}
	return deps
}

// withSignals cancels ctx on interrupt or SIGTERM.
func withSignals(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	return signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
}
