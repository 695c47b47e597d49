package cli

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/ttdigital/ttchat/internal/feed"
)

func newServeCmd() *cobra.Command {
	var (
		port    int
		bind    string
		restore bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the WebSocket state feed server",
		Long:  "Starts the engine without a terminal UI and serves its state over WebSocket so an embedding page can render the conversation.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()

			if port != 0 {
				cfg.Feed.Port = port
			}
			if bind != "" {
				cfg.Feed.Bind = bind
			}

			engine, cleanup, err := buildEngine(cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			// Block until SIGINT/SIGTERM
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if restore {
				engine.LoadPreviousSession(ctx)
			} else {
				engine.StartNewSession(ctx)
			}

			srv := feed.New(cfg.Feed, engine, log)
			return srv.Start(ctx)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "override feed port")
	cmd.Flags().StringVar(&bind, "bind", "", "override bind address")
	cmd.Flags().BoolVar(&restore, "restore", true, "restore the previous session on startup")

	return cmd
}
