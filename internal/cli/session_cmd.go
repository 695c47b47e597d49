package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func newSessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Manage the persisted chat session",
	}

	cmd.AddCommand(newSessionNewCmd())
	cmd.AddCommand(newSessionShowCmd())

	return cmd
}

func newSessionNewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "new",
		Short: "Start a fresh session, replacing the persisted one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()

			engine, cleanup, err := buildEngine(cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			id := engine.StartNewSession(ctx)
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}
}

func newSessionShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the persisted session id for the configured scope",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()

			sessions, cleanup, err := openSessionStore(cfg.Store)
			if err != nil {
				return err
			}
			defer cleanup()

			id, err := sessions.Load(cfg.Chat.Scope)
			if err != nil {
				return err
			}
			if id == "" {
				fmt.Fprintf(cmd.OutOrStdout(), "no session stored for scope %q\n", cfg.Chat.Scope)
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}
}
