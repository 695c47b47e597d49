package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/ttdigital/ttchat/internal/config"
	"github.com/ttdigital/ttchat/internal/version"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show ttchat status and configuration summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "ttchat %s (commit %s)\n\n", version.Version, version.Commit)

			// Show paths
			fmt.Fprintf(out, "Config:  %s\n", paths.Config)
			fmt.Fprintf(out, "Data:    %s\n", paths.Data)
			fmt.Fprintf(out, "Logs:    %s\n", paths.Logs)
			fmt.Fprintln(out)

			cfg, err := config.Load(paths.Config)
			if err != nil {
				fmt.Fprintf(out, "Config:  error loading: %v\n", err)
				return nil
			}

			// Webhook
			url := cfg.Webhook.URL
			if url == "" {
				url = "(not configured)"
			}
			fmt.Fprintf(out, "Webhook: %s %s (timeout %ds)\n",
				cfg.Webhook.Method, url, cfg.Webhook.TimeoutSeconds)

			// Session
			fmt.Fprintf(out, "Session: scope=%s restore=%v store=%s\n",
				cfg.Chat.Scope, cfg.Chat.LoadPreviousEnabled(), cfg.Store.Driver)

			// Feed
			fmt.Fprintf(out, "Feed:    %s:%d\n", cfg.Feed.Bind, cfg.Feed.Port)

			// Validation
			issues := config.Validate(&cfg)
			if len(issues) > 0 {
				fmt.Fprintf(out, "\nValidation issues (%d):\n", len(issues))
				for _, issue := range issues {
					fmt.Fprintf(out, "  - %s: %s\n", issue.Path, issue.Message)
				}
			}

			return nil
		},
	}
}
