package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/ttdigital/ttchat/internal/chat"
	"github.com/ttdigital/ttchat/internal/domain"
)

func newChatCmd() *cobra.Command {
	var (
		fresh     bool
		ephemeral bool
	)

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat session in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			if ephemeral {
				cfg.Store.Driver = "memory"
			}

			engine, cleanup, err := buildEngine(cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			out := cmd.OutOrStdout()
			printer := newTranscriptPrinter(out)
			engine.OnChange(printer.render)

			if fresh {
				engine.StartNewSession(ctx)
			} else {
				engine.LoadPreviousSession(ctx)
			}
			fmt.Fprintf(out, "session %s — type a message, /new for a fresh session, /quit to exit\n",
				engine.Snapshot().CurrentSessionID)

			scanner := bufio.NewScanner(cmd.InOrStdin())
			for {
				fmt.Fprint(out, "> ")
				if !scanner.Scan() {
					break
				}
				if ctx.Err() != nil {
					break
				}

				line := strings.TrimSpace(scanner.Text())
				switch line {
				case "/quit", "/exit":
					return nil
				case "/new":
					engine.StartNewSession(ctx)
					fmt.Fprintf(out, "session %s\n", engine.Snapshot().CurrentSessionID)
					continue
				}

				if err := engine.SendMessage(ctx, line, nil, nil); err != nil {
					if errors.Is(err, chat.ErrSendInFlight) {
						fmt.Fprintln(out, "(still waiting for the previous reply)")
						continue
					}
					return err
				}
			}
			return scanner.Err()
		},
	}

	cmd.Flags().BoolVar(&fresh, "new", false, "start a fresh session instead of restoring the previous one")
	cmd.Flags().BoolVar(&ephemeral, "ephemeral", false, "keep the session in memory only, never touching the database")
	return cmd
}

// transcriptPrinter renders transcript deltas as they appear. A session
// reset shrinks the transcript; the printer then replays from the top.
type transcriptPrinter struct {
	mu      sync.Mutex
	out     io.Writer
	printed int
}

func newTranscriptPrinter(out io.Writer) *transcriptPrinter {
	return &transcriptPrinter{out: out}
}

func (p *transcriptPrinter) render(snap chat.Snapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(snap.Messages) < p.printed {
		p.printed = 0
	}
	for _, msg := range snap.Messages[p.printed:] {
		p.printMessage(msg)
	}
	p.printed = len(snap.Messages)
}

func (p *transcriptPrinter) printMessage(msg domain.ChatMessage) {
	prefix := "bot"
	if msg.Sender == domain.SenderUser {
		prefix = "you"
	}
	text := msg.Text
	if text == "" && len(msg.Actions) > 0 {
		text = "(action required)"
	}
	fmt.Fprintf(p.out, "%s> %s\n", prefix, text)
	for _, action := range msg.Actions {
		if action.Label != "" {
			fmt.Fprintf(p.out, "     [%s]\n", action.Label)
		}
	}
}
