package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kjstillabower/lookoutside/internal/bot"
	"github.com/kjstillabower/lookoutside/internal/observability"
	"github.com/kjstillabower/lookoutside/internal/validation"
)

type dispatcher interface {
	Handle(ctx context.Context, req bot.Request) ([]bot.Message, error)
}

func newRunCmd() *cobra.Command {
	var (
		user    string
		private bool
	)
	cmd := &cobra.Command{
		Use:   "run --user nick [--private] <command...>",
		Short: "Run one chat command and print the replies",
		Example: `  lookoutside run --user alice weather seattle
  lookoutside run --user alice --private weatherset units metric`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, logger, err := bootstrap(cmd.Context())
			if logger != nil {
				defer func() { _ = observability.SyncLogger(logger) }()
			}
			if err != nil {
				return err
			}
			defer func() {
				if err := a.Close(); err != nil {
					logger.Error("store close", zap.Error(err))
				}
			}()
			return runCommand(cmd.Context(), cmd.OutOrStdout(), a.Dispatcher(), user, private, strings.Join(args, " "))
		},
	}
	cmd.Flags().StringVar(&user, "user", "", "chat nick the command is run as (required)")
	cmd.Flags().BoolVar(&private, "private", false, "treat the command as a private message")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

// runCommand dispatches text as user and prints one line per reply, prefixed with its target.
func runCommand(ctx context.Context, out io.Writer, d dispatcher, user string, private bool, text string) error {
	nick, err := validation.ValidateUser(user)
	if err != nil {
		return fmt.Errorf("--user: %w", err)
	}
	msgs, err := d.Handle(ctx, bot.Request{User: nick, Text: text, Private: private})
	if err != nil {
		return err
	}
	for _, m := range msgs {
		if _, err := fmt.Fprintf(out, "[%s] %s\n", m.Target, m.Text); err != nil {
			return err
		}
	}
	return nil
}
