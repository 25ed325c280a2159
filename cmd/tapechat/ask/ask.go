package askcmder

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/tapechat/cmd/tapechat/clientflags"
	"github.com/papercomputeco/tapechat/pkg/console"
)

const askLongDesc string = `Send a single message and print the reply.

Uses the saved token and user id. Exits non-zero when the turn fails.

Examples:
  tapechat ask "what is 3 * (4 + 1)?"
  tapechat ask --server http://localhost:8000 hello there`

const askShortDesc string = "Send one message and print the reply"

type askCommander struct {
	opts clientflags.Options
}

func NewAskCmd() *cobra.Command {
	cmder := &askCommander{}

	cmd := &cobra.Command{
		Use:   "ask <message...>",
		Short: askShortDesc,
		Long:  askLongDesc,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd.Context(), cmd, strings.Join(args, " "))
		},
	}

	cmder.opts.Register(cmd)

	return cmd
}

func (c *askCommander) run(ctx context.Context, cmd *cobra.Command, message string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	sess, err := c.opts.Open()
	if err != nil {
		return err
	}
	defer sess.Close()

	con, err := console.New(strings.NewReader(""), cmd.OutOrStdout(), console.Config{}, sess.Store, sess.Client, sess.Logger)
	if err != nil {
		return fmt.Errorf("could not start chat: %w", err)
	}

	if !con.Ask(ctx, message) {
		return fmt.Errorf("nothing to send")
	}
	if err := con.Controller().LastError(); err != nil {
		return fmt.Errorf("turn failed: %w", err)
	}
	return nil
}
