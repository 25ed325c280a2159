package chatcmder

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/papercomputeco/tapechat/cmd/tapechat/clientflags"
	"github.com/papercomputeco/tapechat/pkg/console"
	"github.com/papercomputeco/tapechat/pkg/tui"
)

const chatLongDesc string = `Chat with a tapechat server.

Opens a full-screen client with a transcript, a message box and a
settings panel holding the bearer token and user id. Settings are saved
with ctrl+s and restored on the next start.

When stdin is not a terminal, or with --plain, a line-oriented client
is used instead: every input line is one message, and the commands
/token, /user, /save and /quit are available.

Examples:
  tapechat chat
  tapechat chat --server http://192.168.1.42:8000
  echo "2+2" | tapechat chat --plain`

const chatShortDesc string = "Chat with a tapechat server"

type chatCommander struct {
	opts    clientflags.Options
	plain   bool
	noColor bool
}

func NewChatCmd() *cobra.Command {
	cmder := &chatCommander{}

	cmd := &cobra.Command{
		Use:   "chat",
		Short: chatShortDesc,
		Long:  chatLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd.Context(), cmd)
		},
	}

	cmder.opts.Register(cmd)
	cmd.Flags().BoolVar(&cmder.plain, "plain", false, "Use the line-oriented client even on a terminal")
	cmd.Flags().BoolVar(&cmder.noColor, "no-color", false, "Disable colours")

	return cmd
}

func (c *chatCommander) run(ctx context.Context, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}

	sess, err := c.opts.Open()
	if err != nil {
		return err
	}
	defer sess.Close()

	if c.noColor {
		lipgloss.SetColorProfile(termenv.Ascii)
	}

	stdinTTY := term.IsTerminal(int(os.Stdin.Fd()))
	stdoutTTY := term.IsTerminal(int(os.Stdout.Fd()))

	if c.plain || !stdinTTY || !stdoutTTY {
		sess.Logger.Debug("using line-oriented client", zap.Bool("stdin_tty", stdinTTY), zap.Bool("stdout_tty", stdoutTTY))

		con, err := console.New(cmd.InOrStdin(), cmd.OutOrStdout(), console.Config{
			Echo:   !stdinTTY,
			Prompt: stdinTTY,
		}, sess.Store, sess.Client, sess.Logger)
		if err != nil {
			return fmt.Errorf("could not start chat: %w", err)
		}
		return con.Run(ctx)
	}

	model, err := tui.New(ctx, tui.Config{
		ServerURL: sess.Client.BaseURL(),
		Plain:     c.noColor,
	}, sess.Store, sess.Client, sess.Logger)
	if err != nil {
		return fmt.Errorf("could not start chat: %w", err)
	}

	if _, err := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run(); err != nil {
		return fmt.Errorf("chat client failed: %w", err)
	}
	return nil
}
