// Package console is a line-oriented host for the chat controller, used
// when stdin is not a terminal or a full-screen UI is not wanted.
//
// Lines are read from the input one at a time; each non-command line is
// sent as one turn and the reply is printed before the next prompt.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/papercomputeco/tapechat/pkg/controller"
	"github.com/papercomputeco/tapechat/pkg/settings"
	"github.com/papercomputeco/tapechat/pkg/transcript"
)

const (
	userPrompt      = "You> "
	assistantPrefix = "Bot> "
	metaIndent      = "     "
)

// Config configures a Console.
type Config struct {
	// Echo prints user entries, for when input is not typed interactively.
	Echo bool

	// Prompt prints the "You> " prompt before each read.
	Prompt bool
}

// Console reads messages from in and writes the transcript to out.
type Console struct {
	in     *bufio.Reader
	out    io.Writer
	config Config
	logger *zap.Logger
	ctrl   *controller.Controller

	line   string
	token  string
	userID string

	sendEnabled bool
	sendBusy    bool
}

// New creates a Console and wires a controller to it.
func New(in io.Reader, out io.Writer, config Config, store settings.Store, sender controller.Sender, logger *zap.Logger) (*Console, error) {
	c := &Console{
		in:     bufio.NewReader(in),
		out:    out,
		config: config,
		logger: logger,
	}

	ctrl, err := controller.New(controller.UI{
		Input:      (*lineInput)(c),
		Send:       (*sendState)(c),
		Transcript: (*printer)(c),
		Settings:   (*fields)(c),
	}, store, sender, logger)
	if err != nil {
		return nil, err
	}
	c.ctrl = ctrl

	return c, nil
}

// Controller returns the controller driven by this console.
func (c *Console) Controller() *controller.Controller {
	return c.ctrl
}

// Run reads lines until EOF, /quit or ctx is cancelled.
func (c *Console) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		if c.config.Prompt {
			fmt.Fprint(c.out, userPrompt)
		}
		// Lines have no length limit; a final line without a newline still counts.
		line, err := c.in.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("could not read input: %w", err)
		}
		if line == "" && err != nil {
			return nil
		}

		line = strings.TrimSuffix(strings.TrimSuffix(line, "\n"), "\r")
		if quit := c.handle(ctx, line); quit || err != nil {
			return nil
		}
	}
}

// handle processes one input line and reports whether the session should end.
func (c *Console) handle(ctx context.Context, line string) bool {
	trimmed := strings.TrimSpace(line)

	if strings.HasPrefix(trimmed, "/") {
		cmd, arg, _ := strings.Cut(trimmed, " ")
		arg = strings.TrimSpace(arg)

		switch cmd {
		case "/quit", "/exit":
			return true
		case "/token":
			c.token = arg
			fmt.Fprintln(c.out, "token updated (use /save to keep it)")
			return false
		case "/user":
			c.userID = arg
			fmt.Fprintf(c.out, "user set to %q (use /save to keep it)\n", arg)
			return false
		case "/save":
			if err := c.ctrl.SaveSettings(); err != nil {
				fmt.Fprintf(c.out, "could not save settings: %v\n", err)
			} else {
				fmt.Fprintln(c.out, "settings saved")
			}
			return false
		case "/help":
			fmt.Fprintln(c.out, "commands: /token <value>, /user <id>, /save, /quit")
			return false
		}
	}

	c.line = line
	c.ctrl.Send(ctx)
	return false
}

// Ask sends message as one turn, without command handling, and reports
// whether a turn was sent.
func (c *Console) Ask(ctx context.Context, message string) bool {
	c.line = message
	return c.ctrl.Send(ctx)
}

type lineInput Console

func (l *lineInput) Value() string     { return l.line }
func (l *lineInput) SetValue(v string) { l.line = v }

type sendState Console

func (s *sendState) SetEnabled(enabled bool) { s.sendEnabled = enabled }
func (s *sendState) SetBusy(busy bool)       { s.sendBusy = busy }

type fields Console

func (f *fields) Token() string      { return f.token }
func (f *fields) SetToken(v string)  { f.token = v }
func (f *fields) UserID() string     { return f.userID }
func (f *fields) SetUserID(v string) { f.userID = v }

type printer Console

func (p *printer) Append(e transcript.Entry) {
	text := transcript.Literal(e.Text)

	if e.Role == transcript.RoleUser {
		if p.config.Echo {
			fmt.Fprintln(p.out, userPrompt+text)
		}
		return
	}

	// Continuation lines line up under the first.
	fmt.Fprintln(p.out, assistantPrefix+strings.ReplaceAll(text, "\n", "\n"+metaIndent))
	if e.Meta != "" {
		fmt.Fprintln(p.out, metaIndent+"("+e.Meta+")")
	}
}

// The terminal scrolls on its own.
func (p *printer) ScrollToBottom() {}
