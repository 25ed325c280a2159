// Package controller implements the chat interaction controller: it turns
// user input into exactly one request per turn, interprets the outcome
// and maintains the session transcript.
//
// A Controller is driven from a single event loop. Submit and Complete
// must be called from that loop; only the Pending func returned by Submit
// may run elsewhere.
package controller

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"go.uber.org/zap"

	"github.com/papercomputeco/tapechat/pkg/chat"
	"github.com/papercomputeco/tapechat/pkg/settings"
	"github.com/papercomputeco/tapechat/pkg/transcript"
)

// NoAnswer is shown when a successful response carries no answer text.
const NoAnswer = "(no answer)"

// ErrMissingSendControl is returned by New when the host supplies no send control.
var ErrMissingSendControl = errors.New("send control not found")

var errEmptyResponse = errors.New("empty response")

// State is the turn state of a Controller.
type State int

const (
	// Idle accepts a new submission.
	Idle State = iota
	// Sending has a turn in flight.
	Sending
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Sending:
		return "sending"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Sender performs the outbound exchange of a turn. *chat.Client implements it.
type Sender interface {
	Send(ctx context.Context, token string, req chat.TurnRequest) (*chat.TurnResponse, error)
}

// Result is the outcome of a turn's exchange: exactly one of Response or Err is set.
type Result struct {
	Response *chat.TurnResponse
	Err      error
}

// Pending performs the exchange of a submitted turn. It touches no
// Controller state and may run off the event loop.
type Pending func() Result

// Controller orchestrates request/response turns for one session.
type Controller struct {
	ui     UI
	store  settings.Store
	sender Sender
	logger *zap.Logger

	state      State
	transcript transcript.Transcript
	lastErr    error

	// settings is the fallback source of credentials when the host has
	// no settings panel.
	settings settings.Settings
}

// New wires a Controller to the host's UI regions. Persisted settings
// are loaded once and copied into the settings panel, if there is one.
func New(ui UI, store settings.Store, sender Sender, logger *zap.Logger) (*Controller, error) {
	if isNil(ui.Send) {
		logger.Error("cannot wire chat controller", zap.Error(ErrMissingSendControl))
		return nil, ErrMissingSendControl
	}

	c := &Controller{
		ui:       ui,
		store:    store,
		sender:   sender,
		logger:   logger,
		settings: store.Load(),
	}

	if ui.Settings != nil {
		ui.Settings.SetToken(c.settings.Token)
		ui.Settings.SetUserID(c.settings.UserID)
	}

	ui.Send.SetEnabled(true)
	ui.Send.SetBusy(false)

	logger.Debug("chat controller wired",
		zap.Bool("has_input", ui.Input != nil),
		zap.Bool("has_transcript", ui.Transcript != nil),
		zap.Bool("has_settings", ui.Settings != nil),
	)

	return c, nil
}

// State returns the current turn state.
func (c *Controller) State() State {
	return c.state
}

// Transcript returns the session transcript in arrival order.
func (c *Controller) Transcript() []transcript.Entry {
	return c.transcript.Entries()
}

// LastError returns the failure of the most recently completed turn, or
// nil if it succeeded.
func (c *Controller) LastError() error {
	return c.lastErr
}

// Settings returns the credentials the next turn would be sent with.
func (c *Controller) Settings() settings.Settings {
	if c.ui.Settings != nil {
		return settings.Settings{Token: c.ui.Settings.Token(), UserID: c.ui.Settings.UserID()}
	}
	return c.settings
}

// SaveSettings persists the current settings panel values.
func (c *Controller) SaveSettings() error {
	s := c.Settings()
	if s.UserID == "" {
		s.UserID = settings.DefaultUserID
	}

	if err := c.store.Save(s); err != nil {
		c.logger.Error("failed to save settings", zap.Error(err))
		return err
	}
	c.settings = s

	c.logger.Info("settings saved", zap.String("user_id", s.UserID), zap.Bool("has_token", s.Token != ""))
	return nil
}

// Submit starts a turn from the input field. It returns false, changing
// nothing, when the trimmed input is empty or a turn is already in flight.
//
// On success the user entry is appended, the input cleared and the send
// control disabled; the caller must run the returned Pending and hand its
// Result to Complete on the event loop.
func (c *Controller) Submit(ctx context.Context) (Pending, bool) {
	if c.state != Idle {
		c.logger.Debug("ignoring submission while a turn is in flight")
		return nil, false
	}

	var raw string
	if c.ui.Input != nil {
		raw = c.ui.Input.Value()
	}
	text := strings.TrimSpace(raw)
	if text == "" {
		return nil, false
	}

	c.appendEntry(transcript.Entry{Role: transcript.RoleUser, Text: text})
	if c.ui.Input != nil {
		c.ui.Input.SetValue("")
	}

	creds := c.Settings()
	req := chat.TurnRequest{
		UserID:  strings.TrimSpace(creds.UserID),
		Message: text,
	}
	if req.UserID == "" {
		req.UserID = settings.DefaultUserID
	}

	c.state = Sending
	c.ui.Send.SetEnabled(false)
	c.ui.Send.SetBusy(true)

	c.logger.Debug("dispatching turn",
		zap.String("user_id", req.UserID),
		zap.Int("message_len", len(req.Message)),
		zap.Bool("has_token", strings.TrimSpace(creds.Token) != ""),
	)

	sender := c.sender
	token := creds.Token
	return func() Result {
		resp, err := sender.Send(ctx, token, req)
		return Result{Response: resp, Err: err}
	}, true
}

// Complete finishes the in-flight turn with res: it appends exactly one
// assistant entry and always restores the send control.
func (c *Controller) Complete(res Result) {
	if c.state != Sending {
		c.logger.Warn("turn result arrived with no turn in flight")
		return
	}

	defer func() {
		c.state = Idle
		c.ui.Send.SetEnabled(true)
		c.ui.Send.SetBusy(false)
	}()

	c.lastErr = res.Err

	var statusErr *chat.StatusError
	switch {
	case errors.As(res.Err, &statusErr):
		c.logger.Warn("server rejected turn",
			zap.Int("status", statusErr.Code),
			zap.String("body", statusErr.Body),
		)
		c.appendEntry(transcript.Entry{
			Role: transcript.RoleAssistant,
			Text: fmt.Sprintf("Error: %d %s - %s", statusErr.Code, statusErr.Status, statusErr.Body),
		})

	case res.Err != nil:
		c.logger.Error("turn failed", zap.Error(res.Err))
		c.appendEntry(transcript.Entry{
			Role: transcript.RoleAssistant,
			Text: fmt.Sprintf("Network error: %v", res.Err),
		})

	case res.Response == nil:
		c.lastErr = errEmptyResponse
		c.logger.Error("turn completed without a response")
		c.appendEntry(transcript.Entry{
			Role: transcript.RoleAssistant,
			Text: "Network error: " + errEmptyResponse.Error(),
		})

	default:
		answer := res.Response.Answer
		if answer == "" {
			answer = NoAnswer
		}
		c.appendEntry(transcript.Entry{
			Role: transcript.RoleAssistant,
			Text: answer,
			Meta: transcript.FormatMeta(res.Response),
		})
	}
}

// Send runs a whole turn synchronously. It reports whether a turn was
// started.
func (c *Controller) Send(ctx context.Context) bool {
	pending, ok := c.Submit(ctx)
	if !ok {
		return false
	}
	c.Complete(pending())
	return true
}

func (c *Controller) appendEntry(e transcript.Entry) {
	c.transcript.Append(e)
	if c.ui.Transcript != nil {
		c.ui.Transcript.Append(e)
		c.ui.Transcript.ScrollToBottom()
	}
}

// isNil reports whether v is nil, including a nil pointer held in an interface.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
