package controller_test

import (
	"context"

	"github.com/papercomputeco/tapechat/pkg/chat"
	"github.com/papercomputeco/tapechat/pkg/transcript"
)

type fakeInput struct {
	value string
}

func (f *fakeInput) Value() string     { return f.value }
func (f *fakeInput) SetValue(v string) { f.value = v }

type fakeSend struct {
	enabled bool
	busy    bool
}

func (f *fakeSend) SetEnabled(enabled bool) { f.enabled = enabled }
func (f *fakeSend) SetBusy(busy bool)       { f.busy = busy }

type fakeView struct {
	entries []transcript.Entry
	scrolls int
}

func (f *fakeView) Append(e transcript.Entry) { f.entries = append(f.entries, e) }
func (f *fakeView) ScrollToBottom()           { f.scrolls++ }

type fakeSettings struct {
	token  string
	userID string
}

func (f *fakeSettings) Token() string      { return f.token }
func (f *fakeSettings) SetToken(v string)  { f.token = v }
func (f *fakeSettings) UserID() string     { return f.userID }
func (f *fakeSettings) SetUserID(v string) { f.userID = v }

type sentTurn struct {
	token string
	req   chat.TurnRequest
}

// fakeSender records every dispatched turn and answers with resp/err.
type fakeSender struct {
	sent []sentTurn
	resp *chat.TurnResponse
	err  error
}

func (f *fakeSender) Send(_ context.Context, token string, req chat.TurnRequest) (*chat.TurnResponse, error) {
	f.sent = append(f.sent, sentTurn{token: token, req: req})
	return f.resp, f.err
}
