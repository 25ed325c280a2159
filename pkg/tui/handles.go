package tui

import (
	"github.com/papercomputeco/tapechat/pkg/controller"
	"github.com/papercomputeco/tapechat/pkg/transcript"
)

// The handle types expose regions of a Model to the controller. They all
// point back at the same Model, so they stay valid across Update calls.

type inputHandle struct{ m *Model }

func (h inputHandle) Value() string     { return h.m.input.Value() }
func (h inputHandle) SetValue(v string) { h.m.input.SetValue(v) }

type sendHandle struct{ m *Model }

func (h sendHandle) SetEnabled(enabled bool) { h.m.sendEnabled = enabled }
func (h sendHandle) SetBusy(busy bool)       { h.m.sendBusy = busy }

type transcriptHandle struct{ m *Model }

func (h transcriptHandle) Append(e transcript.Entry) {
	h.m.entries = append(h.m.entries, e)
	h.m.viewport.SetContent(h.m.renderTranscript())
}

func (h transcriptHandle) ScrollToBottom() { h.m.viewport.GotoBottom() }

type settingsHandle struct{ m *Model }

func (h settingsHandle) Token() string      { return h.m.token.Value() }
func (h settingsHandle) SetToken(v string)  { h.m.token.SetValue(v) }
func (h settingsHandle) UserID() string     { return h.m.user.Value() }
func (h settingsHandle) SetUserID(v string) { h.m.user.SetValue(v) }

func (m *Model) ui() controller.UI {
	return controller.UI{
		Input:      inputHandle{m},
		Send:       sendHandle{m},
		Transcript: transcriptHandle{m},
		Settings:   settingsHandle{m},
	}
}
