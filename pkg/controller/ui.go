package controller

import "github.com/papercomputeco/tapechat/pkg/transcript"

// InputField is the text box the user types messages into.
type InputField interface {
	Value() string
	SetValue(v string)
}

// SendControl is the affordance that submits a message.
type SendControl interface {
	SetEnabled(enabled bool)
	SetBusy(busy bool)
}

// TranscriptView displays transcript entries.
type TranscriptView interface {
	// Append renders e as a new block at the end of the view.
	Append(e transcript.Entry)

	// ScrollToBottom reveals the newest entry.
	ScrollToBottom()
}

// SettingsFields is the settings panel: editable token and user id.
type SettingsFields interface {
	Token() string
	SetToken(v string)
	UserID() string
	SetUserID(v string)
}

// UI bundles the regions a host exposes to the Controller.
// Only Send is mandatory.
type UI struct {
	Input      InputField
	Send       SendControl
	Transcript TranscriptView
	Settings   SettingsFields
}
