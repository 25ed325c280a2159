// Package chat provides the wire representation of chat turns and an
// HTTP client that exchanges them with a chat server.
package chat

// TurnRequest is the body of a single chat turn.
type TurnRequest struct {
	UserID  string `json:"user_id"` // Stable user identifier, "demo" when unset
	Message string `json:"message"` // Trimmed, non-empty user text
}
