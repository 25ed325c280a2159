package chat

import "fmt"

// ErrorResponse is the JSON error body produced by the tapechat server.
// Clients never parse it; error bodies are surfaced as raw text.
type ErrorResponse struct {
	Error string `json:"error"`
}

// StatusError is returned when the server answers with a non-2xx status.
type StatusError struct {
	Code   int    // e.g. 500
	Status string // Status text without the code, e.g. "Internal Server Error"
	Body   string // Raw response body
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("server returned %d %s: %s", e.Code, e.Status, e.Body)
}
