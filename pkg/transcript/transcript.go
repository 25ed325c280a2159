// Package transcript models the append-only record of a chat session.
package transcript

import (
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/charmbracelet/x/ansi"

	"github.com/papercomputeco/tapechat/pkg/chat"
)

// Role tags who authored an entry.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// MetaSeparator joins the parts of an entry's metadata line.
const MetaSeparator = " • "

// Entry is one rendered message. Meta is optional and is always built by
// tapechat itself, never taken from the server verbatim.
type Entry struct {
	Role Role
	Text string
	Meta string
}

// Transcript is the ordered, append-only list of entries for a session.
// It is not safe for concurrent use; it belongs to the event loop.
type Transcript struct {
	entries []Entry
}

// Append adds e at the end of the transcript.
func (t *Transcript) Append(e Entry) {
	t.entries = append(t.entries, e)
}

// Entries returns a copy of the entries in arrival order.
func (t *Transcript) Entries() []Entry {
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Len returns the number of entries.
func (t *Transcript) Len() int {
	return len(t.entries)
}

// FormatMeta builds the metadata line for a successful response:
// tool name, model latency, then tool latency (only when positive).
func FormatMeta(resp *chat.TurnResponse) string {
	if resp == nil {
		return ""
	}

	parts := make([]string, 0, 3)
	if resp.UsedTool != "" {
		parts = append(parts, "tool: "+resp.UsedTool)
	}
	if resp.ModelLatencyMs != nil {
		parts = append(parts, "model: "+roundMs(*resp.ModelLatencyMs)+"ms")
	}
	if resp.ToolLatencyMs != nil && *resp.ToolLatencyMs > 0 {
		parts = append(parts, "tool: "+roundMs(*resp.ToolLatencyMs)+"ms")
	}

	return strings.Join(parts, MetaSeparator)
}

// roundMs formats ms rounded half away from zero, at any magnitude.
func roundMs(ms float64) string {
	r := math.Round(ms)
	if r == 0 {
		r = 0 // no "-0"
	}
	return strconv.FormatFloat(r, 'f', 0, 64)
}

// Literal makes untrusted text safe to print to a terminal. Escape
// sequences are removed and remaining control characters other than
// newline and tab are dropped, so the text is shown as-is and can never
// restyle, move or clear the screen.
func Literal(s string) string {
	s = ansi.Strip(s)
	s = strings.ReplaceAll(s, "\r\n", "\n")

	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
}
