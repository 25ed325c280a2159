package tui

import (
	"github.com/charmbracelet/glamour"
)

const helpMarkdown = `# tapechat

| Key | Action |
|-----|--------|
| enter | send the message (or save settings from a settings field) |
| tab / shift+tab | move between message, token and user fields |
| ctrl+s | save token and user id |
| pgup / pgdown | scroll the transcript |
| f1 / esc | toggle this help |
| ctrl+c | quit |

Settings are stored on disk and restored on the next start.
The token is sent as ` + "`Authorization: Bearer <token>`" + ` only when set.
`

// renderHelp renders the help text. Falls back to the raw markdown if
// glamour cannot render it.
func renderHelp(width int, plain bool) string {
	style := "dark"
	if plain {
		style = "notty"
	}
	if width < 20 {
		width = 20
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return helpMarkdown
	}

	out, err := r.Render(helpMarkdown)
	if err != nil {
		return helpMarkdown
	}
	return out
}
