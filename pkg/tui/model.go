// Package tui is the full-screen terminal host for the chat controller.
// It provides the message input, send control, transcript region and
// settings panel the controller drives.
package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/papercomputeco/tapechat/pkg/controller"
	"github.com/papercomputeco/tapechat/pkg/settings"
	"github.com/papercomputeco/tapechat/pkg/transcript"
)

type focusArea int

const (
	focusInput focusArea = iota
	focusToken
	focusUser
	focusCount
)

// Lines taken by everything but the transcript: title, settings panel
// (with border), input row, status row.
const chromeHeight = 1 + 3 + 1 + 1

// Config configures the TUI.
type Config struct {
	// ServerURL is shown in the title bar.
	ServerURL string

	// Plain disables colour in rendered help.
	Plain bool
}

// turnDoneMsg carries a finished exchange back to the event loop.
type turnDoneMsg struct {
	result controller.Result
}

// Model is the bubbletea model. It must be used through its pointer.
type Model struct {
	ctx    context.Context
	config Config
	logger *zap.Logger
	ctrl   *controller.Controller

	input    textinput.Model
	token    textinput.Model
	user     textinput.Model
	viewport viewport.Model
	spinner  spinner.Model

	focus       focusArea
	sendEnabled bool
	sendBusy    bool
	entries     []transcript.Entry

	status    string
	statusErr bool
	showHelp  bool

	width  int
	height int
}

// New builds the TUI and wires a controller to it. ctx bounds every turn
// sent from this session.
func New(ctx context.Context, config Config, store settings.Store, sender controller.Sender, logger *zap.Logger) (*Model, error) {
	input := textinput.New()
	input.Placeholder = "Type a message and press enter"
	input.Prompt = "> "
	input.Focus()

	token := textinput.New()
	token.Prompt = ""
	token.Placeholder = "none"
	token.EchoMode = textinput.EchoPassword
	token.EchoCharacter = '•'
	token.Width = 24

	user := textinput.New()
	user.Prompt = ""
	user.Placeholder = settings.DefaultUserID
	user.Width = 16

	m := &Model{
		ctx:      ctx,
		config:   config,
		logger:   logger,
		input:    input,
		token:    token,
		user:     user,
		viewport: viewport.New(80, 20),
		spinner:  spinner.New(spinner.WithSpinner(spinner.Dot)),
	}

	ctrl, err := controller.New(m.ui(), store, sender, logger)
	if err != nil {
		return nil, err
	}
	m.ctrl = ctrl

	return m, nil
}

// Controller returns the controller driven by this model.
func (m *Model) Controller() *controller.Controller {
	return m.ctrl
}

func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case turnDoneMsg:
		m.ctrl.Complete(msg.result)
		return m, nil

	case spinner.TickMsg:
		if !m.sendBusy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, m.updateFocused(msg)
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "f1", "esc", "q":
			m.showHelp = false
		}
		return m, nil
	}

	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit

	case "f1":
		m.showHelp = true
		return m, nil

	case "tab":
		return m, m.setFocus((m.focus + 1) % focusCount)

	case "shift+tab":
		return m, m.setFocus((m.focus + focusCount - 1) % focusCount)

	case "ctrl+s":
		m.saveSettings()
		return m, nil

	case "pgup", "pgdown":
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case "enter":
		if m.focus != focusInput {
			m.saveSettings()
			return m, nil
		}
		return m, m.submit()
	}

	return m, m.updateFocused(msg)
}

// submit starts a turn. The exchange runs as a command so the event loop
// stays responsive; its result comes back as a turnDoneMsg.
func (m *Model) submit() tea.Cmd {
	if !m.sendEnabled {
		return nil
	}

	pending, ok := m.ctrl.Submit(m.ctx)
	if !ok {
		return nil
	}
	m.status = ""

	return tea.Batch(
		m.spinner.Tick,
		func() tea.Msg {
			return turnDoneMsg{result: pending()}
		},
	)
}

func (m *Model) saveSettings() {
	if err := m.ctrl.SaveSettings(); err != nil {
		m.status = "could not save settings: " + err.Error()
		m.statusErr = true
		return
	}
	m.status = "settings saved"
	m.statusErr = false
}

func (m *Model) setFocus(f focusArea) tea.Cmd {
	m.focus = f
	m.input.Blur()
	m.token.Blur()
	m.user.Blur()

	switch f {
	case focusToken:
		return m.token.Focus()
	case focusUser:
		return m.user.Focus()
	default:
		return m.input.Focus()
	}
}

func (m *Model) updateFocused(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch m.focus {
	case focusToken:
		m.token, cmd = m.token.Update(msg)
	case focusUser:
		m.user, cmd = m.user.Update(msg)
	default:
		m.input, cmd = m.input.Update(msg)
	}
	return cmd
}

func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height

	m.viewport.Width = width
	m.viewport.Height = max(height-chromeHeight, 1)
	m.input.Width = max(width-lipgloss.Width(m.renderSend())-4, 10)

	// Wrapping depends on the width, so re-render everything.
	m.viewport.SetContent(m.renderTranscript())
	m.viewport.GotoBottom()
}

func (m *Model) View() string {
	if m.showHelp {
		return helpStyle.Render(renderHelp(max(m.width-4, 20), m.config.Plain))
	}

	title := titleStyle.Render("tapechat") + serverStyle.Render(m.config.ServerURL)

	panel := panelStyle.Render(lipgloss.JoinHorizontal(lipgloss.Top,
		fieldLabelStyle.Render("token "), m.token.View(),
		fieldLabelStyle.Render("  user "), m.user.View(),
	))

	inputRow := lipgloss.JoinHorizontal(lipgloss.Top, m.input.View(), " ", m.renderSend())

	status := statusStyle.Render("enter send · tab switch field · ctrl+s save settings · f1 help · ctrl+c quit")
	if m.status != "" {
		if m.statusErr {
			status = errorStyle.Render(m.status)
		} else {
			status = statusStyle.Render(m.status)
		}
	}

	return lipgloss.JoinVertical(lipgloss.Left, title, m.viewport.View(), panel, inputRow, status)
}

func (m *Model) renderSend() string {
	switch {
	case m.sendBusy:
		return sendDisabledStyle.Render(m.spinner.View() + " Sending")
	case !m.sendEnabled:
		return sendDisabledStyle.Render("Send")
	default:
		return sendStyle.Render("Send")
	}
}

func (m *Model) renderTranscript() string {
	width := m.viewport.Width
	if width <= 0 {
		width = 80
	}

	blocks := make([]string, 0, len(m.entries))
	for _, e := range m.entries {
		blocks = append(blocks, renderEntry(e, width))
	}
	return strings.Join(blocks, "\n\n")
}

// renderEntry renders one transcript block. Message text is untrusted and
// goes through transcript.Literal; the meta line is ours.
func renderEntry(e transcript.Entry, width int) string {
	label := userLabelStyle.Render("You")
	block := userBlockStyle
	if e.Role == transcript.RoleAssistant {
		label = assistantLabelStyle.Render("Assistant")
		block = assistantBlockStyle
	}

	lines := []string{label, transcript.Literal(e.Text)}
	if e.Meta != "" {
		lines = append(lines, metaStyle.Render(e.Meta))
	}

	return block.Width(max(width-2, 10)).Render(strings.Join(lines, "\n"))
}
