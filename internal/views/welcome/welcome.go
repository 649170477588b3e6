// Package welcome renders the join/create form shown before a lobby session
// is established.
package welcome

import (
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/gschussler/warpsockets/internal/theme"
)

const (
	fieldUser = iota
	fieldLobby
	fieldCount
)

// Model holds the welcome form state.
type Model struct {
	Action string // "join" or "create"

	inputs     [fieldCount]textinput.Model
	focused    int
	connecting bool
	errMsg     string
	spinner    spinner.Model
}

// New creates the form, pre-filled from config/flags where available.
func New(action, user, lobbyName string) Model {
	userInput := textinput.New()
	userInput.Placeholder = "username"
	userInput.CharLimit = 24
	userInput.SetValue(user)
	userInput.Focus()

	lobbyInput := textinput.New()
	lobbyInput.Placeholder = "lobby"
	lobbyInput.CharLimit = 32
	lobbyInput.SetValue(lobbyName)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.ColorAccent)

	if action == "" {
		action = "join"
	}
	return Model{
		Action:  action,
		inputs:  [fieldCount]textinput.Model{userInput, lobbyInput},
		spinner: sp,
	}
}

// User returns the trimmed username field.
func (m Model) User() string { return strings.TrimSpace(m.inputs[fieldUser].Value()) }

// Lobby returns the trimmed lobby field.
func (m Model) Lobby() string { return strings.TrimSpace(m.inputs[fieldLobby].Value()) }

// Complete reports whether both fields are filled.
func (m Model) Complete() bool { return m.User() != "" && m.Lobby() != "" }

// SetConnecting toggles the in-flight state; the form locks while true.
func (m *Model) SetConnecting(v bool) {
	m.connecting = v
	if v {
		m.errMsg = ""
	}
}

// Connecting reports whether a connect attempt is in flight.
func (m Model) Connecting() bool { return m.connecting }

// SetError shows a connect failure under the form.
func (m *Model) SetError(msg string) {
	m.connecting = false
	m.errMsg = msg
}

// ToggleAction flips between joining and creating.
func (m *Model) ToggleAction() {
	if m.Action == "join" {
		m.Action = "create"
	} else {
		m.Action = "join"
	}
}

// SpinnerTick starts the spinner animation.
func (m Model) SpinnerTick() tea.Cmd { return m.spinner.Tick }

// Update handles form input and spinner frames.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if m.connecting {
			return m, nil
		}
		switch msg.String() {
		case "tab", "shift+tab", "up", "down":
			if msg.String() == "shift+tab" || msg.String() == "up" {
				m.focused = (m.focused - 1 + fieldCount) % fieldCount
			} else {
				m.focused = (m.focused + 1) % fieldCount
			}
			for i := range m.inputs {
				if i == m.focused {
					cmds = append(cmds, m.inputs[i].Focus())
				} else {
					m.inputs[i].Blur()
				}
			}
			return m, tea.Batch(cmds...)
		case "ctrl+t":
			m.ToggleAction()
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.inputs[m.focused], cmd = m.inputs[m.focused].Update(msg)
	return m, cmd
}

// View renders the form.
func (m Model) View() string {
	title := theme.StyleHeader.Render("warpsockets")
	actionLine := theme.StyleDimmed.Render("action: ") +
		lipgloss.NewStyle().Foreground(theme.ColorAccent).Render(m.Action) +
		theme.StyleDimmed.Render("  (ctrl+t to switch)")

	lines := []string{
		title,
		"",
		actionLine,
		"",
		"user:  " + m.inputs[fieldUser].View(),
		"lobby: " + m.inputs[fieldLobby].View(),
		"",
	}

	switch {
	case m.connecting:
		lines = append(lines, m.spinner.View()+" Connecting...")
	case m.errMsg != "":
		lines = append(lines, theme.StyleDanger.Render(m.errMsg))
	default:
		lines = append(lines, theme.StyleDimmed.Render("enter:connect  tab:next field  q:quit"))
	}

	form := lipgloss.JoinVertical(lipgloss.Left, lines...)
	return theme.StyleBorder.Padding(1, 2).Render(form)
}
