// Package lobby renders the active lobby: the grouped message list, the
// composer, the userlist overlay, and the new-messages affordance.
package lobby

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/gschussler/warpsockets/internal/client"
	"github.com/gschussler/warpsockets/internal/theme"
)

const composerHeight = 3

// Model holds the lobby view state.
type Model struct {
	Lobby string
	Self  string

	width  int
	height int

	entries      []client.Entry
	users        []string
	follow       client.Follow
	showUsers    bool
	disconnected bool
	sendErr      string

	viewport viewport.Model
	composer textarea.Model
}

// New creates the lobby view.
func New(lobbyName, self string, followThreshold, maxMessageLen int) Model {
	ta := textarea.New()
	ta.Placeholder = "Send a message..."
	ta.CharLimit = maxMessageLen
	ta.SetHeight(1)
	ta.ShowLineNumbers = false
	ta.KeyMap.InsertNewline.SetEnabled(false)
	ta.Focus()

	return Model{
		Lobby:    lobbyName,
		Self:     self,
		follow:   client.NewFollow(followThreshold),
		viewport: viewport.New(0, 0),
		composer: ta,
	}
}

// SetSize resizes the view to the terminal dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	bodyHeight := height - composerHeight - 2 // header + footer hint
	if bodyHeight < 3 {
		bodyHeight = 3
	}
	m.viewport.Width = width
	m.viewport.Height = bodyHeight
	m.composer.SetWidth(width - 2)
	m.viewport.SetContent(m.renderEntries())
	m.syncOffset()
}

// SetLog replaces the displayed conversation log. The scroll decision is made
// against the viewport position from before the mutation: either the view
// follows to the newest entry or the new-messages pill appears.
func (m *Model) SetLog(entries []client.Entry) {
	autoscroll := m.follow.Observe()
	m.entries = entries
	m.viewport.SetContent(m.renderEntries())
	if autoscroll {
		m.viewport.GotoBottom()
	}
	m.syncOffset()
}

// SetUsers replaces the presence snapshot.
func (m *Model) SetUsers(users []string) {
	m.users = users
}

// SetDisconnected toggles the signal-lost banner.
func (m *Model) SetDisconnected(v bool) {
	m.disconnected = v
}

// SetSendError surfaces a failed send as a one-line non-blocking cue.
func (m *Model) SetSendError(msg string) {
	m.sendErr = msg
}

// ToggleUsers shows or hides the userlist overlay.
func (m *Model) ToggleUsers() {
	m.showUsers = !m.showUsers
}

// NewMessagesPending reports whether the new-messages pill is visible.
func (m *Model) NewMessagesPending() bool {
	return m.follow.Pending()
}

// JumpToNewest acknowledges the pill: one explicit scroll to the newest entry.
func (m *Model) JumpToNewest() {
	m.viewport.GotoBottom()
	m.follow.Acknowledge()
}

// ConsumeInput returns the composer content and clears it.
func (m *Model) ConsumeInput() string {
	v := m.composer.Value()
	m.composer.Reset()
	m.composer.SetHeight(1)
	return v
}

// Update routes scroll keys to the viewport and everything else to the
// composer. Manually scrolling back to the newest entry clears the pill.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "pgup", "pgdown", "ctrl+u", "ctrl+d", "home", "end":
			m.viewport, cmd = m.viewport.Update(msg)
			cmds = append(cmds, cmd)
			m.syncOffset()
			return m, tea.Batch(cmds...)
		}
	case tea.MouseMsg:
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)
		m.syncOffset()
		return m, tea.Batch(cmds...)
	}

	m.composer, cmd = m.composer.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

// syncOffset feeds the viewport's distance from the newest entry back into
// the follow arbiter.
func (m *Model) syncOffset() {
	offset := m.viewport.TotalLineCount() - (m.viewport.YOffset + m.viewport.Height)
	m.follow.SetOffset(offset)
}

// View renders the lobby.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	header := m.renderHeader()
	body := m.viewport.View()
	if m.showUsers {
		body = m.overlayUsers(body)
	}

	var footerParts []string
	if m.follow.Pending() {
		footerParts = append(footerParts, theme.StylePill.Render("↓ New Messages ↓"))
	}
	if m.disconnected {
		footerParts = append(footerParts, theme.StyleDanger.Render("Signal Lost..."))
	}
	if m.sendErr != "" {
		footerParts = append(footerParts, theme.StyleDanger.Render(m.sendErr))
	}
	footerParts = append(footerParts,
		theme.StyleBorder.Render(m.composer.View()),
		theme.StyleDimmed.Render("enter:send  ctrl+u:users  ctrl+n:jump to newest  esc:leave"),
	)

	sections := append([]string{header, body}, footerParts...)
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderHeader() string {
	state := theme.StyleDimmed.Render(fmt.Sprintf("%d aboard", len(m.users)))
	if m.disconnected {
		state = theme.StyleDanger.Render("disconnected")
	}
	title := theme.StyleHeader.Render(m.Lobby)
	return title + "  " + state
}

// renderEntries lays out the grouped conversation log. Each group shows one
// author/time line followed by its (possibly newline-joined) content.
func (m Model) renderEntries() string {
	if len(m.entries) == 0 {
		return theme.StyleDimmed.Render("  For a moment in time, you are connected...")
	}

	var b strings.Builder
	for i, e := range m.entries {
		if i > 0 {
			b.WriteString("\n")
		}
		if e.Kind == client.EntrySystem {
			b.WriteString(theme.StyleSystem.Render(e.Content))
			b.WriteString(" " + theme.StyleDimmed.Render(e.Time))
			b.WriteString("\n")
			continue
		}

		color := lipgloss.Color(e.Color)
		if e.Color == "" {
			color = theme.UserColor(e.Author)
		}
		author := lipgloss.NewStyle().Foreground(color).Bold(true).Render(e.Author)
		b.WriteString(author + " " + theme.StyleDimmed.Render(e.Time))
		b.WriteString("\n")
		for _, line := range strings.Split(e.Content, "\n") {
			b.WriteString(line)
			b.WriteString("\n")
		}
	}
	return b.String()
}

// overlayUsers draws the userlist panel above the top of the message body.
func (m Model) overlayUsers(body string) string {
	var lines []string
	lines = append(lines, theme.StyleHeader.Render("Users"))
	for _, u := range m.users {
		style := lipgloss.NewStyle().Foreground(theme.UserColor(u))
		name := u
		if u == m.Self {
			name += " (you)"
		}
		lines = append(lines, style.Render("· "+name))
	}
	panel := theme.StyleBorder.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
	return lipgloss.JoinVertical(lipgloss.Left, panel, body)
}
