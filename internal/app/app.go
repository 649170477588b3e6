// Package app wires the lobby session client to the terminal views.
package app

import (
	"context"
	"errors"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/gschussler/warpsockets/internal/client"
	"github.com/gschussler/warpsockets/internal/config"
	"github.com/gschussler/warpsockets/internal/theme"
	"github.com/gschussler/warpsockets/internal/views/lobby"
	"github.com/gschussler/warpsockets/internal/views/welcome"
)

type view int

const (
	viewWelcome view = iota
	viewLobby
)

// --- session messages ---

// ConnectedMsg is sent when the lobby channel opens.
type ConnectedMsg struct{}

// ConnectFailedMsg carries a failed connect attempt.
type ConnectFailedMsg struct{ Err error }

// SessionEventMsg wraps one typed event from the session's event channel.
type SessionEventMsg struct{ Event client.Event }

// SessionEndedMsg is sent when the event channel closes.
type SessionEndedMsg struct{}

// SendResultMsg carries the terminal outcome of a send.
type SendResultMsg struct{ Err error }

// Model is the root Bubble Tea model.
type Model struct {
	cfg *config.Config
	log zerolog.Logger

	session *client.Session
	keys    KeyMap
	width   int
	height  int

	active  view
	welcome welcome.Model
	lobby   lobby.Model
}

// New creates the root model. action/user/lobbyName pre-fill the welcome form
// from flags and config.
func New(cfg *config.Config, log zerolog.Logger, action, user, lobbyName string) Model {
	return Model{
		cfg:     cfg,
		log:     log,
		keys:    DefaultKeyMap(),
		welcome: welcome.New(action, user, lobbyName),
	}
}

// Init is a no-op; the socket is dialed when the form is submitted.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.lobby.SetSize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case ConnectedMsg:
		m.active = viewLobby
		m.lobby = lobby.New(m.session.Lobby(), m.welcome.User(),
			m.cfg.UI.FollowThreshold, m.cfg.UI.MaxMessageLen)
		m.lobby.SetSize(m.width, m.height)
		m.lobby.SetLog(m.session.Log())
		m.lobby.SetUsers(m.session.Users())
		return m, awaitEvent(m.session)

	case ConnectFailedMsg:
		m.welcome.SetError(connectErrorText(msg.Err))
		return m, nil

	case SessionEventMsg:
		switch ev := msg.Event.(type) {
		case client.MessageEvent:
			m.lobby.SetLog(ev.Log)
		case client.PresenceEvent:
			m.lobby.SetLog(ev.Log)
			m.lobby.SetUsers(ev.Users)
		case client.DisconnectedEvent:
			m.lobby.SetDisconnected(true)
		}
		return m, awaitEvent(m.session)

	case SessionEndedMsg:
		return m, nil

	case SendResultMsg:
		if msg.Err != nil {
			m.lobby.SetSendError(sendErrorText(msg.Err))
		} else {
			m.lobby.SetSendError("")
		}
		return m, nil
	}

	return m.updateActive(msg)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		if m.session != nil {
			m.session.Disconnect("client closed the application")
		}
		return m, tea.Quit
	}

	switch m.active {
	case viewWelcome:
		if msg.String() == "q" && m.welcome.User() == "" && m.welcome.Lobby() == "" {
			return m, tea.Quit
		}
		if key.Matches(msg, m.keys.Submit) && !m.welcome.Connecting() {
			if !m.welcome.Complete() {
				m.welcome.SetError("username and lobby are required")
				return m, nil
			}
			m.welcome.SetConnecting(true)
			m.session = client.NewSession(client.Options{
				ServerURL: m.cfg.Server.URL,
				User:      m.welcome.User(),
				Color:     userColor(m.cfg, m.welcome.User()),
				Action:    m.welcome.Action,
				Logger:    m.log,
			})
			return m, tea.Batch(
				m.welcome.SpinnerTick(),
				connectCmd(m.session, m.welcome.Lobby()),
			)
		}

	case viewLobby:
		switch {
		case key.Matches(msg, m.keys.Leave):
			m.session.Disconnect("client left lobby using intended functionality")
			m.session = nil
			m.active = viewWelcome
			m.welcome.SetConnecting(false)
			return m, nil
		case key.Matches(msg, m.keys.Users):
			m.lobby.ToggleUsers()
			return m, nil
		case key.Matches(msg, m.keys.Jump):
			m.lobby.JumpToNewest()
			return m, nil
		case key.Matches(msg, m.keys.Submit):
			content := m.lobby.ConsumeInput()
			return m, sendCmd(m.session, content)
		}
	}

	return m.updateActive(msg)
}

func (m Model) updateActive(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.active {
	case viewWelcome:
		m.welcome, cmd = m.welcome.Update(msg)
	case viewLobby:
		m.lobby, cmd = m.lobby.Update(msg)
	}
	return m, cmd
}

// View renders the active view.
func (m Model) View() string {
	switch m.active {
	case viewLobby:
		return m.lobby.View()
	default:
		return m.welcome.View()
	}
}

// --- commands ---

// connectCmd runs the blocking connect (existence check + dial + join frame).
func connectCmd(s *client.Session, lobbyName string) tea.Cmd {
	return func() tea.Msg {
		if err := s.Connect(context.Background(), lobbyName); err != nil {
			return ConnectFailedMsg{Err: err}
		}
		return ConnectedMsg{}
	}
}

// awaitEvent blocks on the session's event channel and is re-armed after each
// delivered event, keeping the Update loop the single consumer.
func awaitEvent(s *client.Session) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-s.Events()
		if !ok {
			return SessionEndedMsg{}
		}
		return SessionEventMsg{Event: ev}
	}
}

// sendCmd runs one send pipeline (bounded retries included) off the UI loop.
func sendCmd(s *client.Session, content string) tea.Cmd {
	return func() tea.Msg {
		return SendResultMsg{Err: s.Send(context.Background(), content)}
	}
}

func userColor(cfg *config.Config, user string) string {
	if cfg.User.Color != "" {
		return cfg.User.Color
	}
	return string(theme.UserColor(user))
}

func connectErrorText(err error) string {
	switch {
	case errors.Is(err, client.ErrLobbyNotFound):
		return "that lobby does not exist"
	case errors.Is(err, client.ErrLobbyExists):
		return "that lobby already exists"
	case errors.Is(err, client.ErrSessionActive):
		return "already in a lobby; leave it first"
	default:
		return "could not connect: " + err.Error()
	}
}

func sendErrorText(err error) string {
	switch {
	case errors.Is(err, client.ErrEmptyContent):
		return "nothing to send"
	case errors.Is(err, client.ErrNotConnected):
		return "not connected"
	case errors.Is(err, client.ErrMaxRetries):
		return "message failed to send"
	default:
		return "send error: " + err.Error()
	}
}
