package app

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/gschussler/warpsockets/internal/client"
	"github.com/gschussler/warpsockets/internal/config"
)

func newTestModel(t *testing.T) Model {
	t.Helper()
	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	m := New(cfg, zerolog.Nop(), "join", "nova", "orbit")
	um, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	return um.(Model)
}

// connected moves the model into the lobby view around an undialed session,
// which is enough for view routing and event handling.
func connected(t *testing.T, m Model) Model {
	t.Helper()
	m.session = client.NewSession(client.Options{User: "nova"})
	um, _ := m.Update(ConnectedMsg{})
	return um.(Model)
}

func TestWelcomeIsInitialView(t *testing.T) {
	m := newTestModel(t)
	out := m.View()
	if !strings.Contains(out, "warpsockets") || !strings.Contains(out, "lobby") {
		t.Errorf("welcome view = %q", out)
	}
}

func TestConnectFailedShowsError(t *testing.T) {
	m := newTestModel(t)
	m.welcome.SetConnecting(true)

	um, _ := m.Update(ConnectFailedMsg{Err: client.ErrLobbyNotFound})
	m = um.(Model)

	if !strings.Contains(m.View(), "that lobby does not exist") {
		t.Error("connect failure not surfaced on the form")
	}
}

func TestConnectedSwitchesToLobby(t *testing.T) {
	m := connected(t, newTestModel(t))
	if m.active != viewLobby {
		t.Fatalf("active view = %v, want lobby", m.active)
	}
	if !strings.Contains(m.View(), "enter:send") {
		t.Error("lobby view not rendered")
	}
}

func TestSessionEventsUpdateLobby(t *testing.T) {
	m := connected(t, newTestModel(t))

	um, _ := m.Update(SessionEventMsg{Event: client.MessageEvent{Log: []client.Entry{
		{Author: "rex", Content: "yo", Time: "3:02 PM", Kind: client.EntryUser},
	}}})
	m = um.(Model)
	if out := m.View(); !strings.Contains(out, "rex") || !strings.Contains(out, "yo") {
		t.Error("message event not rendered")
	}

	um, _ = m.Update(SessionEventMsg{Event: client.DisconnectedEvent{Err: errors.New("gone")}})
	m = um.(Model)
	if !strings.Contains(m.View(), "Signal Lost") {
		t.Error("disconnect event not rendered")
	}
}

func TestSendResultSurfacesAndClears(t *testing.T) {
	m := connected(t, newTestModel(t))

	um, _ := m.Update(SendResultMsg{Err: client.ErrMaxRetries})
	m = um.(Model)
	if !strings.Contains(m.View(), "message failed to send") {
		t.Error("send failure not rendered")
	}

	um, _ = m.Update(SendResultMsg{})
	m = um.(Model)
	if strings.Contains(m.View(), "message failed to send") {
		t.Error("send failure should clear on the next success")
	}
}

func TestConnectErrorText(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{client.ErrLobbyNotFound, "that lobby does not exist"},
		{client.ErrLobbyExists, "that lobby already exists"},
		{client.ErrSessionActive, "already in a lobby; leave it first"},
		{errors.New("dial tcp: refused"), "could not connect: dial tcp: refused"},
	}
	for _, tt := range tests {
		if got := connectErrorText(tt.err); got != tt.want {
			t.Errorf("connectErrorText(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestSendErrorText(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{client.ErrEmptyContent, "nothing to send"},
		{client.ErrNotConnected, "not connected"},
		{client.ErrMaxRetries, "message failed to send"},
	}
	for _, tt := range tests {
		if got := sendErrorText(tt.err); got != tt.want {
			t.Errorf("sendErrorText(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestUserColorPrefersConfig(t *testing.T) {
	cfg := &config.Config{}
	cfg.User.Color = "#123456"
	if got := userColor(cfg, "nova"); got != "#123456" {
		t.Errorf("userColor = %q, want configured color", got)
	}

	cfg.User.Color = ""
	if got := userColor(cfg, "nova"); got == "" {
		t.Error("userColor should fall back to the palette")
	}
	// Deterministic per user.
	if userColor(cfg, "nova") != userColor(cfg, "nova") {
		t.Error("palette color should be stable for a user")
	}
}
