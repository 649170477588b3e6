package lobby

import (
	"fmt"
	"strings"
	"testing"

	"github.com/gschussler/warpsockets/internal/client"
)

func newTestModel() Model {
	m := New("orbit", "nova", 2, 160)
	m.SetSize(60, 12)
	return m
}

func TestViewEmptyLog(t *testing.T) {
	m := newTestModel()
	if !strings.Contains(m.View(), "For a moment in time") {
		t.Error("empty log should render the idle line")
	}
}

func TestViewRendersGroupedEntries(t *testing.T) {
	m := newTestModel()
	m.SetLog([]client.Entry{
		{Author: "System", Content: "nova has arrived.", Time: "3:01 PM", Kind: client.EntrySystem},
		{Author: "nova", Content: "hi\nthere", Color: "#fff", Time: "3:01 PM", Kind: client.EntryUser},
	})

	out := m.View()
	for _, want := range []string{"nova has arrived.", "nova", "hi", "there", "3:01 PM"} {
		if !strings.Contains(out, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestPillAppearsWhenScrolledBack(t *testing.T) {
	m := newTestModel()

	// Alternating authors so nothing groups; enough entries to overflow the
	// viewport.
	var entries []client.Entry
	for i := 0; i < 30; i++ {
		entries = append(entries, client.Entry{
			Author:  fmt.Sprintf("user%d", i%2),
			Content: fmt.Sprintf("message %d", i),
			Time:    "3:01 PM",
			Kind:    client.EntryUser,
		})
	}
	m.SetLog(entries)
	if m.NewMessagesPending() {
		t.Fatal("pill visible while following")
	}

	// Reader scrolls to the top, then a new message lands.
	m.viewport.GotoTop()
	m.syncOffset()
	m.SetLog(append(entries, client.Entry{
		Author: "late", Content: "anyone here?", Time: "3:02 PM", Kind: client.EntryUser,
	}))

	if !m.NewMessagesPending() {
		t.Fatal("pill should appear for a scrolled-back reader")
	}
	if !strings.Contains(m.View(), "New Messages") {
		t.Error("view missing the new-messages pill")
	}

	m.JumpToNewest()
	if m.NewMessagesPending() {
		t.Error("pill should clear after jumping to newest")
	}
	if m.viewport.YOffset == 0 {
		t.Error("jump should scroll to the bottom")
	}
}

func TestConsumeInput(t *testing.T) {
	m := newTestModel()
	m.composer.SetValue("hello")

	if got := m.ConsumeInput(); got != "hello" {
		t.Errorf("ConsumeInput() = %q", got)
	}
	if got := m.ConsumeInput(); got != "" {
		t.Errorf("composer not cleared, got %q", got)
	}
}

func TestUserOverlay(t *testing.T) {
	m := newTestModel()
	m.SetUsers([]string{"nova", "rex"})

	if strings.Contains(m.View(), "rex") {
		t.Fatal("userlist rendered while hidden")
	}

	m.ToggleUsers()
	out := m.View()
	if !strings.Contains(out, "rex") || !strings.Contains(out, "nova (you)") {
		t.Errorf("overlay missing members:\n%s", out)
	}
}

func TestDisconnectedBanner(t *testing.T) {
	m := newTestModel()
	m.SetDisconnected(true)
	if !strings.Contains(m.View(), "Signal Lost") {
		t.Error("view missing the signal-lost banner")
	}
}

func TestSendErrorCue(t *testing.T) {
	m := newTestModel()
	m.SetSendError("message failed to send")
	if !strings.Contains(m.View(), "message failed to send") {
		t.Error("view missing the send error cue")
	}
	m.SetSendError("")
	if strings.Contains(m.View(), "message failed to send") {
		t.Error("send error cue should clear")
	}
}
