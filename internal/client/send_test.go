package client

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"
)

// scriptedConn fails WriteMessage according to a script, then succeeds.
type scriptedConn struct {
	mu        sync.Mutex
	writeErrs []error
	payloads  [][]byte
}

func (c *scriptedConn) WriteMessage(_ int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := len(c.payloads)
	c.payloads = append(c.payloads, data)
	if i < len(c.writeErrs) {
		return c.writeErrs[i]
	}
	return nil
}

func (c *scriptedConn) writes() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.payloads)
}

func (c *scriptedConn) last() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.payloads) == 0 {
		return nil
	}
	return c.payloads[len(c.payloads)-1]
}

func (c *scriptedConn) ReadMessage() (int, []byte, error) {
	select {} // never delivers; these tests drive the session directly
}

func (c *scriptedConn) WriteControl(int, []byte, time.Time) error { return nil }
func (c *scriptedConn) Close() error                              { return nil }

// openTestSession builds a session already in the Open state around the given
// connection, with a fixed clock and a short retry delay.
func openTestSession(conn wireConn) *Session {
	s := NewSession(Options{
		User:       "alice",
		Color:      "#fff",
		RetryDelay: time.Millisecond,
		MaxRetries: 3,
	})
	s.state = StateOpen
	s.lobby = "lobbyX"
	s.conn = conn
	s.inflight = make(map[string]struct{})
	s.events = make(chan Event, 16)
	s.done = make(chan struct{})
	s.closeOnce = new(sync.Once)
	s.now = func() time.Time {
		return time.Date(2024, 1, 2, 15, 4, 0, 0, time.UTC)
	}
	return s
}

func TestSendOptimisticAppend(t *testing.T) {
	conn := &scriptedConn{}
	s := openTestSession(conn)

	if err := s.Send(context.Background(), "hello"); err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	log := s.Log()
	if len(log) != 1 {
		t.Fatalf("log length = %d, want 1", len(log))
	}
	got := log[0]
	if got.Author != "alice" || got.Content != "hello" || got.Color != "#fff" || got.Time != "3:04 PM" {
		t.Errorf("entry = %+v", got)
	}

	select {
	case ev := <-s.Events():
		if _, ok := ev.(MessageEvent); !ok {
			t.Errorf("event = %T, want MessageEvent", ev)
		}
	default:
		t.Error("no event emitted for optimistic append")
	}
}

func TestSendRetryBound(t *testing.T) {
	failure := errors.New("write: broken pipe")
	conn := &scriptedConn{writeErrs: []error{failure, failure, failure}}
	s := openTestSession(conn)

	start := time.Now()
	err := s.Send(context.Background(), "hello")
	if !errors.Is(err, ErrMaxRetries) {
		t.Fatalf("Send() error = %v, want ErrMaxRetries", err)
	}
	if got := conn.writes(); got != 3 {
		t.Errorf("attempts = %d, want 3", got)
	}
	if elapsed := time.Since(start); elapsed < 2*time.Millisecond {
		t.Errorf("elapsed = %v, want at least two retry delays", elapsed)
	}
	if len(s.Log()) != 0 {
		t.Errorf("failed send must not appear in the log: %+v", s.Log())
	}
}

func TestSendRecoversWithinBudget(t *testing.T) {
	conn := &scriptedConn{writeErrs: []error{errors.New("transient")}}
	s := openTestSession(conn)

	if err := s.Send(context.Background(), "hello"); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if got := conn.writes(); got != 2 {
		t.Errorf("attempts = %d, want 2", got)
	}
	if len(s.Log()) != 1 {
		t.Errorf("log length = %d, want 1", len(s.Log()))
	}
}

func TestSendEmptyContent(t *testing.T) {
	conn := &scriptedConn{}
	s := openTestSession(conn)

	for _, content := range []string{"", "   ", "\n\t "} {
		if err := s.Send(context.Background(), content); !errors.Is(err, ErrEmptyContent) {
			t.Errorf("Send(%q) error = %v, want ErrEmptyContent", content, err)
		}
	}
	if got := conn.writes(); got != 0 {
		t.Errorf("transmissions = %d, want 0", got)
	}
}

func TestSendNotConnected(t *testing.T) {
	s := NewSession(Options{User: "alice"})
	if err := s.Send(context.Background(), "hello"); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Send() error = %v, want ErrNotConnected", err)
	}
}

func TestSendGroupsRapidMessages(t *testing.T) {
	conn := &scriptedConn{}
	s := openTestSession(conn)

	if err := s.Send(context.Background(), "hello"); err != nil {
		t.Fatal(err)
	}
	if err := s.Send(context.Background(), "there"); err != nil {
		t.Fatal(err)
	}

	log := s.Log()
	if len(log) != 1 {
		t.Fatalf("log length = %d, want 1 (grouped)", len(log))
	}
	if log[0].Content != "hello\nthere" {
		t.Errorf("content = %q", log[0].Content)
	}
}

func TestEchoSuppression(t *testing.T) {
	conn := &scriptedConn{}
	s := openTestSession(conn)

	if err := s.Send(context.Background(), "hello"); err != nil {
		t.Fatal(err)
	}

	var sent ChatMessage
	if err := json.Unmarshal(conn.last(), &sent); err != nil {
		t.Fatal(err)
	}
	if sent.ID == "" {
		t.Fatal("outbound message missing correlation id")
	}

	// The server echo of our own message must not duplicate the optimistic
	// entry.
	if _, ok := s.foldRemote(Frame{Kind: FrameUser, ID: sent.ID, User: "alice", Content: "hello", FormattedTime: "3:04 PM"}); ok {
		t.Error("own echo was folded into the log")
	}
	if len(s.Log()) != 1 {
		t.Errorf("log length = %d, want 1", len(s.Log()))
	}

	// A frame from someone else folds normally.
	if _, ok := s.foldRemote(Frame{Kind: FrameUser, ID: "other", User: "rex", Content: "yo", FormattedTime: "3:04 PM"}); !ok {
		t.Error("remote frame was not folded")
	}
	if len(s.Log()) != 2 {
		t.Errorf("log length = %d, want 2", len(s.Log()))
	}
}

func TestSendStopsOnTeardown(t *testing.T) {
	failure := errors.New("write: broken pipe")
	conn := &scriptedConn{writeErrs: []error{failure, failure, failure}}
	s := openTestSession(conn)
	s.opts.RetryDelay = time.Hour // force the retry wait to block

	errCh := make(chan error, 1)
	go func() { errCh <- s.Send(context.Background(), "hello") }()

	time.Sleep(10 * time.Millisecond)
	s.Disconnect("leaving")

	select {
	case err := <-errCh:
		if !errors.Is(err, ErrNotConnected) {
			t.Errorf("Send() error = %v, want ErrNotConnected", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("retry loop did not stop on teardown")
	}
}
