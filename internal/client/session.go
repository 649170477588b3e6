package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// State is the lifecycle state of a lobby session.
type State int

const (
	StateIdle State = iota
	StateConnecting
	StateOpen
	StateClosing
	StateClosed
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// terminal reports whether a fresh Connect may replace this state.
func (s State) terminal() bool {
	return s == StateIdle || s == StateClosed || s == StateFailed
}

// wireConn is the slice of *websocket.Conn the session uses. Kept as an
// interface so the send pipeline can be exercised against scripted failures.
type wireConn interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(messageType int, data []byte) error
	WriteControl(messageType int, data []byte, deadline time.Time) error
	Close() error
}

// Event is a typed notification delivered on the session's single-consumer
// event channel. Concrete types: MessageEvent, PresenceEvent,
// DisconnectedEvent.
type Event any

// MessageEvent carries the conversation log after a chat frame was folded in.
type MessageEvent struct {
	Log []Entry
}

// PresenceEvent carries a presence change, the resulting user set, and the
// log including the synthesized system announcement.
type PresenceEvent struct {
	Action PresenceAction
	User   string
	Users  []string
	Log    []Entry
}

// DisconnectedEvent signals that the channel closed without an explicit
// Disconnect. The session does not reconnect on its own.
type DisconnectedEvent struct {
	Err error
}

// Options configures a session. Zero values fall back to defaults in
// NewSession.
type Options struct {
	ServerURL string // HTTP base URL of the warpd server
	User      string
	Color     string
	Action    string // "join" or "create"; defaults to "join"

	RetryDelay time.Duration // delay between send attempts; defaults to 1s
	MaxRetries int           // send attempts per message; defaults to 3

	Logger zerolog.Logger
}

// Session owns one lobby membership: the socket, the conversation log, the
// presence set, and any in-flight sends. A session holds at most one open
// channel; joining a different lobby requires the current membership to reach
// a terminal state first.
type Session struct {
	opts    Options
	checker *Checker
	now     func() time.Time

	mu           sync.Mutex
	state        State
	lobby        string
	conn         wireConn
	log          []Entry
	presence     PresenceSet
	inflight     map[string]struct{} // correlation ids of sends awaiting echo
	events       chan Event
	eventsClosed bool
	connectDone  chan struct{}
	connectErr   error
	done         chan struct{} // closed on teardown; stops retry loops
	closeOnce    *sync.Once

	writeMu sync.Mutex // serialises all conn writes
}

// NewSession creates a session client for the given server. No network
// activity happens until Connect.
func NewSession(opts Options) *Session {
	if opts.Action == "" {
		opts.Action = "join"
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = time.Second
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 3
	}
	return &Session{
		opts:    opts,
		checker: NewChecker(opts.ServerURL),
		now:     time.Now,
	}
}

// Connect establishes membership in the named lobby. It verifies the lobby
// with the server, opens the socket, writes the join frame, and returns once
// the channel is open. Calling Connect while already open in the same lobby
// is a no-op; a concurrent Connect for the same lobby collapses onto the
// in-flight attempt; a Connect for a different lobby fails with
// ErrSessionActive until the current membership is terminal.
func (s *Session) Connect(ctx context.Context, lobby string) error {
	s.mu.Lock()
	switch s.state {
	case StateOpen:
		active := s.lobby
		s.mu.Unlock()
		if active == lobby {
			return nil
		}
		return ErrSessionActive
	case StateConnecting:
		if s.lobby != lobby {
			s.mu.Unlock()
			return ErrSessionActive
		}
		done := s.connectDone
		s.mu.Unlock()
		select {
		case <-done:
			s.mu.Lock()
			err := s.connectErr
			s.mu.Unlock()
			return err
		case <-ctx.Done():
			return ctx.Err()
		}
	case StateClosing:
		s.mu.Unlock()
		return ErrSessionActive
	}

	// Fresh membership: discard anything from a prior session.
	s.state = StateConnecting
	s.lobby = lobby
	s.log = nil
	s.presence = PresenceSet{}
	s.inflight = make(map[string]struct{})
	s.events = make(chan Event, 256)
	s.eventsClosed = false
	s.done = make(chan struct{})
	s.closeOnce = new(sync.Once)
	done := make(chan struct{})
	s.connectDone = done
	s.mu.Unlock()

	conn, err := s.dial(ctx, lobby)

	s.mu.Lock()
	s.connectErr = err
	if err != nil {
		s.state = StateFailed
		close(done)
		s.mu.Unlock()
		return err
	}
	s.state = StateOpen
	s.conn = conn
	close(done)
	s.mu.Unlock()

	s.opts.Logger.Info().Str("lobby", lobby).Str("user", s.opts.User).Msg("channel open")
	go s.dispatch(conn)
	return nil
}

// dial runs the existence check, opens the socket, and writes the join frame.
func (s *Session) dial(ctx context.Context, lobby string) (wireConn, error) {
	if err := s.checker.Check(ctx, s.opts.Action, s.opts.User, lobby); err != nil {
		return nil, err
	}

	wsURL, err := deriveWSURL(s.opts.ServerURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCheckFailed, err)
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrClosedBeforeOpen, err)
	}

	payload, err := json.Marshal(JoinRequest{Action: s.opts.Action, User: s.opts.User, Lobby: lobby})
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("%w: %v", ErrClosedBeforeOpen, err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		conn.Close()
		return nil, fmt.Errorf("%w: %v", ErrClosedBeforeOpen, err)
	}
	return conn, nil
}

// Disconnect requests graceful closure with the given reason and tears the
// membership down atomically: retry loops stop, the channel closes, and the
// log, presence set, and pending sends are discarded together. Safe to call
// when no session exists.
func (s *Session) Disconnect(reason string) {
	s.mu.Lock()
	if s.state.terminal() {
		s.mu.Unlock()
		return
	}
	s.state = StateClosing
	conn := s.conn
	once := s.closeOnce
	doneCh := s.done
	s.mu.Unlock()

	if once != nil {
		once.Do(func() { close(doneCh) })
	}
	if conn != nil {
		deadline := time.Now().Add(time.Second)
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason), deadline)
		conn.Close()
	}

	s.mu.Lock()
	s.state = StateClosed
	s.conn = nil
	s.log = nil
	s.presence = PresenceSet{}
	s.inflight = nil
	s.mu.Unlock()

	s.opts.Logger.Info().Str("reason", reason).Msg("channel closed")
}

// dispatch is the single per-session loop that reads frames in arrival order
// and fans them out: chat frames fold into the log, presence frames update
// the user set, error frames end the session. Exactly one event is emitted
// per consumed frame.
func (s *Session) dispatch(conn wireConn) {
	defer s.closeEvents()
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			s.handleClose(err)
			return
		}

		frame, perr := ParseFrame(data)
		if perr != nil {
			s.opts.Logger.Warn().Err(perr).Msg("dropping malformed frame")
			continue
		}

		switch frame.Kind {
		case FrameError:
			s.opts.Logger.Error().Str("message", frame.Message).Msg("server error frame")
			conn.Close()
			s.fail(fmt.Errorf("server error: %s", frame.Message))
			return
		case FramePresence:
			s.emit(s.foldPresence(frame))
		case FrameUser:
			if ev, ok := s.foldRemote(frame); ok {
				s.emit(ev)
			}
		}
	}
}

// handleClose resolves a read-loop exit. A closure the client did not request
// surfaces as a DisconnectedEvent; a requested one stays silent.
func (s *Session) handleClose(err error) {
	s.mu.Lock()
	requested := s.state == StateClosing || s.state == StateClosed
	if !requested {
		s.state = StateClosed
		s.conn = nil
	}
	once := s.closeOnce
	doneCh := s.done
	s.mu.Unlock()

	if once != nil {
		once.Do(func() { close(doneCh) })
	}
	if !requested {
		s.opts.Logger.Warn().Err(err).Msg("unexpected close")
		s.emit(DisconnectedEvent{Err: err})
	}
}

// fail ends the session after a fatal server error frame.
func (s *Session) fail(err error) {
	s.mu.Lock()
	s.state = StateFailed
	s.conn = nil
	once := s.closeOnce
	doneCh := s.done
	s.mu.Unlock()

	if once != nil {
		once.Do(func() { close(doneCh) })
	}
	s.emit(DisconnectedEvent{Err: err})
}

// foldPresence applies a presence frame to the user set and synthesizes the
// system announcement entry.
func (s *Session) foldPresence(f Frame) PresenceEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.presence.Apply(f.Action, f.Subject)
	s.log = Reduce(s.log, entryFromFrame(f))
	return PresenceEvent{
		Action: f.Action,
		User:   f.Subject,
		Users:  s.presence.Users(),
		Log:    s.log,
	}
}

// foldRemote folds an inbound chat frame into the log. Echoes of our own
// sends are identified by correlation id and suppressed, since the optimistic
// append already displayed them.
func (s *Session) foldRemote(f Frame) (MessageEvent, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if f.ID != "" {
		if _, ours := s.inflight[f.ID]; ours {
			delete(s.inflight, f.ID)
			return MessageEvent{}, false
		}
	}
	s.log = Reduce(s.log, entryFromFrame(f))
	return MessageEvent{Log: s.log}, true
}

// closeEvents ends the event subscription; it lives exactly as long as the
// membership's dispatch loop.
func (s *Session) closeEvents() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.events != nil && !s.eventsClosed {
		s.eventsClosed = true
		close(s.events)
	}
}

// emit delivers an event without blocking the dispatch loop. The channel is
// buffered generously; a stalled consumer loses events rather than stalling
// frame processing.
func (s *Session) emit(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.events == nil || s.eventsClosed {
		return
	}
	select {
	case s.events <- ev:
	default:
		s.opts.Logger.Warn().Msg("event consumer stalled, dropping event")
	}
}

// Events returns the session's event channel. It is closed when the
// membership ends; the next Connect allocates a fresh channel.
func (s *Session) Events() <-chan Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.events
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Lobby returns the lobby of the current membership.
func (s *Session) Lobby() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lobby
}

// Log returns the current conversation log snapshot. Snapshots are immutable;
// later folds copy on write.
func (s *Session) Log() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.log
}

// Users returns the current presence snapshot in arrival order.
func (s *Session) Users() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.presence.Users()
}

// deriveWSURL converts http://host:port → ws://host:port/ws.
func deriveWSURL(base string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	switch {
	case u.Scheme == "https" || strings.HasPrefix(u.Scheme, "wss"):
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = "/ws"
	return u.String(), nil
}
