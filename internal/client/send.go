package client

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Send transmits a chat message on the open channel. Whitespace-only content
// is rejected before any network activity. Transient write failures are
// retried up to the configured budget with a fixed delay between attempts;
// only the terminal outcome is surfaced. On the first successful attempt the
// message is folded into the conversation log optimistically, before Send
// returns, so the sender never waits on the server echo.
//
// Sends are independent: each call runs its own retry loop and successful
// sends fold into the log in completion order. Leaving the lobby stops
// in-flight retry loops.
func (s *Session) Send(ctx context.Context, content string) error {
	s.mu.Lock()
	if s.state != StateOpen {
		s.mu.Unlock()
		return ErrNotConnected
	}
	conn := s.conn
	lobby := s.lobby
	doneCh := s.done
	s.mu.Unlock()

	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return ErrEmptyContent
	}

	msg := ChatMessage{
		ID:      uuid.NewString(),
		Lobby:   lobby,
		User:    s.opts.User,
		Content: trimmed,
		Color:   s.opts.Color,
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}

	for attempt := 1; attempt <= s.opts.MaxRetries; attempt++ {
		s.writeMu.Lock()
		err = conn.WriteMessage(websocket.TextMessage, payload)
		s.writeMu.Unlock()
		if err == nil {
			if ev, ok := s.foldLocal(msg); ok {
				s.emit(ev)
			}
			return nil
		}

		s.opts.Logger.Error().Err(err).Int("attempt", attempt).Msg("send failed")
		if attempt == s.opts.MaxRetries {
			break
		}
		select {
		case <-time.After(s.opts.RetryDelay):
		case <-doneCh:
			return ErrNotConnected
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return fmt.Errorf("%w (%d attempts): %v", ErrMaxRetries, s.opts.MaxRetries, err)
}

// foldLocal appends the optimistic entry for a message we just transmitted,
// stamped with the local minute-granularity time, and records its correlation
// id so the server echo can be suppressed. The fold is skipped when the
// session was torn down while the write was in flight.
func (s *Session) foldLocal(msg ChatMessage) (MessageEvent, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inflight == nil {
		return MessageEvent{}, false
	}
	s.inflight[msg.ID] = struct{}{}
	s.log = Reduce(s.log, Entry{
		Author:  msg.User,
		Content: msg.Content,
		Color:   msg.Color,
		Time:    s.now().Format(TimeLayout),
		Kind:    EntryUser,
	})
	return MessageEvent{Log: s.log}, true
}
