package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Checker performs the pre-connection lobby existence check against the warpd
// HTTP surface. The session never dials the socket until this check passes.
type Checker struct {
	baseURL string
	client  *http.Client
}

// NewChecker creates a checker targeting the given base URL
// (e.g. "http://127.0.0.1:8085").
func NewChecker(baseURL string) *Checker {
	return &Checker{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// Check posts the join/create intent to /check-lobby. A conflict maps to
// ErrLobbyNotFound or ErrLobbyExists depending on the action; any other
// non-2xx status wraps ErrCheckFailed.
func (c *Checker) Check(ctx context.Context, action, user, lobby string) error {
	payload, err := json.Marshal(JoinRequest{Action: action, User: user, Lobby: lobby})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCheckFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/check-lobby", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCheckFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCheckFailed, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusConflict || resp.StatusCode == http.StatusNotFound:
		if action == "create" {
			return ErrLobbyExists
		}
		return ErrLobbyNotFound
	default:
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%w: %d %s", ErrCheckFailed, resp.StatusCode, string(body))
	}
}
