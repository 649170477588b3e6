package client

import "errors"

// Connection errors. None of these are retried automatically; a failed join is
// not self-healing and must be resolved by a fresh Connect.
var (
	ErrLobbyNotFound    = errors.New("lobby does not exist")
	ErrLobbyExists      = errors.New("lobby already exists")
	ErrCheckFailed      = errors.New("lobby check failed")
	ErrClosedBeforeOpen = errors.New("channel closed before opening")
	ErrSessionActive    = errors.New("another lobby session is active")
)

// Send errors. ErrNotConnected and ErrEmptyContent are terminal without any
// transmission attempt; ErrMaxRetries is terminal after the retry budget.
var (
	ErrNotConnected = errors.New("not connected to a lobby")
	ErrEmptyContent = errors.New("message is empty")
	ErrMaxRetries   = errors.New("max send retries exceeded")
)
