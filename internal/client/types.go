// Package client implements the lobby session client: socket lifecycle,
// the outbound send pipeline, inbound frame reduction and grouping, presence
// tracking, and scroll-follow arbitration. Types mirror the warpd wire
// protocol without importing server packages.
package client

// JoinRequest is the first frame written after the socket opens. It binds the
// connection to a lobby membership on the server side.
type JoinRequest struct {
	Action string `json:"action"` // "join" or "create"
	User   string `json:"user"`
	Lobby  string `json:"lobby"`
}

// ChatMessage is the outbound chat shape. ID is a client-generated correlation
// id used to suppress the server's echo of our own message.
type ChatMessage struct {
	ID      string `json:"id,omitempty"`
	Lobby   string `json:"lobby"`
	User    string `json:"user"`
	Content string `json:"content"`
	Color   string `json:"color"`
}

// PresenceAction is the kind of presence change carried by a system frame.
type PresenceAction string

const (
	PresenceArrived  PresenceAction = "arrived"
	PresenceDeparted PresenceAction = "departed"
)

// SystemAuthor is the author name the server stamps on presence announcements.
const SystemAuthor = "System"

// TimeLayout is the minute-granularity display format shared with the server.
// Two messages with equal formatted times landed in the same minute.
const TimeLayout = "3:04 PM"
