// Package server is the in-memory lobby broadcast server used by warpd and by
// the client integration tests. Lobbies live only as long as their members;
// there is no persistence layer.
package server

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/gschussler/warpsockets/internal/client"
)

// systemColor is the color stamped on presence announcements.
const systemColor = "#b5b3b0"

// defaultHistoryCap bounds the number of messages replayed to a joining member.
const defaultHistoryCap = 50

// Message is the wire shape broadcast to lobby members. Field names are not
// tagged: the capitalized keys are the protocol the client parses.
type Message struct {
	ID            string
	Type          [2]string
	Lobby         string
	User          string
	Content       string
	Color         string
	Time          time.Time
	FormattedTime string
}

// inbound is the chat shape members write to the server.
type inbound struct {
	ID      string `json:"id"`
	Lobby   string `json:"lobby"`
	User    string `json:"user"`
	Content string `json:"content"`
	Color   string `json:"color"`
}

// member is one connected user. Writes go through a buffered channel and a
// single write pump so broadcasts never block on a slow connection.
type member struct {
	user string
	conn *websocket.Conn
	send chan []byte
}

func newMember(user string, conn *websocket.Conn) *member {
	m := &member{
		user: user,
		conn: conn,
		send: make(chan []byte, 64),
	}
	go m.writePump()
	return m
}

func (m *member) writePump() {
	defer m.conn.Close()
	for msg := range m.send {
		if err := m.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}

func (m *member) close() {
	close(m.send)
}

type lobby struct {
	members []*member
	history [][]byte
}

// Hub owns the lobby registry. Empty lobbies are dropped as their last member
// leaves.
type Hub struct {
	mu         sync.Mutex
	lobbies    map[string]*lobby
	historyCap int
	now        func() time.Time
	log        zerolog.Logger
}

// NewHub creates a hub. historyCap <= 0 uses the default replay cap.
func NewHub(historyCap int, log zerolog.Logger) *Hub {
	if historyCap <= 0 {
		historyCap = defaultHistoryCap
	}
	return &Hub{
		lobbies:    make(map[string]*lobby),
		historyCap: historyCap,
		now:        time.Now,
		log:        log,
	}
}

// Exists reports whether the named lobby currently has members.
func (h *Hub) Exists(name string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.lobbies[name]
	return ok
}

// Run serves one member connection until it closes. The first frame must be a
// join request; after that every frame is a chat message stamped and broadcast
// to the whole lobby, sender included.
func (h *Hub) Run(conn *websocket.Conn) {
	defer conn.Close()

	var join client.JoinRequest
	if err := conn.ReadJSON(&join); err != nil {
		h.log.Warn().Err(err).Msg("member left before joining a lobby")
		return
	}
	if join.Lobby == "" || join.User == "" {
		h.log.Warn().Msg("join frame missing lobby or user")
		return
	}

	m := newMember(join.User, conn)
	h.admit(join.Lobby, m)
	h.log.Info().Str("lobby", join.Lobby).Str("user", join.User).Msg("member joined")

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			h.depart(join.Lobby, m)
			h.log.Info().Str("lobby", join.Lobby).Str("user", join.User).Msg("member left")
			return
		}

		var in inbound
		if err := json.Unmarshal(data, &in); err != nil {
			h.log.Warn().Err(err).Msg("malformed chat frame")
			conn.WriteJSON(map[string]string{
				"type":    "error",
				"message": "An internal error caused you to lose connection to your lobby.",
			})
			h.depart(join.Lobby, m)
			return
		}

		id := in.ID
		if id == "" {
			id = uuid.NewString()
		}
		now := h.now()
		h.broadcast(join.Lobby, Message{
			ID:            id,
			Lobby:         join.Lobby,
			User:          join.User,
			Content:       in.Content,
			Color:         in.Color,
			Time:          now,
			FormattedTime: now.Format(client.TimeLayout),
		})
	}
}

// admit adds a member to a lobby (creating it if needed), replays recent
// history to them, and announces the arrival to everyone.
func (h *Hub) admit(name string, m *member) {
	h.mu.Lock()
	l, ok := h.lobbies[name]
	if !ok {
		l = &lobby{}
		h.lobbies[name] = l
	}
	l.members = append(l.members, m)
	for _, msg := range l.history {
		select {
		case m.send <- msg:
		default:
		}
	}
	h.mu.Unlock()

	h.broadcast(name, h.systemMessage(name, m.user, client.PresenceArrived))
}

// depart removes a member; the lobby is dropped when it empties, otherwise the
// departure is announced.
func (h *Hub) depart(name string, m *member) {
	h.mu.Lock()
	l, ok := h.lobbies[name]
	if !ok {
		h.mu.Unlock()
		return
	}
	for i, other := range l.members {
		if other == m {
			l.members = append(l.members[:i], l.members[i+1:]...)
			m.close()
			break
		}
	}
	empty := len(l.members) == 0
	if empty {
		delete(h.lobbies, name)
	}
	h.mu.Unlock()

	if !empty {
		h.broadcast(name, h.systemMessage(name, m.user, client.PresenceDeparted))
	}
}

// broadcast serializes a message, appends it to lobby history, and fans it out
// to every member.
func (h *Hub) broadcast(name string, msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.log.Error().Err(err).Msg("serialize broadcast")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	l, ok := h.lobbies[name]
	if !ok {
		return
	}
	l.history = append(l.history, data)
	if len(l.history) > h.historyCap {
		l.history = l.history[len(l.history)-h.historyCap:]
	}
	for _, m := range l.members {
		select {
		case m.send <- data:
		default:
			h.log.Warn().Str("user", m.user).Msg("member send buffer full, dropping")
		}
	}
}

func (h *Hub) systemMessage(name, user string, action client.PresenceAction) Message {
	now := h.now()
	return Message{
		ID:            uuid.NewString(),
		Type:          [2]string{string(action), user},
		Lobby:         name,
		User:          client.SystemAuthor,
		Content:       fmt.Sprintf("%s has %s.", user, action),
		Color:         systemColor,
		Time:          now,
		FormattedTime: now.Format(client.TimeLayout),
	}
}
