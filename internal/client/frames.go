package client

import (
	"encoding/json"
	"fmt"
)

// FrameKind classifies a parsed inbound frame.
type FrameKind int

const (
	FrameUser FrameKind = iota
	FramePresence
	FrameError
)

// Frame is one parsed unit of data received from the socket. Exactly the
// fields relevant to its Kind are populated.
type Frame struct {
	Kind FrameKind

	// User frames. Inbound chat fields are capitalized on the wire, a
	// different casing convention from the outbound ChatMessage shape.
	ID            string
	User          string
	Content       string
	Color         string
	FormattedTime string

	// Presence frames.
	Action  PresenceAction
	Subject string

	// Error frames.
	Message string
}

// rawFrame covers every inbound shape in one pass. Type is kept raw because
// chat/presence frames carry it as a two-element array while error frames
// carry it as the string "error", and Go's decoder matches both keys
// case-insensitively.
type rawFrame struct {
	Type          json.RawMessage `json:"Type"`
	Message       string          `json:"message"`
	ID            string          `json:"ID"`
	User          string          `json:"User"`
	Content       string          `json:"Content"`
	Color         string          `json:"Color"`
	FormattedTime string          `json:"FormattedTime"`
}

// ParseFrame classifies a raw socket payload into a tagged Frame.
func ParseFrame(data []byte) (Frame, error) {
	var raw rawFrame
	if err := json.Unmarshal(data, &raw); err != nil {
		return Frame{}, fmt.Errorf("parse frame: %w", err)
	}

	if len(raw.Type) > 0 {
		var typeStr string
		if json.Unmarshal(raw.Type, &typeStr) == nil {
			if typeStr == "error" {
				return Frame{Kind: FrameError, Message: raw.Message}, nil
			}
		} else {
			var typePair [2]string
			if err := json.Unmarshal(raw.Type, &typePair); err != nil {
				return Frame{}, fmt.Errorf("parse frame type: %w", err)
			}
			if typePair[0] != "" {
				return Frame{
					Kind:          FramePresence,
					Action:        PresenceAction(typePair[0]),
					Subject:       typePair[1],
					User:          raw.User,
					Content:       raw.Content,
					Color:         raw.Color,
					FormattedTime: raw.FormattedTime,
				}, nil
			}
		}
	}

	return Frame{
		Kind:          FrameUser,
		ID:            raw.ID,
		User:          raw.User,
		Content:       raw.Content,
		Color:         raw.Color,
		FormattedTime: raw.FormattedTime,
	}, nil
}
