package signaling

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/gorilla/websocket"
)

// Role of a participant inside its current room.
type Role string

const (
	RoleHost     Role = "host"
	RoleListener Role = "listener"
)

const (
	maxNameRunes = 40
	defaultName  = "Anonymous"
)

// Conn tracks one participant for the lifetime of its transport connection.
// The room fields (role, name, handRaised, canSpeak, room) are guarded by
// the Registry mutex; the send channel is the only way to hand the write
// pump a frame.
type Conn struct {
	id     string
	ws     *websocket.Conn
	send   chan []byte
	ctx    context.Context
	cancel context.CancelFunc

	role       Role
	name       string
	handRaised bool
	canSpeak   bool
	room       *Room
}

// ID returns the server-assigned connection id.
func (c *Conn) ID() string { return c.id }

// enqueue hands a pre-marshaled frame to the write pump without blocking.
// A full buffer means the frame is dropped; the router never waits on a
// slow peer's transport.
func (c *Conn) enqueue(data []byte) bool {
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

// sendJSON marshals v and enqueues it for c.
func (c *Conn) sendJSON(v any) bool {
	data, err := json.Marshal(v)
	if err != nil {
		return false
	}
	return c.enqueue(data)
}

// resetToListener restores the defaults a connection holds outside any
// room: listener role, no speak grant, hand lowered, no membership.
func (c *Conn) resetToListener() {
	c.role = RoleListener
	c.canSpeak = false
	c.handRaised = false
	c.room = nil
}

// sanitizeName trims a client-supplied display name, caps it at
// maxNameRunes, and substitutes the anonymous default for an empty result.
func sanitizeName(raw string) string {
	name := strings.TrimSpace(raw)
	if name == "" {
		return defaultName
	}
	if runes := []rune(name); len(runes) > maxNameRunes {
		name = string(runes[:maxNameRunes])
	}
	return name
}
