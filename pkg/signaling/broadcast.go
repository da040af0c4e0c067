package signaling

import (
	"encoding/json"

	"github.com/dk59mh974z-afk/open-podcast-lobby/pkg/metrics"
)

// selector decides which members of a room receive a frame.
type selector func(*Conn) bool

func toAll(*Conn) bool { return true }

func toAllExcept(id string) selector {
	return func(c *Conn) bool { return c.id != id }
}

func toRole(role Role) selector {
	return func(c *Conn) bool { return c.role == role }
}

func toPeer(id string) selector {
	return func(c *Conn) bool { return c.id == id }
}

// deliver fans v out to the selected members of rm. The payload is
// marshaled once and shared across members. Returns how many members took
// the frame; a member whose buffer is full is skipped, not waited on.
func deliver(rm *Room, v any, sel selector) int {
	data, err := json.Marshal(v)
	if err != nil {
		return 0
	}
	return deliverRaw(rm, data, sel)
}

// deliverRaw is deliver for a pre-marshaled frame, used by the signal relay
// to forward payloads without re-encoding them.
func deliverRaw(rm *Room, data []byte, sel selector) int {
	n := 0
	for _, m := range rm.members {
		if !sel(m) {
			continue
		}
		if m.enqueue(data) {
			n++
		}
	}
	if n > 0 {
		metrics.Deliveries.Add(float64(n))
	}
	return n
}
