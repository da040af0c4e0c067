package signaling

import (
	"sort"
	"strings"
	"sync"

	"github.com/dk59mh974z-afk/open-podcast-lobby/pkg/metrics"
	"github.com/dk59mh974z-afk/open-podcast-lobby/pkg/protocol"
)

// Room is one named broadcast scope. Members are kept in insertion order so
// a joiner's snapshot always lists peers oldest first.
type Room struct {
	id      string
	title   string
	tags    []string
	members []*Conn
}

func (r *Room) addMember(c *Conn) {
	r.members = append(r.members, c)
}

func (r *Room) removeMember(c *Conn) bool {
	for i, m := range r.members {
		if m == c {
			r.members = append(r.members[:i], r.members[i+1:]...)
			return true
		}
	}
	return false
}

// member looks up a current member by connection id.
func (r *Room) member(id string) *Conn {
	for _, m := range r.members {
		if m.id == id {
			return m
		}
	}
	return nil
}

// hasTag reports whether the room carries tag, compared case-insensitively.
func (r *Room) hasTag(tag string) bool {
	for _, t := range r.tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

// summary renders the room as a discovery entry. Tags are copied and never
// nil so the entry marshals with an array, not null.
func (r *Room) summary() protocol.RoomSummary {
	return protocol.RoomSummary{
		RoomID:           r.id,
		Title:            r.title,
		Tags:             append([]string{}, r.tags...),
		ParticipantCount: len(r.members),
	}
}

// Registry is the process-wide room table. It is built once in main and
// shared by reference; its mutex is the single boundary under which the
// router reads and writes all room and member state.
type Registry struct {
	mu    sync.Mutex
	rooms map[string]*Room
}

// NewRegistry returns an empty room table.
func NewRegistry() *Registry {
	return &Registry{rooms: make(map[string]*Room)}
}

// ensure returns the room for id, creating it when absent. Title and tags
// apply only at creation; an existing room keeps its own, and a blank title
// falls back to the id. Callers hold mu.
func (reg *Registry) ensure(id, title string, tags []string) *Room {
	if rm, ok := reg.rooms[id]; ok {
		return rm
	}
	if title == "" {
		title = id
	}
	rm := &Room{id: id, title: title, tags: normalizeTags(tags)}
	reg.rooms[id] = rm
	metrics.RoomsActive.Inc()
	return rm
}

// remove deletes an emptied room from the table. Callers hold mu and must
// have detached the last member first.
func (reg *Registry) remove(id string) {
	if _, ok := reg.rooms[id]; ok {
		delete(reg.rooms, id)
		metrics.RoomsActive.Dec()
	}
}

// summaries lists every room, optionally filtered by tag. Output is sorted
// by room id so repeated listings of unchanged state are identical.
// Callers hold mu.
func (reg *Registry) summaries(tag string) []protocol.RoomSummary {
	out := make([]protocol.RoomSummary, 0, len(reg.rooms))
	for _, rm := range reg.rooms {
		if tag != "" && !rm.hasTag(tag) {
			continue
		}
		out = append(out, rm.summary())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RoomID < out[j].RoomID })
	return out
}

// normalizeTags keeps the first occurrence of each tag and drops empties.
func normalizeTags(tags []string) []string {
	var out []string
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
