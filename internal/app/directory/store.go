// Package directory mirrors live room summaries into Redis so operators can
// inspect the lobby without attaching to the process. The mirror is
// write-only and best effort: authoritative room state lives in memory, a
// lost update is merely stale until the next one, and nothing is ever read
// back into the server.
package directory

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/dk59mh974z-afk/open-podcast-lobby/pkg/protocol"
)

const defaultPrefix = "podlobby"

// Store publishes room summaries into a single Redis hash keyed by room id.
// Writes are applied by one worker goroutine; Publish and Forget never
// block the caller.
type Store struct {
	rdb     *redis.Client
	key     string
	log     *slog.Logger
	updates chan update
}

type update struct {
	roomID string
	// payload nil means remove the entry.
	payload []byte
}

// New builds a Store under the given key prefix and starts its worker. The
// worker stops when ctx is canceled.
func New(ctx context.Context, rdb *redis.Client, prefix string, log *slog.Logger) *Store {
	p := strings.TrimSuffix(strings.TrimSpace(prefix), ":")
	if p == "" {
		p = defaultPrefix
	}
	s := &Store{
		rdb:     rdb,
		key:     p + ":rooms",
		log:     log,
		updates: make(chan update, 64),
	}
	go s.run(ctx)
	return s
}

// Reset clears summaries left behind by a previous process. Called once at
// boot, before any room exists.
func (s *Store) Reset(ctx context.Context) error {
	return s.rdb.Del(ctx, s.key).Err()
}

// Publish queues a summary for the mirror. An update that cannot be queued
// is dropped; the next change to the same room supersedes it anyway.
func (s *Store) Publish(summary protocol.RoomSummary) {
	payload, err := json.Marshal(summary)
	if err != nil {
		return
	}
	select {
	case s.updates <- update{roomID: summary.RoomID, payload: payload}:
	default:
	}
}

// Forget queues removal of a deleted room from the mirror.
func (s *Store) Forget(roomID string) {
	select {
	case s.updates <- update{roomID: roomID}:
	default:
	}
}

func (s *Store) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case u := <-s.updates:
			var err error
			if u.payload == nil {
				err = s.rdb.HDel(ctx, s.key, u.roomID).Err()
			} else {
				err = s.rdb.HSet(ctx, s.key, u.roomID, u.payload).Err()
			}
			if err != nil {
				s.log.Debug("directory.write", "room", u.roomID, "err", err)
			}
		}
	}
}
