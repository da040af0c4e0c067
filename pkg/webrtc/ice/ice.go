package ice

import (
	"log/slog"
	"os"
	"strings"

	"github.com/dk59mh974z-afk/open-podcast-lobby/pkg/protocol"
)

const defaultSTUN = "stun:stun.l.google.com:19302"

// LoadFromEnv parses the ICE advertisement from environment variables.
//
// Env vars:
// - STUN_URLS: comma-separated STUN URLs
// - TURN_URLS: comma-separated TURN URLs
// - TURN_USERNAME / TURN_PASSWORD: TURN credentials (if required)
// - ICE_MODE: stun-turn (default), turn-only, stun-only
//
// The relay never dials these servers itself; they are handed verbatim to
// clients in the welcome frame and on /settings.
func LoadFromEnv(log *slog.Logger) (mode string, servers []protocol.ICEServer) {
	mode = strings.TrimSpace(os.Getenv("ICE_MODE"))
	if mode == "" {
		mode = "stun-turn"
	}

	stunEnv := strings.TrimSpace(os.Getenv("STUN_URLS"))
	turnEnv := strings.TrimSpace(os.Getenv("TURN_URLS"))
	turnUsername := strings.TrimSpace(os.Getenv("TURN_USERNAME"))
	turnPassword := strings.TrimSpace(os.Getenv("TURN_PASSWORD"))

	turnOnly := strings.EqualFold(mode, "turn-only")
	stunOnly := strings.EqualFold(mode, "stun-only")

	if !turnOnly {
		if stunEnv != "" {
			if stunURLs := splitAndClean(stunEnv); len(stunURLs) > 0 {
				servers = append(servers, protocol.ICEServer{URLs: stunURLs})
			}
		} else {
			servers = append(servers, protocol.ICEServer{URLs: []string{defaultSTUN}})
		}
	}

	if !stunOnly {
		if turnEnv != "" {
			if turnURLs := splitAndClean(turnEnv); len(turnURLs) > 0 {
				servers = append(servers, protocol.ICEServer{
					URLs:       turnURLs,
					Username:   turnUsername,
					Credential: turnPassword,
				})
			}
		} else if !turnOnly {
			log.Debug("ice.turn.unconfigured", "hint", "set TURN_URLS and credentials for relay fallback")
		}
	}

	if turnOnly && len(servers) == 0 {
		log.Warn("ice.turn_only.empty", "fallback", defaultSTUN)
		servers = append(servers, protocol.ICEServer{URLs: []string{defaultSTUN}})
	}

	log.Info("ice.loaded", "mode", mode, "servers", len(servers))
	return mode, servers
}

func splitAndClean(csv string) []string {
	parts := strings.Split(csv, ",")
	var out []string
	for _, p := range parts {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	return out
}
