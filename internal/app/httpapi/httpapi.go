package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/dk59mh974z-afk/open-podcast-lobby/pkg/protocol"
)

// Settings describes what the server advertises to browsers before they
// open the signaling socket.
type Settings struct {
	ICEMode     string
	ICEServers  []protocol.ICEServer
	PublicWSURL string
}

// LandingHandler serves files from staticDir when they exist and the fixed
// landing page for every other path. There is no per-path routing on this
// surface; an unreadable landing page is a plain-text 500.
func LandingHandler(staticDir string) http.Handler {
	fs := http.FileServer(http.Dir(staticDir))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/ws" {
			w.WriteHeader(http.StatusNotFound)
			return
		}

		path := filepath.Join(staticDir, filepath.Clean(r.URL.Path))
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			fs.ServeHTTP(w, r)
			return
		}

		page, err := os.ReadFile(filepath.Join(staticDir, "index.html"))
		if err != nil {
			http.Error(w, "landing page unavailable", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(page)
	})
}

// DebugICEHandler dumps the advertised ICE configuration.
func DebugICEHandler(settings Settings) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		payload := map[string]interface{}{
			"mode":       settings.ICEMode,
			"iceServers": settings.ICEServers,
		}
		_ = json.NewEncoder(w).Encode(payload)
	})
}

// SettingsHandler tells clients where the signaling socket lives and which
// ICE servers to use.
func SettingsHandler(settings Settings) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		wsURL := resolveWSURL(settings, r)
		w.Header().Set("Content-Type", "application/json")
		payload := map[string]interface{}{
			"wsURL":      wsURL,
			"iceMode":    settings.ICEMode,
			"iceServers": settings.ICEServers,
		}
		_ = json.NewEncoder(w).Encode(payload)
	})
}

func resolveWSURL(settings Settings, r *http.Request) string {
	if settings.PublicWSURL != "" {
		return settings.PublicWSURL
	}

	proto := "ws"
	if r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https") {
		proto = "wss"
	}

	host := r.Host
	if host == "" {
		host = "localhost:8080"
	}

	return fmt.Sprintf("%s://%s/ws", proto, host)
}
