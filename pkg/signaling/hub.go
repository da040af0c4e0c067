package signaling

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/dk59mh974z-afk/open-podcast-lobby/pkg/metrics"
	"github.com/dk59mh974z-afk/open-podcast-lobby/pkg/protocol"
)

const (
	// defaultReadLimit caps inbound frames. SDP offers run a few KB;
	// 64KB leaves headroom without letting a client buffer freely.
	defaultReadLimit   = 64 * 1024
	readTimeout        = 60 * time.Second
	pingInterval       = 40 * time.Second
	writeTimeout       = 10 * time.Second
	upgradeReadBuffer  = 1024
	upgradeWriteBuffer = 1024
)

// DirectoryStore mirrors room summaries into an external directory for
// operators. Implementations must not block: the hub invokes these hooks
// on the routing path.
type DirectoryStore interface {
	Publish(summary protocol.RoomSummary)
	Forget(roomID string)
}

// HubOptions configures a Hub instance.
type HubOptions struct {
	// ICEServers and ICEMode are advertised in the welcome frame.
	ICEServers []protocol.ICEServer
	ICEMode    string
	Logger     *slog.Logger
	// Directory, when set, receives room summary updates.
	Directory DirectoryStore
	// Upgrader overrides the default upgrader, e.g. to enforce origins.
	Upgrader *websocket.Upgrader
}

// ConnOptions controls how a connection is registered.
type ConnOptions struct {
	// ID overrides the generated connection id (useful for authenticated callers).
	ID string
	// Context lets the caller cancel the connection (defaults to Background).
	Context context.Context
}

// Hub owns every live connection and applies the signaling protocol to the
// shared Registry. One Hub serves the whole process.
type Hub struct {
	reg        *Registry
	dir        DirectoryStore
	iceServers []protocol.ICEServer
	iceMode    string
	upgrader   websocket.Upgrader
	log        *slog.Logger

	mu    sync.RWMutex
	conns map[string]*Conn
}

// NewHub builds a signaling Hub around the shared registry.
func NewHub(reg *Registry, opts HubOptions) *Hub {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  upgradeReadBuffer,
		WriteBufferSize: upgradeWriteBuffer,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}
	if opts.Upgrader != nil {
		upgrader = *opts.Upgrader
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	iceServers := opts.ICEServers
	if iceServers == nil {
		iceServers = []protocol.ICEServer{}
	}

	return &Hub{
		reg:        reg,
		dir:        opts.Directory,
		iceServers: iceServers,
		iceMode:    opts.ICEMode,
		upgrader:   upgrader,
		log:        logger,
		conns:      make(map[string]*Conn),
	}
}

// HTTPHandler upgrades HTTP connections and registers them with the Hub.
func (h *Hub) HTTPHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := h.upgrader.Upgrade(w, r, nil)
		if err != nil {
			h.log.Debug("ws.upgrade", "err", err)
			return
		}
		// Background context: the connection outlives the HTTP handler.
		h.Accept(conn, ConnOptions{})
	})
}

// Accept adopts an already-upgraded WebSocket connection: assigns an id,
// sends the welcome frame, and starts the pumps.
func (h *Hub) Accept(ws *websocket.Conn, opts ConnOptions) *Conn {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)
	id := opts.ID
	if id == "" {
		id = uuid.NewString()
	}
	c := &Conn{
		id:     id,
		ws:     ws,
		send:   make(chan []byte, 32),
		ctx:    ctx,
		cancel: cancel,
		role:   RoleListener,
		name:   defaultName,
	}

	h.register(c)

	go c.writePump()
	go c.readPump(h)
	return c
}

func (h *Hub) register(c *Conn) {
	h.mu.Lock()
	h.conns[c.id] = c
	total := len(h.conns)
	h.mu.Unlock()

	metrics.ConnectionsActive.Inc()
	h.log.Info("ws.connect", "conn", c.id, "total", total)

	c.sendJSON(protocol.Welcome{
		Type:       protocol.TypeWelcome,
		UserID:     c.id,
		ICEServers: h.iceServers,
		ICEMode:    h.iceMode,
	})
}

// unregister detaches c from its room with full departure side effects,
// then forgets the connection. Runs exactly once, from readPump's defer.
func (h *Hub) unregister(c *Conn) {
	h.reg.mu.Lock()
	h.detach(c)
	h.reg.mu.Unlock()

	h.mu.Lock()
	delete(h.conns, c.id)
	total := len(h.conns)
	h.mu.Unlock()

	metrics.ConnectionsActive.Dec()
	h.log.Info("ws.disconnect", "conn", c.id, "total", total)
}

func (h *Hub) mirrorRoom(rm *Room) {
	if h.dir == nil {
		return
	}
	h.dir.Publish(rm.summary())
}

func (h *Hub) mirrorForget(id string) {
	if h.dir == nil {
		return
	}
	h.dir.Forget(id)
}

// readPump reads frames until the connection dies, routing each one. The
// send channel closes only after unregister has finished, so no delivery
// can race the close.
func (c *Conn) readPump(h *Hub) {
	defer func() {
		h.unregister(c)
		c.ws.Close()
		close(c.send)
		c.cancel()
	}()

	c.ws.SetReadLimit(defaultReadLimit)
	_ = c.ws.SetReadDeadline(time.Now().Add(readTimeout))
	c.ws.SetPongHandler(func(string) error {
		_ = c.ws.SetReadDeadline(time.Now().Add(readTimeout))
		return nil
	})

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				return
			}
			if !errors.Is(err, websocket.ErrCloseSent) {
				h.log.Debug("ws.read", "conn", c.id, "err", err)
			}
			return
		}

		env, err := protocol.DecodeEnvelope(data)
		if err != nil {
			h.drop(c, "", dropMalformed)
			continue
		}
		h.route(c, env)
	}
}

func (c *Conn) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
	}()

	for {
		select {
		case <-c.ctx.Done():
			return
		case msg, ok := <-c.send:
			if !ok {
				_ = c.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
