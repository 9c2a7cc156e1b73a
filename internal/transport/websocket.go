// Package transport publishes engine state updates to UI subscribers
// over websocket connections (§4.7 "State publishing": consumers are
// "a UI collaborator" reached over a channel the engine doesn't own
// directly).
package transport

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/vividhyeok/ole/internal/engine"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Hub fans a single engine's Events channel out to any number of
// connected websocket clients. Each client gets its own outbound queue
// so one slow reader can't stall the others; a full client queue drops
// the update rather than blocking the fan-out loop, mirroring the
// engine's own drop-on-full policy for state snapshots.
type Hub struct {
	mu      sync.Mutex
	clients map[*client]struct{}
}

type client struct {
	conn *websocket.Conn
	send chan engine.Event
}

// NewHub constructs an empty Hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[*client]struct{})}
}

// Run drains e.Events and broadcasts each one to every connected
// client until events closes.
func (h *Hub) Run(events <-chan engine.Event) {
	for ev := range events {
		h.broadcast(ev)
	}
}

func (h *Hub) broadcast(ev engine.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- ev:
		default:
			log.Warn("websocket client queue full, dropping update")
		}
	}
}

// ServeHTTP upgrades the request to a websocket connection and streams
// engine events to it until the connection closes.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn("websocket upgrade failed", "error", err)
		return
	}

	c := &client{conn: conn, send: make(chan engine.Event, 64)}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.clients, c)
		h.mu.Unlock()
		conn.Close()
	}()

	go h.readPump(c)
	h.writePump(c)
}

// readPump discards inbound frames but is required to keep gorilla's
// connection-close detection and ping/pong handling alive.
func (h *Hub) readPump(c *client) {
	defer c.conn.Close()
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	for ev := range c.send {
		if err := c.conn.WriteJSON(eventPayload(ev)); err != nil {
			return
		}
	}
}

// eventPayload converts an engine.Event into a JSON-friendly shape;
// engine.Event's zero-valued sub-fields for kinds other than the
// active one are omitted by the consumer based on "kind".
func eventPayload(ev engine.Event) map[string]any {
	payload := map[string]any{"kind": ev.Kind}
	switch ev.Kind {
	case engine.EventStateUpdate:
		payload["state"] = ev.StateUpdate
	case engine.EventTrackLoaded:
		payload["trackLoaded"] = ev.TrackLoaded
	case engine.EventError:
		payload["error"] = ev.Error
	}
	return payload
}

// MarshalForTest exposes the same encoding ServeHTTP uses, for
// verifying wire shape without standing up a real connection.
func MarshalForTest(ev engine.Event) ([]byte, error) {
	return json.Marshal(eventPayload(ev))
}
