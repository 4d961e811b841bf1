package telephony

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	sendBuffer = 32
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// Hub fans session updates out to the websocket consoles of each operator.
// Topics are operator ids.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*client]struct{}
	log     *slog.Logger

	upgrader websocket.Upgrader
}

type client struct {
	id    string
	topic string
	send  chan []byte
}

func NewHub(log *slog.Logger) *Hub {
	if log == nil {
		log = slog.Default()
	}
	return &Hub{
		clients: map[string]map[*client]struct{}{},
		log:     log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Consoles authenticate with a bearer token, not cookies.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[c.topic] == nil {
		h.clients[c.topic] = map[*client]struct{}{}
	}
	h.clients[c.topic][c] = struct{}{}
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	subs, ok := h.clients[c.topic]
	if !ok {
		return
	}
	if _, ok := subs[c]; !ok {
		return
	}
	delete(subs, c)
	if len(subs) == 0 {
		delete(h.clients, c.topic)
	}
	close(c.send)
}

// Publish sends v as JSON to every console of topic. Slow consoles miss
// updates rather than blocking the tracker.
func (h *Hub) Publish(topic string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		h.log.Error("hub marshal failed", "err", err)
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients[topic] {
		select {
		case c.send <- data:
		default:
			h.log.Warn("console buffer full; update dropped", "client_id", c.id)
		}
	}
}

func (h *Hub) ClientCount(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[topic])
}

// Serve upgrades the request and streams topic's updates until the console
// disconnects. initial is sent first.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, topic string, initial any) error {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	c := h.subscribe(topic, initial)
	go h.writePump(c, ws)
	h.readPump(c, ws)
	return nil
}

// subscribe queues initial on a fresh client before registering it, so the
// snapshot always leads and never waits on publishers filling the buffer.
func (h *Hub) subscribe(topic string, initial any) *client {
	c := &client{id: uuid.NewString(), topic: topic, send: make(chan []byte, sendBuffer)}
	if data, err := json.Marshal(initial); err == nil {
		c.send <- data
	} else {
		h.log.Error("hub marshal failed", "err", err)
	}
	h.register(c)
	return c
}

// readPump only watches for close; consoles never send commands here.
func (h *Hub) readPump(c *client, ws *websocket.Conn) {
	defer func() {
		h.unregister(c)
		_ = ws.Close()
	}()
	ws.SetReadLimit(512)
	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(c *client, ws *websocket.Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = ws.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := ws.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
