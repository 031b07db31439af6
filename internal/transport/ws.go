package transport

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"fenrir/internal/events"
)

const (
	wsWriteWait      = 10 * time.Second
	wsPongWait       = 60 * time.Second
	wsPingPeriod     = (wsPongWait * 9) / 10
	wsMaxMessageSize = 64 * 1024
	wsSendBuffer     = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// wireEvent is the JSON envelope pushed to every WebSocket client, tagging
// the payload with the logical channel it came from (spec.md §4.5, §6).
type wireEvent struct {
	Channel string `json:"channel"`
	Data    any    `json:"data"`
}

// Hub is the push-stream transport: it subscribes to all three event
// channels (book/trade/bbo) and fans each event out to every connected
// WebSocket client, adapted from a polymarket dashboard hub to
// implement events.Sink directly instead of exposing its own broadcast API.
type Hub struct {
	log zerolog.Logger

	mu      sync.RWMutex
	clients map[*wsClient]struct{}
}

// NewHub constructs a Hub. Call Subscribe to wire it into a publisher.
func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		log:     log.With().Str("component", "transport.ws").Logger(),
		clients: make(map[*wsClient]struct{}),
	}
}

// Subscribe registers h on every channel of pub.
func (h *Hub) Subscribe(pub *events.Publisher) {
	pub.Subscribe(events.Book, h)
	pub.Subscribe(events.Trade, h)
	pub.Subscribe(events.BBO, h)
}

// Send implements events.Sink. It never itself returns an error: slow or
// dead individual clients are dropped without failing the whole Hub, since
// one dead browser tab should not unsubscribe every other viewer.
func (h *Hub) Send(channel events.Channel, event any) error {
	data, err := json.Marshal(wireEvent{Channel: channel.String(), Data: event})
	if err != nil {
		h.log.Warn().Err(err).Msg("failed to marshal event for ws fan-out")
		return nil
	}

	h.mu.RLock()
	targets := make([]*wsClient, 0, len(h.clients))
	for c := range h.clients {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	var dead []*wsClient
	for _, c := range targets {
		select {
		case c.send <- data:
		default:
			dead = append(dead, c)
		}
	}
	if len(dead) > 0 {
		h.mu.Lock()
		for _, c := range dead {
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
		}
		h.mu.Unlock()
	}
	return nil
}

func (h *Hub) register(c *wsClient) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	h.log.Info().Int("clients", n).Msg("ws client connected")
}

func (h *Hub) unregister(c *wsClient) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	n := len(h.clients)
	h.mu.Unlock()
	h.log.Info().Int("clients", n).Msg("ws client disconnected")
}

// wsClient is one upgraded connection. The client is a pure subscriber:
// push-stream channels carry no inbound command surface (spec.md §1
// scopes transport out of the matching core; submission stays on the
// REST/TCP transports).
type wsClient struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// Handler upgrades r to a WebSocket and streams every book/trade/bbo event
// to it until the connection drops.
func (h *Hub) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			h.log.Warn().Err(err).Msg("ws upgrade failed")
			return
		}

		client := &wsClient{hub: h, conn: conn, send: make(chan []byte, wsSendBuffer)}
		h.register(client)

		go client.writePump()
		go client.readPump()
	}
}

func (c *wsClient) writePump() {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump drains and discards inbound frames purely to detect
// disconnects and keep the read deadline alive via pong handling.
func (c *wsClient) readPump() {
	defer func() {
		c.hub.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(wsMaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			break
		}
	}
}
