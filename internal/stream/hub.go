// Package stream publishes simulation events to WebSocket observers and
// accepts administrative commands from them.
//
// Each tick's event batch is encoded once and queued to every client. A
// client that cannot keep up is disconnected rather than allowed to stall
// the simulation loop.
package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/timetolife1989-cloud/mechdefense/internal/event"
	"github.com/timetolife1989-cloud/mechdefense/internal/sim"
)

const (
	ProtocolVersion = 1

	TypeHello         = "hello"
	TypeEvents        = "events"
	TypeCommand       = "command"
	TypeCommandAck    = "commandAck"
	TypeCommandReject = "commandReject"

	writeWait = 5 * time.Second
)

type eventsMessage struct {
	Ver    int           `json:"ver"`
	Type   string        `json:"type"`
	Tick   uint64        `json:"tick"`
	Events []event.Event `json:"events"`
}

type helloMessage struct {
	Ver      int      `json:"ver"`
	Type     string   `json:"type"`
	Commands []string `json:"commands"`
}

type clientMessage struct {
	Type string `json:"type"`
	Cmd  string `json:"cmd"`
	Seq  uint64 `json:"seq,omitempty"`
}

type commandAckMessage struct {
	Ver  int    `json:"ver"`
	Type string `json:"type"`
	Seq  uint64 `json:"seq"`
	Cmd  string `json:"cmd"`
}

type commandRejectMessage struct {
	Ver    int    `json:"ver"`
	Type   string `json:"type"`
	Seq    uint64 `json:"seq"`
	Reason string `json:"reason"`
	Retry  bool   `json:"retry,omitempty"`
}

// Config controls the hub.
type Config struct {
	// SendBuffer is the per-client outbox capacity in messages.
	SendBuffer int
}

type client struct {
	conn *websocket.Conn
	send chan []byte
	once sync.Once
	done chan struct{}
}

func (c *client) close() {
	c.once.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}

// enqueue queues data without blocking. False means the outbox is full.
func (c *client) enqueue(data []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

// Hub tracks connected observers.
type Hub struct {
	upgrader   websocket.Upgrader
	sendBuffer int
	commands   chan<- sim.Command

	mu      sync.Mutex
	clients map[*client]struct{}
}

// NewHub creates a hub. Commands received from clients are forwarded to
// commands without blocking; a nil channel rejects all commands.
func NewHub(cfg Config, commands chan<- sim.Command) *Hub {
	if cfg.SendBuffer <= 0 {
		cfg.SendBuffer = 64
	}
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		sendBuffer: cfg.SendBuffer,
		commands:   commands,
		clients:    make(map[*client]struct{}),
	}
}

// Count returns the number of connected clients.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Handle upgrades the request and serves the connection until it closes.
func (h *Hub) Handle(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	c := &client{
		conn: conn,
		send: make(chan []byte, h.sendBuffer),
		done: make(chan struct{}),
	}

	hello, err := json.Marshal(helloMessage{
		Ver:  ProtocolVersion,
		Type: TypeHello,
		Commands: []string{
			string(sim.CommandStartNextWave),
			string(sim.CommandForceComplete),
			string(sim.CommandStopSpawning),
		},
	})
	if err == nil {
		c.enqueue(hello)
	}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	slog.Info("observer connected", "remote", r.RemoteAddr, "observers", h.Count())

	go h.writeLoop(c)
	h.readLoop(c)

	h.remove(c)
	slog.Info("observer disconnected", "remote", r.RemoteAddr, "observers", h.Count())
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	c.close()
}

func (h *Hub) writeLoop(c *client) {
	for {
		select {
		case <-c.done:
			return
		case data := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				c.close()
				return
			}
		}
	}
}

func (h *Hub) readLoop(c *client) {
	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var msg clientMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			slog.Debug("discarding malformed observer message", "error", err)
			continue
		}

		switch msg.Type {
		case TypeCommand:
			h.handleCommand(c, msg)
		default:
			slog.Debug("unknown observer message type", "type", msg.Type)
		}
	}
}

func (h *Hub) handleCommand(c *client, msg clientMessage) {
	reply := func(payload any) {
		data, err := json.Marshal(payload)
		if err != nil {
			slog.Error("marshal command reply", "error", err)
			return
		}
		c.enqueue(data)
	}
	reject := func(reason string, retry bool) {
		reply(commandRejectMessage{Ver: ProtocolVersion, Type: TypeCommandReject, Seq: msg.Seq, Reason: reason, Retry: retry})
	}

	cmd, err := sim.ParseCommand(msg.Cmd)
	if err != nil {
		reject(err.Error(), false)
		return
	}
	if h.commands == nil {
		reject("commands disabled", false)
		return
	}

	select {
	case h.commands <- cmd:
		reply(commandAckMessage{Ver: ProtocolVersion, Type: TypeCommandAck, Seq: msg.Seq, Cmd: string(cmd)})
	default:
		reject("command queue full", true)
	}
}

// Broadcast encodes batch once and queues it to every client. Clients whose
// outbox is full are disconnected.
func (h *Hub) Broadcast(batch []event.Event) error {
	if len(batch) == 0 {
		return nil
	}
	data, err := json.Marshal(eventsMessage{
		Ver:    ProtocolVersion,
		Type:   TypeEvents,
		Tick:   batch[len(batch)-1].Tick,
		Events: batch,
	})
	if err != nil {
		return fmt.Errorf("marshal events: %w", err)
	}

	h.mu.Lock()
	var slow []*client
	for c := range h.clients {
		if !c.enqueue(data) {
			slow = append(slow, c)
		}
	}
	for _, c := range slow {
		delete(h.clients, c)
	}
	h.mu.Unlock()

	for _, c := range slow {
		slog.Warn("observer too slow, disconnecting", "remote", c.conn.RemoteAddr())
		c.close()
	}
	return nil
}

// Run broadcasts batches from in until ctx is canceled or in is closed,
// then disconnects every client.
func (h *Hub) Run(ctx context.Context, in <-chan []event.Event) error {
	defer h.closeAll()
	for {
		select {
		case <-ctx.Done():
			return nil
		case batch, ok := <-in:
			if !ok {
				return nil
			}
			if err := h.Broadcast(batch); err != nil {
				slog.Error("broadcast failed", "error", err)
			}
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	clear(h.clients)
	h.mu.Unlock()

	for _, c := range clients {
		msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down")
		_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		c.close()
	}
}

// Serve listens on addr and serves the hub at path until ctx is canceled.
func (h *Hub) Serve(ctx context.Context, addr, path string) error {
	mux := http.NewServeMux()
	mux.HandleFunc(path, h.Handle)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("event stream listening", "addr", addr, "path", path)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("event stream: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("event stream shutdown: %w", err)
		}
		return nil
	}
}
