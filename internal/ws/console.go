package ws

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"esparcraft/internal/domain"
	"esparcraft/internal/events"
	"esparcraft/internal/logger"
	"esparcraft/internal/session"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 512
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type MessageType string

const (
	MsgSnapshot MessageType = "snapshot"
	MsgEvent    MessageType = "event"
	MsgError    MessageType = "error"
)

type Message struct {
	Type    MessageType         `json:"type"`
	Session *domain.SessionView `json:"session,omitempty"`
	Logs    []domain.LogLine    `json:"logs,omitempty"`
	Event   *events.Event       `json:"event,omitempty"`
	Error   string              `json:"error,omitempty"`
}

type CommandSender interface {
	SendCommand(id string, command string) error
}

// Console streams one server's console over a websocket: a snapshot of the
// buffered log first, then live events. Text frames from the client are sent
// to the server's stdin.
type Console struct {
	hub      *events.Hub
	registry *session.Registry
	commands CommandSender
	log      logger.Logger
	// ReplayLimit caps the snapshot log lines; 0 sends the whole buffer.
	ReplayLimit int
}

func NewConsole(hub *events.Hub, registry *session.Registry, commands CommandSender, log logger.Logger) *Console {
	if log == nil {
		log = logger.Noop()
	}
	return &Console{hub: hub, registry: registry, commands: commands, log: log}
}

type client struct {
	console  *Console
	serverID string
	conn     *websocket.Conn

	mu     sync.Mutex
	send   chan []byte
	closed bool
}

func (c *Console) ServeWs(w http.ResponseWriter, r *http.Request, serverID string) {
	sess, ok := c.registry.Get(serverID)
	if !ok {
		http.Error(w, "Servidor no encontrado", http.StatusNotFound)
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		c.log.Warn("websocket upgrade failed", "server", serverID, "error", err)
		return
	}

	// Subscribe before taking the snapshot so nothing falls in between.
	sub := c.hub.Subscribe(serverID, sendBuffer)
	view := sess.Snapshot()
	logs := sess.Logs(0, c.ReplayLimit)

	cl := &client{console: c, serverID: serverID, conn: conn, send: make(chan []byte, sendBuffer)}
	cl.queue(Message{Type: MsgSnapshot, Session: &view, Logs: logs})

	end := view.LogEnd
	if n := len(logs); n > 0 && logs[n-1].Index >= end {
		end = logs[n-1].Index + 1
	}
	go cl.forward(sub, end)
	go cl.writePump()
	cl.readPump()
	c.hub.Unsubscribe(sub)
}

func (cl *client) queue(msg Message) bool {
	data, err := json.Marshal(msg)
	if err != nil {
		cl.console.log.Error("websocket marshal failed", "error", err)
		return true
	}
	cl.mu.Lock()
	defer cl.mu.Unlock()
	if cl.closed {
		return true
	}
	select {
	case cl.send <- data:
		return true
	default:
		return false
	}
}

func (cl *client) closeSend() {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	if !cl.closed {
		cl.closed = true
		close(cl.send)
	}
}

func (cl *client) forward(sub *events.Subscription, logEnd int64) {
	defer cl.closeSend()
	for ev := range sub.C() {
		if ev.Kind == events.KindLog && ev.Log != nil && ev.Log.Index < logEnd {
			continue
		}
		e := ev
		if !cl.queue(Message{Type: MsgEvent, Event: &e}) {
			cl.console.log.Warn("websocket client too slow, disconnecting", "server", cl.serverID)
			cl.conn.Close()
			return
		}
	}
}

func (cl *client) readPump() {
	defer cl.conn.Close()
	cl.conn.SetReadLimit(maxMessageSize)
	cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	cl.conn.SetPongHandler(func(string) error {
		cl.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		kind, data, err := cl.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				cl.console.log.Debug("websocket read error", "server", cl.serverID, "error", err)
			}
			return
		}
		if kind != websocket.TextMessage {
			continue
		}
		command := strings.TrimSpace(string(data))
		if command == "" {
			continue
		}
		if err := cl.console.commands.SendCommand(cl.serverID, command); err != nil {
			cl.queue(Message{Type: MsgError, Error: err.Error()})
		}
	}
}

func (cl *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		cl.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-cl.send:
			cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				cl.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := cl.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := cl.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
