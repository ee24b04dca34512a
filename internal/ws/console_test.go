package ws

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"esparcraft/internal/console"
	"esparcraft/internal/domain"
	"esparcraft/internal/events"
	"esparcraft/internal/logger"
	"esparcraft/internal/session"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	mu       sync.Mutex
	commands []string
}

func (r *recordingSender) SendCommand(id, command string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands = append(r.commands, id+":"+command)
	return nil
}

func (r *recordingSender) get() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.commands...)
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var msg Message
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func TestConsoleStreamsSnapshotThenEvents(t *testing.T) {
	hub := events.NewHub(64)
	go hub.Run()
	defer hub.Stop()

	reg := session.NewRegistry(hub, logger.Noop())
	sess := session.New(domain.ServerConfig{ID: "s1", Name: "Survival"})
	require.NoError(t, reg.Add(sess))
	sess.Emit(console.CategorySystem, "first")
	reg.DrainOnce(time.Now())

	sender := &recordingSender{}
	c := NewConsole(hub, reg, sender, logger.Noop())
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c.ServeWs(w, r, strings.TrimPrefix(r.URL.Path, "/"))
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/s1"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	snap := readMessage(t, conn)
	assert.Equal(t, MsgSnapshot, snap.Type)
	require.NotNil(t, snap.Session)
	assert.Equal(t, "s1", snap.Session.Config.ID)
	require.Len(t, snap.Logs, 1)
	assert.Equal(t, "first", snap.Logs[0].Text)

	sess.Emit(console.CategoryWarn, "second")
	reg.DrainOnce(time.Now())

	msg := readMessage(t, conn)
	assert.Equal(t, MsgEvent, msg.Type)
	require.NotNil(t, msg.Event)
	require.NotNil(t, msg.Event.Log)
	assert.Equal(t, "second", msg.Event.Log.Text)
	assert.Equal(t, "WARN", msg.Event.Log.Category)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("say hi\n")))
	assert.Eventually(t, func() bool {
		return len(sender.get()) == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"s1:say hi"}, sender.get())
}

func TestConsoleUnknownServer(t *testing.T) {
	hub := events.NewHub(8)
	go hub.Run()
	defer hub.Stop()

	c := NewConsole(hub, session.NewRegistry(hub, logger.Noop()), &recordingSender{}, nil)
	rec := httptest.NewRecorder()
	c.ServeWs(rec, httptest.NewRequest("GET", "/nope", nil), "nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
