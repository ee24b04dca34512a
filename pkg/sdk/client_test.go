package sdk

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientRequests(t *testing.T) {
	var gotPath, gotQuery, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.Method + " " + r.URL.EscapedPath()
		gotQuery = r.URL.RawQuery
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		switch r.URL.Path {
		case "/servers":
			json.NewEncoder(w).Encode([]Server{{Config: ServerConfig{ID: "a", Name: "Survival"}, State: StateOnline}})
		case "/servers/a/logs":
			json.NewEncoder(w).Encode(Logs{Lines: []LogLine{{Index: 4, Text: "hi", Category: "INFO"}}, LogEnd: 5})
		case "/servers/a/stop":
			w.WriteHeader(http.StatusConflict)
			w.Write([]byte("server is not running\n"))
		default:
			w.WriteHeader(http.StatusNoContent)
		}
	}))
	defer srv.Close()
	c := NewClient(srv.URL + "/")

	servers, err := c.ListServers()
	require.NoError(t, err)
	require.Len(t, servers, 1)
	assert.Equal(t, "Survival", servers[0].Config.Name)

	logs, err := c.GetLogs("a", 4, "INFO", 10)
	require.NoError(t, err)
	assert.Equal(t, int64(5), logs.LogEnd)
	assert.Equal(t, "category=INFO&limit=10&since=4", gotQuery)

	require.NoError(t, c.PlayerAction("a", "Steve", "kick", "afk"))
	assert.Equal(t, "POST /servers/a/players/Steve/kick", gotPath)
	assert.JSONEq(t, `{"reason":"afk"}`, gotBody)

	err = c.StopServer("a")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusConflict, apiErr.Status)
	assert.Equal(t, "error: server is not running", err.Error())
}

func TestWebSocketURL(t *testing.T) {
	u, err := NewClient("https://host:23010").GetWebSocketURL("/ws/servers/a/console")
	require.NoError(t, err)
	assert.Equal(t, "wss://host:23010/ws/servers/a/console", u)
}
