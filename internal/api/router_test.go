package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"esparcraft/internal/console"
	"esparcraft/internal/domain"
	"esparcraft/internal/jvm"
	"esparcraft/internal/logger"
	"esparcraft/internal/runner"
	"esparcraft/internal/server"
	"esparcraft/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memRepo struct {
	mu      sync.Mutex
	servers []domain.ServerConfig
}

func (r *memRepo) Load() ([]domain.ServerConfig, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.ServerConfig(nil), r.servers...), nil
}

func (r *memRepo) Save(s []domain.ServerConfig) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.servers = append([]domain.ServerConfig(nil), s...)
	return nil
}

type fixture struct {
	api      *Server
	handler  http.Handler
	registry *session.Registry
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	reg := session.NewRegistry(nil, logger.Noop())
	sup := runner.NewSupervisor(reg, jvm.RuntimeEnvironment{}, runner.Options{Log: logger.Noop()})
	mgr := server.NewManager(&memRepo{}, reg, server.ManagerOptions{Processes: sup, Log: logger.Noop()})
	require.NoError(t, mgr.Load())
	api := &Server{Manager: mgr, Supervisor: sup, Registry: reg, Log: logger.Noop()}
	return &fixture{api: api, handler: api.Handler(), registry: reg}
}

func (f *fixture) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, httptest.NewRequest(method, path, &buf))
	return rec
}

func (f *fixture) create(t *testing.T, dir string) domain.ServerConfig {
	t.Helper()
	rec := f.do(t, "POST", "/servers", domain.ServerConfig{Name: "Survival", Jar: "server.jar", RAMMin: 1, RAMMax: 2, Path: dir})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var cfg domain.ServerConfig
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cfg))
	return cfg
}

func TestServerCRUD(t *testing.T) {
	f := newFixture(t)
	cfg := f.create(t, t.TempDir())

	rec := f.do(t, "GET", "/servers", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var views []domain.SessionView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &views))
	require.Len(t, views, 1)
	assert.Equal(t, cfg.ID, views[0].Config.ID)
	assert.Equal(t, domain.StateOffline, views[0].State)

	rec = f.do(t, "PUT", "/servers/"+cfg.ID, map[string]int{"ram_max": 6})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated domain.ServerConfig
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, 6, updated.RAMMax)
	assert.Equal(t, "Survival", updated.Name)

	rec = f.do(t, "PUT", "/servers/"+cfg.ID, map[string]int{"ram_min": 0})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	assert.Equal(t, http.StatusNoContent, f.do(t, "DELETE", "/servers/"+cfg.ID, nil).Code)
	assert.Equal(t, http.StatusNotFound, f.do(t, "GET", "/servers/"+cfg.ID, nil).Code)
}

func TestCreateRejectsBadJSON(t *testing.T) {
	f := newFixture(t)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, httptest.NewRequest("POST", "/servers", strings.NewReader("{")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "JSON inválido")
}

func TestLifecycleWithoutJava(t *testing.T) {
	f := newFixture(t)
	cfg := f.create(t, t.TempDir())

	rec := f.do(t, "POST", "/servers/"+cfg.ID+"/start", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	assert.Equal(t, http.StatusOK, f.do(t, "POST", "/servers/"+cfg.ID+"/stop", nil).Code)
	assert.Equal(t, http.StatusConflict, f.do(t, "POST", "/servers/"+cfg.ID+"/kill", nil).Code)
	assert.Equal(t, http.StatusConflict, f.do(t, "POST", "/servers/"+cfg.ID+"/command", map[string]string{"command": "list"}).Code)
	assert.Equal(t, http.StatusNotFound, f.do(t, "POST", "/servers/missing/start", nil).Code)

	f.registry.DrainOnce(time.Now())
	rec = f.do(t, "GET", "/servers/"+cfg.ID+"/logs?category=ERROR", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var logs logsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &logs))
	require.Len(t, logs.Lines, 1)
	assert.Contains(t, logs.Lines[0].Text, "Java no encontrado")
	assert.Equal(t, int64(2), logs.LogEnd)
}

func TestLogsQuery(t *testing.T) {
	f := newFixture(t)
	cfg := f.create(t, t.TempDir())
	sess, _ := f.registry.Get(cfg.ID)
	for _, text := range []string{"one", "two", "three"} {
		sess.Emit(console.CategoryInfo, text)
	}
	f.registry.DrainOnce(time.Now())

	var logs logsResponse
	rec := f.do(t, "GET", "/servers/"+cfg.ID+"/logs?since=1&limit=1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &logs))
	require.Len(t, logs.Lines, 1)
	assert.Equal(t, "three", logs.Lines[0].Text)

	assert.Equal(t, http.StatusBadRequest, f.do(t, "GET", "/servers/"+cfg.ID+"/logs?category=LOUD", nil).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(t, "GET", "/servers/"+cfg.ID+"/logs?since=x", nil).Code)

	assert.Equal(t, http.StatusNoContent, f.do(t, "DELETE", "/servers/"+cfg.ID+"/logs", nil).Code)
	f.registry.DrainOnce(time.Now())
	rec = f.do(t, "GET", "/servers/"+cfg.ID+"/logs", nil)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &logs))
	assert.Empty(t, logs.Lines)
	assert.Equal(t, int64(3), logs.LogEnd)
}

func TestPlayersAndLists(t *testing.T) {
	f := newFixture(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, server.UsercacheFile),
		[]byte(`[{"name":"Steve","uuid":"069a79f444e94726a5befca90e38aaf5"}]`), 0o644))
	cfg := f.create(t, dir)

	rec := f.do(t, "GET", "/servers/"+cfg.ID+"/players", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var players playersResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &players))
	assert.Empty(t, players.Online)
	require.Len(t, players.KnownOffline, 1)
	assert.Equal(t, "069a79f4-44e9-4726-a5be-fca90e38aaf5", players.KnownOffline[0].UUID)

	assert.Equal(t, http.StatusBadRequest, f.do(t, "POST", "/servers/"+cfg.ID+"/players/Steve/smite", nil).Code)
	assert.Equal(t, http.StatusConflict, f.do(t, "POST", "/servers/"+cfg.ID+"/players/Steve/kick", map[string]string{"reason": "afk"}).Code)

	rec = f.do(t, "GET", "/servers/"+cfg.ID+"/ops", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]\n", rec.Body.String())
	assert.Equal(t, http.StatusNotFound, f.do(t, "GET", "/servers/missing/bans", nil).Code)
}

func TestProperties(t *testing.T) {
	f := newFixture(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, server.PropertiesFile), []byte("motd=hi\n"), 0o644))
	cfg := f.create(t, dir)

	rec := f.do(t, "GET", "/servers/"+cfg.ID+"/properties", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var view server.PropertiesView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, "hi", view.Typed.MOTD)

	view.Typed.MOTD = "hola"
	rec = f.do(t, "PUT", "/servers/"+cfg.ID+"/properties", map[string]interface{}{"typed": view.Typed})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"changed":["motd"]}`, rec.Body.String())

	rec = f.do(t, "PUT", "/servers/"+cfg.ID+"/properties", map[string]interface{}{"extra": map[string]string{"motd": "x"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPluginsEndpoints(t *testing.T) {
	f := newFixture(t)
	cfg := f.create(t, t.TempDir())
	base := "/servers/" + cfg.ID + "/plugins"

	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, httptest.NewRequest("PUT", base+"/a.jar", strings.NewReader("data")))
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = f.do(t, "GET", base, nil)
	var plugins []domain.Plugin
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &plugins))
	require.Len(t, plugins, 1)
	assert.True(t, plugins[0].Enabled)

	rec = f.do(t, "POST", base+"/a.jar/toggle", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"file":"a.jar.disabled"}`, rec.Body.String())

	assert.Equal(t, http.StatusNoContent, f.do(t, "DELETE", base+"/a.jar.disabled", nil).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(t, "DELETE", base+"/evil.exe", nil).Code)
}

func TestRuntimeAndCORS(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, "GET", "/runtime", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var info domain.RuntimeInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	assert.False(t, info.Available)

	rec = f.do(t, "OPTIONS", "/servers", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
