package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"esparcraft/internal/app"
	"esparcraft/internal/events"
	"esparcraft/internal/jvm"
	"esparcraft/internal/logger"
	"esparcraft/internal/metrics"
	"esparcraft/internal/runner"
	"esparcraft/internal/server"
	"esparcraft/internal/session"
	"esparcraft/internal/storage"
	"esparcraft/internal/ws"
)

type Server struct {
	Manager    *server.Manager
	Supervisor *runner.Supervisor
	Registry   *session.Registry
	Hub        *events.Hub
	Store      *storage.GormStore
	Metrics    *metrics.Collector
	Console    *ws.Console
	Detector   *jvm.Detector
	Log        logger.Logger

	mu         sync.Mutex
	httpServer *http.Server
}

func NewAPIServer(container *app.Container) *Server {
	log := container.Log
	if log == nil {
		log = logger.Noop()
	}
	return &Server{
		Manager:    container.ServerManager,
		Supervisor: container.Supervisor,
		Registry:   container.Registry,
		Hub:        container.Hub,
		Store:      container.Store,
		Metrics:    container.Metrics,
		Console:    container.Console,
		Detector:   container.Detector,
		Log:        log,
	}
}

func (api *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /servers", api.handleListServers)
	mux.HandleFunc("POST /servers", api.handleCreateServer)
	mux.HandleFunc("GET /servers/{id}", api.handleGetServer)
	mux.HandleFunc("PUT /servers/{id}", api.handleUpdateServer)
	mux.HandleFunc("DELETE /servers/{id}", api.handleDeleteServer)

	mux.HandleFunc("POST /servers/{id}/start", api.handleStartServer)
	mux.HandleFunc("POST /servers/{id}/stop", api.handleStopServer)
	mux.HandleFunc("POST /servers/{id}/kill", api.handleKillServer)
	mux.HandleFunc("POST /servers/{id}/command", api.handleSendCommand)

	mux.HandleFunc("GET /servers/{id}/logs", api.handleGetLogs)
	mux.HandleFunc("DELETE /servers/{id}/logs", api.handleClearLogs)

	mux.HandleFunc("GET /servers/{id}/players", api.handleGetPlayers)
	mux.HandleFunc("POST /servers/{id}/players/{name}/{action}", api.handlePlayerAction)
	mux.HandleFunc("GET /servers/{id}/ops", api.handleGetOps)
	mux.HandleFunc("GET /servers/{id}/bans", api.handleGetBans)

	mux.HandleFunc("GET /servers/{id}/properties", api.handleGetProperties)
	mux.HandleFunc("PUT /servers/{id}/properties", api.handleSaveProperties)

	mux.HandleFunc("GET /servers/{id}/plugins", api.handleListPlugins)
	mux.HandleFunc("PUT /servers/{id}/plugins/{file}", api.handleInstallPlugin)
	mux.HandleFunc("DELETE /servers/{id}/plugins/{file}", api.handleRemovePlugin)
	mux.HandleFunc("POST /servers/{id}/plugins/{file}/toggle", api.handleTogglePlugin)

	mux.HandleFunc("GET /runtime", api.handleGetRuntime)
	mux.HandleFunc("PUT /runtime/java", api.handleSetJava)

	if api.Metrics != nil {
		mux.Handle("GET /metrics", api.Metrics.Handler())
	}

	mux.HandleFunc("GET /ws/servers/{id}/console", api.handleConsole)

	return api.logMiddleware(api.corsMiddleware(mux))
}

// Start blocks until the listener fails or Shutdown is called. A clean
// shutdown returns nil.
func (api *Server) Start(listenAddr string) error {
	srv := &http.Server{
		Addr:              listenAddr,
		Handler:           api.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	api.mu.Lock()
	api.httpServer = srv
	api.mu.Unlock()

	api.Log.Info(fmt.Sprintf("API escuchando en http://0.0.0.0%s", listenAddr))
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (api *Server) Shutdown(ctx context.Context) error {
	api.mu.Lock()
	srv := api.httpServer
	api.mu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

func (api *Server) handleConsole(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		http.Error(w, "Falta ID", http.StatusBadRequest)
		return
	}
	api.Console.ServeWs(w, r, id)
}
