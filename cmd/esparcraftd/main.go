package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"esparcraft/internal/api"
	"esparcraft/internal/app"
	"esparcraft/internal/config"
	"esparcraft/internal/console"
	"esparcraft/internal/domain"
	"esparcraft/internal/events"
	"esparcraft/internal/jvm"
	"esparcraft/internal/logger"
	"esparcraft/internal/metrics"
	"esparcraft/internal/perf"
	"esparcraft/internal/runner"
	"esparcraft/internal/server"
	"esparcraft/internal/session"
	"esparcraft/internal/storage"
	"esparcraft/internal/ws"
)

const shutdownTimeout = 30 * time.Second

func main() {
	fmt.Println("Starting Esparcraft Daemon...")

	configDir, err := config.Dir()
	if err != nil {
		log.Fatalf("Error getting user config directory: %v", err)
	}
	cfg, err := config.LoadConfig(configDir)
	if err != nil {
		log.Fatalf("Error loading configuration: %v", err)
	}
	if err := os.MkdirAll(cfg.LogsPath, 0755); err != nil {
		log.Fatalf("Fatal: Could not create directory '%s': %v", cfg.LogsPath, err)
	}

	output := filepath.Join(cfg.LogsPath, "esparcraftd.log")
	if config.IsDev() {
		output = "stderr"
	}
	logg := logger.New(logger.Config{
		Level:      cfg.LogLevel,
		Output:     output,
		Format:     cfg.LogFormat,
		MaxSizeMB:  10,
		MaxBackups: 3,
		MaxAgeDays: 14,
	})

	fmt.Printf("Using config directory: %s\n", configDir)
	fmt.Printf("Using servers file: %s\n", cfg.ServersFile)
	fmt.Printf("Using database: %s\n", cfg.DatabasePath)

	store, err := storage.NewGormStore(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Fatal: Could not connect to DB: %v", err)
	}
	defer store.Close()

	decoder, err := console.NewDecoder(cfg.ConsoleEncoding)
	if err != nil {
		logg.Warn("unknown console encoding, falling back to utf-8", "encoding", cfg.ConsoleEncoding, "error", err)
		decoder, _ = console.NewDecoder("utf-8")
	}

	detector := jvm.NewDetector()
	env := detector.Detect(javaOverride(cfg, store))
	if env.Available() {
		logg.Info("java runtime detected", "path", env.JavaPath, "version", env.Version, "source", env.Source)
	} else {
		logg.Warn("no java runtime found; servers cannot start until one is configured")
	}

	hub := events.NewHub(1024)
	go hub.Run()

	archive := logger.NewConsoleArchive(cfg.LogsPath)
	defer archive.Close()

	registry := session.NewRegistry(hub, logg.With("component", "session"),
		session.WithInterval(cfg.DrainInterval()),
		session.WithSink(archive),
	)

	supervisor := runner.NewSupervisor(registry, env, runner.Options{
		StopTimeout: cfg.StopTimeout(),
		Restart:     runner.DefaultRestartPolicy(),
		Decoder:     decoder,
		Log:         logg.With("component", "runner"),
	})

	manager := server.NewManager(config.NewServersFile(cfg.ServersFile), registry, server.ManagerOptions{
		History:   store,
		Processes: supervisor,
		NewSession: func(sc domain.ServerConfig) *session.Session {
			return session.New(sc,
				session.WithLogLimits(cfg.LogCap, cfg.LogKeep),
				session.WithReadyMarker(cfg.ReadyMarker),
				session.WithSampler(perf.NewSampler(perf.WithWindow(cfg.SampleWindow()))),
			)
		},
		Log: logg.With("component", "server"),
	})
	if err := manager.Load(); err != nil {
		log.Fatalf("Fatal: Could not load servers: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	watcher, err := server.NewWatcher(manager, logg.With("component", "watcher"))
	if err != nil {
		logg.Warn("usercache watching disabled", "error", err)
	} else {
		watcher.Sync()
		go watcher.Run(ctx)
	}
	go followConfig(ctx, hub, watcher, archive)

	go store.Record(hub.Listen(events.KindPlayer), logg.With("component", "storage"))

	collector := metrics.New(func() float64 { return float64(hub.Dropped()) })
	go collector.Consume(hub.Listen(metrics.Kinds...))

	go registry.Run(ctx)

	container := &app.Container{
		Hub:           hub,
		Registry:      registry,
		ServerManager: manager,
		Supervisor:    supervisor,
		Store:         store,
		Metrics:       collector,
		Console:       ws.NewConsole(hub, registry, supervisor, logg.With("component", "ws")),
		Detector:      detector,
		Log:           logg.With("component", "api"),
	}
	apiServer := api.NewAPIServer(container)

	listenAddr := fmt.Sprintf(":%d", cfg.GetPort())
	fmt.Printf("API Server listening on %s\n", listenAddr)

	serveErr := make(chan error, 1)
	go func() { serveErr <- apiServer.Start(listenAddr) }()

	select {
	case err := <-serveErr:
		if err != nil {
			logg.Error("api server failed", "error", err)
		}
	case <-ctx.Done():
		logg.Info("shutting down")
	}

	shutdownCtx, done := context.WithTimeout(context.Background(), shutdownTimeout)
	defer done()
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logg.Warn("api shutdown", "error", err)
	}
	supervisor.StopAll(shutdownCtx)
	cancel()
	registry.DrainOnce(time.Now())
	hub.Stop()
}

func javaOverride(cfg *config.Config, store *storage.GormStore) string {
	path, err := store.GetSetting(storage.SettingJavaPath)
	if err == nil && path != "" {
		return path
	}
	if err != nil && !errors.Is(err, storage.ErrSettingNotFound) {
		log.Printf("Warning: could not read java setting: %v", err)
	}
	return cfg.JavaPath
}

// followConfig keeps the usercache watch list and the console archive in step
// with servers being added, moved or removed.
func followConfig(ctx context.Context, hub *events.Hub, watcher *server.Watcher, archive *logger.ConsoleArchive) {
	sub := hub.Listen(events.KindConfig)
	defer hub.Unsubscribe(sub)
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-sub.C():
			if !ok {
				return
			}
			if watcher != nil {
				watcher.Sync()
			}
			if ev.Removed {
				archive.Forget(ev.ServerID)
			}
		}
	}
}
