package app

import (
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

type Container struct {
	Hub           *events.Hub
	Registry      *session.Registry
	ServerManager *server.Manager
	Supervisor    *runner.Supervisor
	Store         *storage.GormStore
	Metrics       *metrics.Collector
	Console       *ws.Console
	Detector      *jvm.Detector
	Log           logger.Logger
}
