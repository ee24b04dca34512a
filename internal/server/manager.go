package server

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"esparcraft/internal/domain"
	"esparcraft/internal/logger"
	"esparcraft/internal/session"

	"github.com/google/uuid"
)

var (
	ErrNotFound      = errors.New("server not found")
	ErrInvalidConfig = errors.New("invalid server config")
	ErrServerRunning = errors.New("server is running")
)

type ProcessChecker interface {
	IsRunning(id string) bool
}

// Manager owns the persisted server list and keeps one session registered per
// config.
type Manager struct {
	repo       domain.ConfigRepository
	registry   *session.Registry
	history    domain.PlayerHistoryRepository
	processes  ProcessChecker
	newSession func(domain.ServerConfig) *session.Session
	log        logger.Logger

	mu      sync.Mutex
	servers []domain.ServerConfig
}

type ManagerOptions struct {
	History    domain.PlayerHistoryRepository
	Processes  ProcessChecker
	NewSession func(domain.ServerConfig) *session.Session
	Log        logger.Logger
}

func NewManager(repo domain.ConfigRepository, registry *session.Registry, opts ManagerOptions) *Manager {
	if opts.NewSession == nil {
		opts.NewSession = func(cfg domain.ServerConfig) *session.Session { return session.New(cfg) }
	}
	if opts.Log == nil {
		opts.Log = logger.Noop()
	}
	return &Manager{
		repo:       repo,
		registry:   registry,
		history:    opts.History,
		processes:  opts.Processes,
		newSession: opts.NewSession,
		log:        opts.Log,
	}
}

func (m *Manager) Load() error {
	servers, err := m.repo.Load()
	if err != nil {
		return fmt.Errorf("error loading servers: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.servers = nil
	for _, cfg := range servers {
		if cfg.ID == "" {
			cfg.ID = uuid.New().String()
		}
		if _, exists := m.registry.Get(cfg.ID); exists {
			m.log.Warn("duplicate server id in config, skipping", "server", cfg.ID)
			continue
		}
		m.servers = append(m.servers, cfg)
		m.attach(cfg)
	}
	m.log.Info("servers loaded", "count", len(m.servers))
	return nil
}

func (m *Manager) attach(cfg domain.ServerConfig) {
	sess := m.newSession(cfg)
	if err := m.registry.Add(sess); err != nil {
		m.log.Warn("could not register session", "server", cfg.ID, "error", err)
		return
	}
	m.refreshKnown(sess)
}

func (m *Manager) refreshKnown(sess *session.Session) {
	cfg := sess.Config()
	sess.SetUsercache(ReadUsercache(cfg.Path))
	if m.history == nil {
		return
	}
	names, err := m.history.KnownPlayers(cfg.ID)
	if err != nil {
		m.log.Warn("could not load player history", "server", cfg.ID, "error", err)
		return
	}
	sess.RememberPlayers(names...)
}

func (m *Manager) ListServers() []domain.ServerConfig {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.ServerConfig(nil), m.servers...)
}

func (m *Manager) GetServer(id string) (domain.ServerConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i := m.indexOf(id); i >= 0 {
		return m.servers[i], nil
	}
	return domain.ServerConfig{}, ErrNotFound
}

func (m *Manager) indexOf(id string) int {
	for i, s := range m.servers {
		if s.ID == id {
			return i
		}
	}
	return -1
}

func Validate(cfg domain.ServerConfig) error {
	var problems []string
	if strings.TrimSpace(cfg.Name) == "" {
		problems = append(problems, "name is required")
	}
	if strings.TrimSpace(cfg.Jar) == "" {
		problems = append(problems, "jar is required")
	}
	if strings.TrimSpace(cfg.Path) == "" {
		problems = append(problems, "path is required")
	}
	if cfg.RAMMin < 1 {
		problems = append(problems, "ram_min must be at least 1")
	}
	if cfg.RAMMax < cfg.RAMMin {
		problems = append(problems, "ram_max must not be lower than ram_min")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, ", "))
	}
	return nil
}

func (m *Manager) CreateServer(cfg domain.ServerConfig) (domain.ServerConfig, error) {
	cfg.ID = uuid.New().String()
	cfg.Name = strings.TrimSpace(cfg.Name)
	if err := Validate(cfg); err != nil {
		return domain.ServerConfig{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	next := append(append([]domain.ServerConfig(nil), m.servers...), cfg)
	if err := m.repo.Save(next); err != nil {
		return domain.ServerConfig{}, fmt.Errorf("error saving servers: %w", err)
	}
	m.servers = next
	m.attach(cfg)
	m.registry.PublishConfig(cfg, false)
	return cfg, nil
}

// UpdateServer replaces a config. Changes reach a running process on its next
// start.
func (m *Manager) UpdateServer(id string, cfg domain.ServerConfig) (domain.ServerConfig, error) {
	cfg.ID = id
	cfg.Name = strings.TrimSpace(cfg.Name)
	if err := Validate(cfg); err != nil {
		return domain.ServerConfig{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.indexOf(id)
	if i < 0 {
		return domain.ServerConfig{}, ErrNotFound
	}
	next := append([]domain.ServerConfig(nil), m.servers...)
	pathChanged := next[i].Path != cfg.Path
	next[i] = cfg
	if err := m.repo.Save(next); err != nil {
		return domain.ServerConfig{}, fmt.Errorf("error saving servers: %w", err)
	}
	m.servers = next
	if sess, ok := m.registry.Get(id); ok {
		sess.UpdateConfig(cfg)
		if pathChanged {
			m.refreshKnown(sess)
		}
	}
	m.registry.PublishConfig(cfg, false)
	return cfg, nil
}

func (m *Manager) DeleteServer(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.indexOf(id)
	if i < 0 {
		return ErrNotFound
	}
	if m.processes != nil && m.processes.IsRunning(id) {
		return ErrServerRunning
	}
	removed := m.servers[i]
	next := append(append([]domain.ServerConfig(nil), m.servers[:i]...), m.servers[i+1:]...)
	if err := m.repo.Save(next); err != nil {
		return fmt.Errorf("error saving servers: %w", err)
	}
	m.servers = next
	m.registry.Remove(id)
	if m.history != nil {
		if err := m.history.DeleteServerHistory(id); err != nil {
			m.log.Warn("could not delete player history", "server", id, "error", err)
		}
	}
	m.registry.PublishConfig(removed, true)
	return nil
}

func (m *Manager) dir(id string) (string, error) {
	cfg, err := m.GetServer(id)
	if err != nil {
		return "", err
	}
	return cfg.Path, nil
}

func (m *Manager) ReloadUsercache(id string) error {
	sess, ok := m.registry.Get(id)
	if !ok {
		return ErrNotFound
	}
	sess.SetUsercache(ReadUsercache(sess.Config().Path))
	return nil
}

func (m *Manager) Ops(id string) ([]domain.OpEntry, error) {
	dir, err := m.dir(id)
	if err != nil {
		return nil, err
	}
	return ReadOps(dir), nil
}

func (m *Manager) Bans(id string) ([]domain.BanEntry, error) {
	dir, err := m.dir(id)
	if err != nil {
		return nil, err
	}
	return ReadBans(dir), nil
}

type PropertiesView struct {
	Typed Typed             `json:"typed"`
	Extra map[string]string `json:"extra"`
}

func (m *Manager) Properties(id string) (PropertiesView, error) {
	dir, err := m.dir(id)
	if err != nil {
		return PropertiesView{}, err
	}
	props, err := LoadProperties(dir)
	if err != nil {
		m.log.Debug("server.properties unreadable", "server", id, "error", err)
		props = ParseProperties(nil)
	}
	return PropertiesView{Typed: props.Typed(), Extra: props.Extra()}, nil
}

// SaveProperties applies typed and raw values and rewrites the file only if
// something changed. It returns the changed keys.
func (m *Manager) SaveProperties(id string, typed *Typed, extra map[string]string) ([]string, error) {
	dir, err := m.dir(id)
	if err != nil {
		return nil, err
	}
	if fi, err := os.Stat(dir); err != nil || !fi.IsDir() {
		return nil, fmt.Errorf("%w: install path %s is not a directory", ErrInvalidConfig, dir)
	}
	props, err := LoadProperties(dir)
	if err != nil {
		return nil, err
	}
	var changed []string
	if typed != nil {
		changed = append(changed, props.ApplyTyped(*typed)...)
	}
	if len(extra) > 0 {
		keys, err := props.SetExtra(extra)
		if err != nil {
			return nil, err
		}
		changed = append(changed, keys...)
	}
	if len(changed) == 0 {
		return nil, nil
	}
	if err := props.Save(dir); err != nil {
		return nil, err
	}
	return changed, nil
}

func (m *Manager) Plugins(id string) ([]domain.Plugin, error) {
	dir, err := m.dir(id)
	if err != nil {
		return nil, err
	}
	return ListPlugins(dir)
}

func (m *Manager) TogglePlugin(id, file string) (string, error) {
	dir, err := m.dir(id)
	if err != nil {
		return "", err
	}
	return TogglePlugin(dir, file)
}

func (m *Manager) InstallPlugin(id, file string, content io.Reader) error {
	dir, err := m.dir(id)
	if err != nil {
		return err
	}
	return InstallPlugin(dir, file, content)
}

func (m *Manager) RemovePlugin(id, file string) error {
	dir, err := m.dir(id)
	if err != nil {
		return err
	}
	return RemovePlugin(dir, file)
}
