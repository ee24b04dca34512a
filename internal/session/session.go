package session

import (
	"strings"
	"sync"
	"time"

	"esparcraft/internal/console"
	"esparcraft/internal/domain"
	"esparcraft/internal/perf"
	"esparcraft/internal/players"
)

const (
	DefaultLogCap  = 5000
	DefaultLogKeep = 3000
	DefaultReady   = "Done"
)

type ReadyFunc func(line string) bool

func MarkerReady(marker string) ReadyFunc {
	if marker == "" {
		marker = DefaultReady
	}
	return func(line string) bool {
		return strings.Contains(line, marker)
	}
}

// Session is the runtime state of one configured server. Process output
// arrives through a queue; logs and player state only change in Drain.
type Session struct {
	mu sync.RWMutex

	cfg           domain.ServerConfig
	defaultMarker string
	isReady       ReadyFunc

	running  bool
	starting bool
	ready    bool
	stopping bool

	run         uint64
	pid         int
	startedAt   time.Time
	stopAskedAt time.Time

	logs      []domain.LogLine
	nextIndex int64
	logCap    int
	logKeep   int

	pending queue

	roster    *players.Roster
	usercache map[string]string

	sampler *perf.Sampler
	perf    domain.Perf

	updatedAt time.Time
}

type Option func(*Session)

func WithLogLimits(capacity, keep int) Option {
	return func(s *Session) {
		if capacity > 0 {
			s.logCap = capacity
		}
		if keep > 0 {
			s.logKeep = keep
		}
	}
}

func WithSampler(sampler *perf.Sampler) Option {
	return func(s *Session) { s.sampler = sampler }
}

func WithReadyMarker(marker string) Option {
	return func(s *Session) { s.defaultMarker = marker }
}

func New(cfg domain.ServerConfig, opts ...Option) *Session {
	s := &Session{
		cfg:       cfg,
		logCap:    DefaultLogCap,
		logKeep:   DefaultLogKeep,
		roster:    players.NewRoster(),
		usercache: make(map[string]string),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logKeep > s.logCap {
		s.logKeep = s.logCap
	}
	if s.sampler == nil {
		s.sampler = perf.NewSampler()
	}
	s.isReady = s.markerFor(cfg)
	return s
}

func (s *Session) markerFor(cfg domain.ServerConfig) ReadyFunc {
	if cfg.ReadyMarker != "" {
		return MarkerReady(cfg.ReadyMarker)
	}
	return MarkerReady(s.defaultMarker)
}

func (s *Session) ID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg.ID
}

func (s *Session) Config() domain.ServerConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

func (s *Session) UpdateConfig(cfg domain.ServerConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cfg.ID = s.cfg.ID
	if cfg.ReadyMarker != s.cfg.ReadyMarker {
		s.isReady = s.markerFor(cfg)
	}
	s.cfg = cfg
}

func (s *Session) Running() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

func (s *Session) State() domain.State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stateLocked()
}

func (s *Session) stateLocked() domain.State {
	switch {
	case !s.running:
		return domain.StateOffline
	case s.stopping:
		return domain.StateStopping
	case s.ready:
		return domain.StateOnline
	default:
		return domain.StateStarting
	}
}

func (s *Session) Emit(category console.Category, text string) {
	s.mu.RLock()
	run := s.run
	s.mu.RUnlock()
	s.pending.push(entry{kind: entryLine, run: run, at: time.Now(), text: text, category: category})
}

func (s *Session) PushLine(run uint64, text string) {
	s.pending.push(entry{kind: entryLine, run: run, at: time.Now(), text: text, fromProcess: true})
}

// PushExit queues the exit of the given run. It must follow the last PushLine
// of that run.
func (s *Session) PushExit(run uint64, code int) {
	s.pending.push(entry{kind: entryExit, run: run, at: time.Now(), code: code})
}

// ClearLogs asks the drain owner to empty the log buffer. Indexes keep growing.
func (s *Session) ClearLogs() {
	s.pending.push(entry{kind: entryClear, at: time.Now()})
}

func (s *Session) Pending() int {
	return s.pending.len()
}

func (s *Session) BeginRun(pid int, at time.Time) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.run++
	s.running = true
	s.starting = true
	s.ready = false
	s.stopping = false
	s.pid = pid
	s.startedAt = at
	s.stopAskedAt = time.Time{}
	s.sampler.Reset()
	s.perf = domain.Perf{}
	s.updatedAt = at
	return s.run
}

// BeginStop marks the session STOPPING. It reports false when the session is
// not running or is already stopping.
func (s *Session) BeginStop(at time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running || s.stopping {
		return false
	}
	s.stopping = true
	s.stopAskedAt = at
	s.updatedAt = at
	return true
}

func (s *Session) MarkKilled(at time.Time) {
	s.mu.Lock()
	s.resetLocked(at)
	s.mu.Unlock()
}

func (s *Session) resetLocked(at time.Time) {
	s.running = false
	s.starting = false
	s.ready = false
	s.stopping = false
	s.pid = 0
	s.startedAt = time.Time{}
	s.stopAskedAt = time.Time{}
	s.sampler.Reset()
	s.perf = domain.Perf{}
	s.updatedAt = at
}

func (s *Session) StoppingSince() (time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stopAskedAt, s.stopping
}

func (s *Session) Run() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.run
}

func (s *Session) SetUsercache(cache map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.usercache = make(map[string]string, len(cache))
	for name, id := range cache {
		s.usercache[strings.ToLower(name)] = id
		s.roster.Remember(name)
	}
}

func (s *Session) UUIDFor(name string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.usercache[strings.ToLower(name)]
	return id, ok
}

func (s *Session) RememberPlayers(names ...string) {
	s.mu.Lock()
	s.roster.Remember(names...)
	s.mu.Unlock()
}

func (s *Session) Players() domain.PlayerSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.PlayerSummary{
		Online:       s.roster.Online(),
		Offline:      s.roster.Offline(),
		KnownOffline: s.roster.KnownOffline(),
	}
}

// Logs returns the buffered lines with index >= since, at most limit of them
// (the most recent ones) when limit > 0.
func (s *Session) Logs(since int64, limit int) []domain.LogLine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.logs) == 0 {
		return nil
	}
	first := s.logs[0].Index
	offset := since - first
	if offset < 0 {
		offset = 0
	}
	if offset >= int64(len(s.logs)) {
		return nil
	}
	tail := s.logs[offset:]
	if limit > 0 && len(tail) > limit {
		tail = tail[len(tail)-limit:]
	}
	return append([]domain.LogLine(nil), tail...)
}

func (s *Session) Perf() domain.Perf {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.perf
}

func (s *Session) Snapshot() domain.SessionView {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v := domain.SessionView{
		Config:    s.cfg,
		State:     s.stateLocked(),
		Running:   s.running,
		Starting:  s.starting,
		Ready:     s.ready,
		Stopping:  s.stopping,
		PID:       s.pid,
		Online:    s.roster.Online(),
		Perf:      s.perf,
		LogEnd:    s.nextIndex,
		UpdatedAt: s.updatedAt,
	}
	if !s.startedAt.IsZero() {
		at := s.startedAt
		v.StartedAt = &at
	}
	return v
}
