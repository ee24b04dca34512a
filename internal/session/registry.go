package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"esparcraft/internal/domain"
	"esparcraft/internal/events"
	"esparcraft/internal/logger"
	"esparcraft/internal/players"
)

const DefaultDrainInterval = 80 * time.Millisecond

type LineSink interface {
	Append(serverID string, lines []domain.LogLine) error
}

// Registry holds the sessions in creation order and runs the drain loop that
// feeds them.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	order    []string

	hub      *events.Hub
	sink     LineSink
	log      logger.Logger
	interval time.Duration
}

type RegistryOption func(*Registry)

func WithInterval(d time.Duration) RegistryOption {
	return func(r *Registry) {
		if d > 0 {
			r.interval = d
		}
	}
}

func WithSink(sink LineSink) RegistryOption {
	return func(r *Registry) { r.sink = sink }
}

func NewRegistry(hub *events.Hub, log logger.Logger, opts ...RegistryOption) *Registry {
	if log == nil {
		log = logger.Noop()
	}
	r := &Registry{
		sessions: make(map[string]*Session),
		hub:      hub,
		log:      log,
		interval: DefaultDrainInterval,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Registry) Add(s *Session) error {
	id := s.ID()
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.sessions[id]; exists {
		return fmt.Errorf("session %s already registered", id)
	}
	r.sessions[id] = s
	r.order = append(r.order, id)
	return nil
}

func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

func (r *Registry) List() []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Session, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.sessions[id])
	}
	return out
}

func (r *Registry) Remove(id string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, false
	}
	delete(r.sessions, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return s, true
}

// Run drains every session on each tick until ctx is done, then drains once
// more so nothing queued before shutdown is lost.
func (r *Registry) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.log.Info("drain loop started", "interval", r.interval)
	for {
		select {
		case <-ctx.Done():
			r.DrainOnce(time.Now())
			r.log.Info("drain loop stopped")
			return
		case now := <-ticker.C:
			r.DrainOnce(now)
		}
	}
}

func (r *Registry) DrainOnce(now time.Time) {
	for _, s := range r.List() {
		id := s.ID()
		res := s.Drain(now)
		if !res.Empty() {
			r.archive(id, res.Lines)
			r.publishResult(id, res)
		}
		if p, changed := s.SamplePerf(); changed {
			perf := p
			r.publish(events.Event{Kind: events.KindPerf, ServerID: id, Perf: &perf})
		}
	}
}

func (r *Registry) archive(id string, lines []domain.LogLine) {
	if r.sink == nil || len(lines) == 0 {
		return
	}
	if err := r.sink.Append(id, lines); err != nil {
		r.log.Warn("console archive write failed", "server", id, "error", err)
	}
}

func (r *Registry) publishResult(id string, res Result) {
	for i := range res.Lines {
		line := res.Lines[i]
		r.publish(events.Event{Kind: events.KindLog, ServerID: id, Log: &line})
	}
	if res.Cleared {
		r.publish(events.Event{Kind: events.KindClear, ServerID: id, Log: &domain.LogLine{Index: res.ClearedBefore}})
	}
	for _, ev := range res.Players {
		r.publish(events.Event{
			Kind:     events.KindPlayer,
			ServerID: id,
			Player:   &events.PlayerChange{Name: ev.Name, Joined: ev.Direction == players.Join},
		})
	}
	for _, code := range res.Exits {
		c := code
		r.publish(events.Event{Kind: events.KindExit, ServerID: id, ExitCode: &c})
	}
	if res.StateChanged {
		r.publish(events.Event{Kind: events.KindState, ServerID: id, State: res.State})
	}
}

func (r *Registry) PublishState(s *Session) {
	r.publish(events.Event{Kind: events.KindState, ServerID: s.ID(), State: s.State()})
}

func (r *Registry) PublishConfig(cfg domain.ServerConfig, removed bool) {
	c := cfg
	r.publish(events.Event{Kind: events.KindConfig, ServerID: cfg.ID, Config: &c, Removed: removed})
}

func (r *Registry) publish(ev events.Event) {
	if r.hub == nil {
		return
	}
	if !r.hub.Publish(ev) {
		r.log.Debug("event dropped", "kind", ev.Kind, "server", ev.ServerID)
	}
}
