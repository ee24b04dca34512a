package events

import (
	"sync"
	"sync/atomic"
	"time"

	"esparcraft/internal/domain"
)

type Kind string

const (
	KindLog    Kind = "log"
	KindState  Kind = "state"
	KindPlayer Kind = "player"
	KindPerf   Kind = "perf"
	KindExit   Kind = "exit"
	KindConfig Kind = "config"
	KindClear  Kind = "clear"
)

type PlayerChange struct {
	Name   string `json:"name"`
	Joined bool   `json:"joined"`
}

type Event struct {
	Kind     Kind                 `json:"kind"`
	ServerID string               `json:"server_id"`
	At       time.Time            `json:"at"`
	Log      *domain.LogLine      `json:"log,omitempty"`
	State    domain.State         `json:"state,omitempty"`
	Player   *PlayerChange        `json:"player,omitempty"`
	Perf     *domain.Perf         `json:"perf,omitempty"`
	ExitCode *int                 `json:"exit_code,omitempty"`
	Config   *domain.ServerConfig `json:"config,omitempty"`
	Removed  bool                 `json:"removed,omitempty"`
}

type Subscription struct {
	serverID string
	kinds    map[Kind]bool
	ch       chan Event
	queue    *queue
}

// C is closed when the subscription ends: Unsubscribe, hub stop, or, for
// Subscribe, falling behind.
func (s *Subscription) C() <-chan Event {
	return s.ch
}

func (s *Subscription) wants(ev Event) bool {
	if s.kinds != nil && !s.kinds[ev.Kind] {
		return false
	}
	return s.serverID == "" || ev.ServerID == "" || s.serverID == ev.ServerID
}

func (s *Subscription) end() {
	if s.queue != nil {
		s.queue.close()
		return
	}
	close(s.ch)
}

// queue is an unbounded buffer between the hub and a Listen consumer.
type queue struct {
	mu     sync.Mutex
	items  []Event
	closed bool
	wake   chan struct{}
}

func (q *queue) push(ev Event) {
	q.mu.Lock()
	q.items = append(q.items, ev)
	q.mu.Unlock()
	q.signal()
}

func (q *queue) close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.signal()
}

func (q *queue) signal() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

func (q *queue) forward(out chan<- Event) {
	defer close(out)
	for {
		q.mu.Lock()
		items, closed := q.items, q.closed
		q.items = nil
		q.mu.Unlock()

		for _, ev := range items {
			out <- ev
		}
		if closed && len(items) == 0 {
			return
		}
		if len(items) == 0 {
			<-q.wake
		}
	}
}

// Hub fans events out to subscribers from a single goroutine. Publish never
// blocks: events are dropped when the backlog is full.
type Hub struct {
	subs       map[*Subscription]bool
	publish    chan Event
	register   chan *Subscription
	unregister chan *Subscription
	stop       chan struct{}
	stopOnce   sync.Once
	done       chan struct{}

	dropped atomic.Int64
}

func NewHub(backlog int) *Hub {
	if backlog <= 0 {
		backlog = 4096
	}
	return &Hub{
		subs:       make(map[*Subscription]bool),
		publish:    make(chan Event, backlog),
		register:   make(chan *Subscription),
		unregister: make(chan *Subscription),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

func (h *Hub) Run() {
	defer close(h.done)
	for {
		select {
		case sub := <-h.register:
			h.subs[sub] = true

		case sub := <-h.unregister:
			if _, ok := h.subs[sub]; ok {
				delete(h.subs, sub)
				sub.end()
			}

		case ev := <-h.publish:
			for sub := range h.subs {
				if !sub.wants(ev) {
					continue
				}
				if sub.queue != nil {
					sub.queue.push(ev)
					continue
				}
				select {
				case sub.ch <- ev:
				default:
					delete(h.subs, sub)
					close(sub.ch)
				}
			}

		case <-h.stop:
			for sub := range h.subs {
				sub.end()
				delete(h.subs, sub)
			}
			return
		}
	}
}

func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.stop) })
	<-h.done
}

// Subscribe registers a subscriber for one server, or for all servers when
// serverID is empty.
func (h *Hub) Subscribe(serverID string, size int) *Subscription {
	if size <= 0 {
		size = 256
	}
	sub := &Subscription{serverID: serverID, ch: make(chan Event, size)}
	h.add(sub)
	return sub
}

// Listen subscribes to the given kinds on every server. Events queue up
// while the consumer is busy instead of ending the subscription.
func (h *Hub) Listen(kinds ...Kind) *Subscription {
	sub := &Subscription{
		ch:    make(chan Event),
		queue: &queue{wake: make(chan struct{}, 1)},
	}
	if len(kinds) > 0 {
		sub.kinds = make(map[Kind]bool, len(kinds))
		for _, k := range kinds {
			sub.kinds[k] = true
		}
	}
	go sub.queue.forward(sub.ch)
	h.add(sub)
	return sub
}

func (h *Hub) add(sub *Subscription) {
	select {
	case h.register <- sub:
	case <-h.stop:
		sub.end()
	}
}

func (h *Hub) Unsubscribe(sub *Subscription) {
	select {
	case h.unregister <- sub:
	case <-h.stop:
	}
}

func (h *Hub) Publish(ev Event) bool {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}
	select {
	case <-h.stop:
		return false
	default:
	}
	select {
	case h.publish <- ev:
		return true
	default:
		h.dropped.Add(1)
		return false
	}
}

func (h *Hub) Dropped() int64 {
	return h.dropped.Load()
}
