package session

import (
	"sync"
	"time"

	"esparcraft/internal/console"
)

type entryKind int

const (
	entryLine entryKind = iota
	entryExit
	entryClear
)

type entry struct {
	kind entryKind
	run  uint64
	at   time.Time

	text     string
	category console.Category
	// Only process output is fed to the player parser and readiness check.
	fromProcess bool

	code int
}

type queue struct {
	mu    sync.Mutex
	items []entry
}

func (q *queue) push(e entry) {
	q.mu.Lock()
	q.items = append(q.items, e)
	q.mu.Unlock()
}

func (q *queue) take() []entry {
	q.mu.Lock()
	items := q.items
	q.items = nil
	q.mu.Unlock()
	return items
}

func (q *queue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
