package logger

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"esparcraft/internal/domain"

	"gopkg.in/natefinch/lumberjack.v2"
)

type ConsoleArchive struct {
	dir     string
	mu      sync.Mutex
	writers map[string]*lumberjack.Logger
	now     func() time.Time
}

func NewConsoleArchive(dir string) *ConsoleArchive {
	return &ConsoleArchive{
		dir:     dir,
		writers: make(map[string]*lumberjack.Logger),
		now:     time.Now,
	}
}

func (a *ConsoleArchive) Path(serverID string) string {
	return filepath.Join(a.dir, serverID+".log")
}

func (a *ConsoleArchive) Append(serverID string, lines []domain.LogLine) error {
	if len(lines) == 0 {
		return nil
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	w, ok := a.writers[serverID]
	if !ok {
		w = &lumberjack.Logger{
			Filename:   a.Path(serverID),
			MaxSize:    20,
			MaxBackups: 5,
			MaxAge:     30,
			Compress:   true,
		}
		a.writers[serverID] = w
	}

	stamp := a.now().Format("2006-01-02 15:04:05")
	buf := make([]byte, 0, 128*len(lines))
	for _, l := range lines {
		buf = fmt.Appendf(buf, "%s [%s] %s\n", stamp, l.Category, l.Text)
	}
	_, err := w.Write(buf)
	return err
}

func (a *ConsoleArchive) Forget(serverID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if w, ok := a.writers[serverID]; ok {
		_ = w.Close()
		delete(a.writers, serverID)
	}
}

func (a *ConsoleArchive) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	var firstErr error
	for id, w := range a.writers {
		if err := w.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(a.writers, id)
	}
	return firstErr
}
