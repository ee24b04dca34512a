package server

import (
	"context"
	"path/filepath"
	"sync"

	"esparcraft/internal/logger"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads a server's usercache when the game rewrites usercache.json.
type Watcher struct {
	manager *Manager
	log     logger.Logger
	fs      *fsnotify.Watcher

	mu   sync.Mutex
	dirs map[string]map[string]struct{} // cleaned dir -> server ids
}

func NewWatcher(manager *Manager, log logger.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.Noop()
	}
	return &Watcher{
		manager: manager,
		log:     log,
		fs:      fw,
		dirs:    make(map[string]map[string]struct{}),
	}, nil
}

func (w *Watcher) Sync() {
	want := make(map[string]map[string]struct{})
	for _, cfg := range w.manager.ListServers() {
		dir := filepath.Clean(cfg.Path)
		if want[dir] == nil {
			want[dir] = make(map[string]struct{})
		}
		want[dir][cfg.ID] = struct{}{}
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	for dir := range w.dirs {
		if _, ok := want[dir]; !ok {
			_ = w.fs.Remove(dir)
			delete(w.dirs, dir)
		}
	}
	for dir, ids := range want {
		if _, ok := w.dirs[dir]; !ok {
			if err := w.fs.Add(dir); err != nil {
				w.log.Debug("cannot watch server dir", "dir", dir, "error", err)
				continue
			}
		}
		w.dirs[dir] = ids
	}
}

func (w *Watcher) watched(dir string) []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	ids := make([]string, 0, len(w.dirs[dir]))
	for id := range w.dirs[dir] {
		ids = append(ids, id)
	}
	return ids
}

func (w *Watcher) Run(ctx context.Context) {
	defer w.fs.Close()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if filepath.Base(ev.Name) != UsercacheFile {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			for _, id := range w.watched(filepath.Dir(ev.Name)) {
				if err := w.manager.ReloadUsercache(id); err != nil {
					w.log.Debug("usercache reload skipped", "server", id, "error", err)
				}
			}
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.log.Warn("file watcher error", "error", err)
		}
	}
}
