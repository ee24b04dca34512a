package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"esparcraft/internal/domain"
)

// ServersFile persists the server list as one indented JSON array. Every save
// rewrites the whole file.
type ServersFile struct {
	path string
	mu   sync.Mutex
}

func NewServersFile(path string) *ServersFile {
	return &ServersFile{path: path}
}

func (f *ServersFile) Path() string {
	return f.path
}

func (f *ServersFile) Load() ([]domain.ServerConfig, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []domain.ServerConfig{}, nil
		}
		return nil, err
	}
	servers := []domain.ServerConfig{}
	if len(data) == 0 {
		return servers, nil
	}
	if err := json.Unmarshal(data, &servers); err != nil {
		return nil, fmt.Errorf("error parsing %s: %w", f.path, err)
	}
	return servers, nil
}

func (f *ServersFile) Save(servers []domain.ServerConfig) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if servers == nil {
		servers = []domain.ServerConfig{}
	}
	data, err := json.MarshalIndent(servers, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0755); err != nil {
		return err
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	if err := os.Rename(tmp, f.path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}
