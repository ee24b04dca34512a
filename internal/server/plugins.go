package server

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"esparcraft/internal/domain"

	"gopkg.in/yaml.v3"
)

const (
	PluginsDir     = "plugins"
	disabledSuffix = ".disabled"
)

var ErrInvalidPlugin = errors.New("invalid plugin file name")

func pluginsPath(serverDir string) string {
	return filepath.Join(serverDir, PluginsDir)
}

// pluginFile rejects anything that is not a bare jar name inside plugins/.
func pluginFile(serverDir, name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.Contains(name, "..") {
		return "", fmt.Errorf("%w: %q", ErrInvalidPlugin, name)
	}
	lower := strings.ToLower(name)
	if !strings.HasSuffix(lower, ".jar") && !strings.HasSuffix(lower, ".jar"+disabledSuffix) {
		return "", fmt.Errorf("%w: %q", ErrInvalidPlugin, name)
	}
	return filepath.Join(pluginsPath(serverDir), name), nil
}

func ListPlugins(serverDir string) ([]domain.Plugin, error) {
	entries, err := os.ReadDir(pluginsPath(serverDir))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []domain.Plugin{}, nil
		}
		return nil, err
	}

	plugins := []domain.Plugin{}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		lower := strings.ToLower(e.Name())
		enabled := strings.HasSuffix(lower, ".jar")
		if !enabled && !strings.HasSuffix(lower, ".jar"+disabledSuffix) {
			continue
		}
		p := domain.Plugin{File: e.Name(), Enabled: enabled}
		if info, err := e.Info(); err == nil {
			p.Size = info.Size()
		}
		p.Name, p.Version = readPluginMeta(filepath.Join(pluginsPath(serverDir), e.Name()))
		if p.Name == "" {
			p.Name = strings.TrimSuffix(strings.TrimSuffix(e.Name(), disabledSuffix), ".jar")
		}
		plugins = append(plugins, p)
	}
	sort.Slice(plugins, func(i, j int) bool {
		return strings.ToLower(plugins[i].File) < strings.ToLower(plugins[j].File)
	})
	return plugins, nil
}

func readPluginMeta(jarPath string) (string, string) {
	r, err := zip.OpenReader(jarPath)
	if err != nil {
		return "", ""
	}
	defer r.Close()

	for _, f := range r.File {
		if f.Name != "plugin.yml" && f.Name != "paper-plugin.yml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", ""
		}
		var meta struct {
			Name    string      `yaml:"name"`
			Version interface{} `yaml:"version"`
		}
		err = yaml.NewDecoder(rc).Decode(&meta)
		rc.Close()
		if err != nil {
			return "", ""
		}
		version := ""
		if meta.Version != nil {
			version = fmt.Sprintf("%v", meta.Version)
		}
		return meta.Name, version
	}
	return "", ""
}

// TogglePlugin switches a plugin between name.jar and name.jar.disabled and
// returns the new file name.
func TogglePlugin(serverDir, name string) (string, error) {
	src, err := pluginFile(serverDir, name)
	if err != nil {
		return "", err
	}
	var target string
	if strings.HasSuffix(strings.ToLower(name), disabledSuffix) {
		target = name[:len(name)-len(disabledSuffix)]
	} else {
		target = name + disabledSuffix
	}
	dst := filepath.Join(pluginsPath(serverDir), target)
	if _, err := os.Stat(dst); err == nil {
		return "", fmt.Errorf("%s already exists", target)
	}
	if err := os.Rename(src, dst); err != nil {
		return "", err
	}
	return target, nil
}

func InstallPlugin(serverDir, name string, content io.Reader) error {
	dst, err := pluginFile(serverDir, name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(pluginsPath(serverDir), 0o755); err != nil {
		return err
	}
	data, err := io.ReadAll(content)
	if err != nil {
		return err
	}
	return writeFileAtomic(dst, data, 0o644)
}

func RemovePlugin(serverDir, name string) error {
	path, err := pluginFile(serverDir, name)
	if err != nil {
		return err
	}
	return os.Remove(path)
}
