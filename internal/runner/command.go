package runner

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"esparcraft/internal/domain"
)

func JarPath(cfg domain.ServerConfig) string {
	if filepath.IsAbs(cfg.Jar) {
		return cfg.Jar
	}
	return filepath.Join(cfg.Path, cfg.Jar)
}

func BuildArgs(cfg domain.ServerConfig) []string {
	return []string{
		fmt.Sprintf("-Xms%dG", cfg.RAMMin),
		fmt.Sprintf("-Xmx%dG", cfg.RAMMax),
		"-jar", JarPath(cfg),
		"nogui",
	}
}

func checkJar(cfg domain.ServerConfig) (string, error) {
	jarFull := JarPath(cfg)
	fi, err := os.Stat(jarFull)
	if err != nil {
		if os.IsNotExist(err) {
			return jarFull, fmt.Errorf("%w: %s", ErrJarNotFound, jarFull)
		}
		return jarFull, fmt.Errorf("error accessing %s: %w", jarFull, err)
	}
	if fi.IsDir() {
		return jarFull, fmt.Errorf("%w: %s is a directory", ErrJarNotFound, jarFull)
	}
	return jarFull, nil
}

func BuildCommand(javaPath string, cfg domain.ServerConfig) *exec.Cmd {
	cmd := exec.Command(javaPath, BuildArgs(cfg)...)
	cmd.Dir = cfg.Path
	prepareCommand(cmd)
	return cmd
}
