package jvm

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"runtime"
	"strconv"
	"strings"
	"time"
)

const (
	SourceOverride = "override"
	SourceJavaHome = "JAVA_HOME"
	SourceRegistry = "registry"
	SourcePath     = "PATH"
)

// RuntimeEnvironment is the Java runtime resolved once at startup. It is a
// value: pass it around, do not mutate it.
type RuntimeEnvironment struct {
	JavaPath string
	Version  string
	Major    int
	Source   string
}

func (r RuntimeEnvironment) Available() bool {
	return r.JavaPath != ""
}

type Detector struct {
	Getenv       func(string) string
	LookPath     func(string) (string, error)
	Exists       func(string) bool
	RegistryHome func() []string
	Probe        func(javaPath string) (string, error)
}

func NewDetector() *Detector {
	return &Detector{
		Getenv:       os.Getenv,
		LookPath:     exec.LookPath,
		Exists:       fileExists,
		RegistryHome: registryJavaHomes,
		Probe:        probeVersion,
	}
}

// Detect tries the override, JAVA_HOME, the Windows registry and PATH, in
// that order. A runtime that cannot be probed is still returned with an
// empty version.
func (d *Detector) Detect(override string) RuntimeEnvironment {
	path, source := d.find(override)
	if path == "" {
		return RuntimeEnvironment{}
	}
	env := RuntimeEnvironment{JavaPath: path, Source: source}
	if out, err := d.Probe(path); err == nil {
		env.Version = ParseVersion(out)
		env.Major = ParseMajor(env.Version)
	}
	return env
}

func (d *Detector) find(override string) (string, string) {
	if override != "" && d.Exists(override) {
		return override, SourceOverride
	}
	if home := d.Getenv("JAVA_HOME"); home != "" {
		if java := filepath.Join(home, "bin", javaBinName()); d.Exists(java) {
			return java, SourceJavaHome
		}
	}
	for _, home := range d.RegistryHome() {
		if java := filepath.Join(home, "bin", javaBinName()); d.Exists(java) {
			return java, SourceRegistry
		}
	}
	if java, err := d.LookPath("java"); err == nil {
		return java, SourcePath
	}
	return "", ""
}

var versionRe = regexp.MustCompile(`version\s+"([^"]+)"`)

func ParseVersion(output string) string {
	m := versionRe.FindStringSubmatch(output)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}

var digitsRe = regexp.MustCompile(`\d+`)

// ParseMajor returns the feature release of a version string: "17.0.10" is
// 17 and the legacy "1.8.0_392" is 8. Zero means unknown.
func ParseMajor(version string) int {
	parts := strings.Split(version, ".")
	if len(parts) == 0 {
		return 0
	}
	part := parts[0]
	if part == "1" && len(parts) > 1 {
		part = parts[1]
	}
	num := digitsRe.FindString(part)
	if num == "" {
		return 0
	}
	major, _ := strconv.Atoi(num)
	return major
}

func probeVersion(javaPath string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, javaPath, "-version")
	prepareCommand(cmd)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return "", err
	}
	if len(out) == 0 {
		return "", errors.New("empty java -version output")
	}
	return string(out), nil
}

func javaBinName() string {
	if runtime.GOOS == "windows" {
		return "java.exe"
	}
	return "java"
}

func fileExists(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && !fi.IsDir()
}
