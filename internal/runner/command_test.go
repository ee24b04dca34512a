package runner

import (
	"path/filepath"
	"testing"
	"time"

	"esparcraft/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildCommand(t *testing.T) {
	dir := filepath.Join("srv", "survival")
	cfg := domain.ServerConfig{Jar: "paper-1.20.4.jar", RAMMin: 2, RAMMax: 6, Path: dir}

	cmd := BuildCommand("/usr/bin/java", cfg)
	assert.Equal(t, dir, cmd.Dir)
	assert.Equal(t, []string{
		"/usr/bin/java", "-Xms2G", "-Xmx6G", "-jar", filepath.Join(dir, "paper-1.20.4.jar"), "nogui",
	}, cmd.Args)
}

func TestJarPathAbsolute(t *testing.T) {
	abs, err := filepath.Abs("server.jar")
	require.NoError(t, err)
	assert.Equal(t, abs, JarPath(domain.ServerConfig{Jar: abs, Path: "/elsewhere"}))
}

func TestBackoff(t *testing.T) {
	base := 5 * time.Second
	max := 60 * time.Second
	cases := []struct {
		n    int
		want time.Duration
	}{
		{0, 5 * time.Second},
		{1, 5 * time.Second},
		{2, 10 * time.Second},
		{3, 20 * time.Second},
		{4, 40 * time.Second},
		{5, 60 * time.Second},
		{9, 60 * time.Second},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, Backoff(c.n, base, max), "n=%d", c.n)
	}
}

func TestRestartPolicyWindow(t *testing.T) {
	p := RestartPolicy{Base: time.Second, Max: 8 * time.Second, Limit: 2, Window: time.Minute}
	st := &restartState{}
	now := time.Unix(0, 0)

	d, ok := p.next(st, now)
	require.True(t, ok)
	assert.Equal(t, time.Second, d)

	d, ok = p.next(st, now.Add(10*time.Second))
	require.True(t, ok)
	assert.Equal(t, 2*time.Second, d)

	_, ok = p.next(st, now.Add(20*time.Second))
	assert.False(t, ok)

	d, ok = p.next(st, now.Add(2*time.Minute))
	require.True(t, ok)
	assert.Equal(t, time.Second, d)
}

func TestPlayerCommand(t *testing.T) {
	tests := []struct {
		action PlayerAction
		name   string
		reason string
		want   string
		ok     bool
	}{
		{ActionKick, "Steve", "", "kick Steve", true},
		{ActionBan, "Steve", "griefing  spawn", "ban Steve griefing spawn", true},
		{ActionPardon, "Steve", "ignored", "pardon Steve", true},
		{ActionOp, "Alex_1", "", "op Alex_1", true},
		{ActionDeop, "Alex_1", "", "deop Alex_1", true},
		{ActionKick, "no spaces", "", "", false},
		{PlayerAction("whitelist"), "Steve", "", "", false},
	}
	for _, tt := range tests {
		got, err := PlayerCommand(tt.action, tt.name, tt.reason)
		if !tt.ok {
			assert.ErrorIs(t, err, ErrInvalidAction)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}
