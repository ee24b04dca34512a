package runner

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"esparcraft/internal/domain"
	"esparcraft/internal/jvm"
	"esparcraft/internal/logger"
	"esparcraft/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fakeServer = `#!/bin/sh
echo "args: $*"
echo "[Server thread/INFO]: Starting minecraft server"
echo "[Server thread/INFO]: Done (0.1s)! For help, type \"help\""
while IFS= read -r line; do
  case "$line" in
    stop) echo "[Server thread/INFO]: Stopping the server"; exit 0 ;;
    crash)
      echo "[Server thread/INFO]: Alice joined the game"
      echo "[Server thread/INFO]: Bob joined the game"
      exit 1 ;;
    *) echo "echo: $line" ;;
  esac
done
`

const stubbornServer = `#!/bin/sh
echo "Done (0.1s)!"
while IFS= read -r line; do
  echo "ignoring $line"
done
`

const crashingServer = `#!/bin/sh
echo "Loading libraries"
exit 1
`

type fixture struct {
	dir  string
	reg  *session.Registry
	sess *session.Session
	sup  *Supervisor
}

func newFixture(t *testing.T, script string, cfgMut func(*domain.ServerConfig), opts Options) *fixture {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script stands in for java")
	}
	dir := t.TempDir()
	java := filepath.Join(dir, "java")
	require.NoError(t, os.WriteFile(java, []byte(script), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "server.jar"), nil, 0o644))

	cfg := domain.ServerConfig{ID: "srv", Name: "test", Jar: "server.jar", RAMMin: 1, RAMMax: 2, Path: dir}
	if cfgMut != nil {
		cfgMut(&cfg)
	}
	reg := session.NewRegistry(nil, logger.Noop())
	sess := session.New(cfg)
	require.NoError(t, reg.Add(sess))

	if opts.Log == nil {
		opts.Log = logger.Noop()
	}
	sup := NewSupervisor(reg, jvm.RuntimeEnvironment{JavaPath: java, Version: "17.0.9", Major: 17}, opts)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		sup.StopAll(ctx)
	})
	return &fixture{dir: dir, reg: reg, sess: sess, sup: sup}
}

func (f *fixture) waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	require.Eventually(t, func() bool {
		f.reg.DrainOnce(time.Now())
		return cond()
	}, 10*time.Second, 10*time.Millisecond)
}

func (f *fixture) hasLine(sub string) bool {
	for _, l := range f.sess.Logs(0, 0) {
		if strings.Contains(l.Text, sub) {
			return true
		}
	}
	return false
}

func (f *fixture) count(sub string) int {
	n := 0
	for _, l := range f.sess.Logs(0, 0) {
		if strings.Contains(l.Text, sub) {
			n++
		}
	}
	return n
}

func (f *fixture) line(t *testing.T, sub string) domain.LogLine {
	t.Helper()
	for _, l := range f.sess.Logs(0, 0) {
		if strings.Contains(l.Text, sub) {
			return l
		}
	}
	t.Fatalf("no line containing %q", sub)
	return domain.LogLine{}
}

func TestStartReachesOnlineThenStops(t *testing.T) {
	f := newFixture(t, fakeServer, nil, Options{})

	require.NoError(t, f.sup.Start("srv"))
	f.waitFor(t, func() bool { return f.sess.State() == domain.StateOnline })

	assert.True(t, f.hasLine("Iniciando servidor"))
	args := f.line(t, "args:").Text
	assert.Contains(t, args, "-Xms1G -Xmx2G -jar "+filepath.Join(f.dir, "server.jar")+" nogui")
	assert.True(t, f.sup.IsRunning("srv"))

	require.NoError(t, f.sup.Stop("srv"))
	assert.Equal(t, domain.StateStopping, f.sess.State())
	f.waitFor(t, func() bool { return f.sess.State() == domain.StateOffline })

	assert.True(t, f.hasLine("Deteniéndose"))
	assert.Equal(t, "SYSTEM", f.line(t, "code=0").Category)
	assert.False(t, f.sup.IsRunning("srv"))
}

func TestStartWhileRunningIsNoop(t *testing.T) {
	f := newFixture(t, fakeServer, nil, Options{})

	require.NoError(t, f.sup.Start("srv"))
	pid := f.sess.Snapshot().PID
	run := f.sess.Run()

	require.NoError(t, f.sup.Start("srv"))
	assert.Equal(t, pid, f.sess.Snapshot().PID)
	assert.Equal(t, run, f.sess.Run())
}

func TestStopWhenOfflineIsNoop(t *testing.T) {
	f := newFixture(t, fakeServer, nil, Options{})
	require.NoError(t, f.sup.Stop("srv"))
	f.reg.DrainOnce(time.Now())
	assert.Empty(t, f.sess.Logs(0, 0))
	assert.Equal(t, domain.StateOffline, f.sess.State())
}

func TestCrashMovesPlayersOffline(t *testing.T) {
	f := newFixture(t, fakeServer, nil, Options{})

	require.NoError(t, f.sup.Start("srv"))
	f.waitFor(t, func() bool { return f.sess.State() == domain.StateOnline })
	require.NoError(t, f.sup.SendCommand("srv", "crash"))
	f.waitFor(t, func() bool { return f.hasLine("code=1") })

	p := f.sess.Players()
	assert.Empty(t, p.Online)
	assert.ElementsMatch(t, []string{"Alice", "Bob"}, p.Offline)

	v := f.sess.Snapshot()
	assert.False(t, v.Running)
	assert.False(t, v.Ready)
	assert.False(t, v.Starting)
	assert.False(t, v.Stopping)
	assert.Equal(t, "SYSTEM", f.line(t, "code=1").Category)
}

func TestKill(t *testing.T) {
	f := newFixture(t, stubbornServer, nil, Options{})

	require.NoError(t, f.sup.Start("srv"))
	f.waitFor(t, func() bool { return f.sess.State() == domain.StateOnline })

	require.NoError(t, f.sup.Kill("srv"))
	assert.False(t, f.sess.Running())
	assert.False(t, f.sup.IsRunning("srv"))

	f.reg.DrainOnce(time.Now())
	assert.Equal(t, "ERROR", f.line(t, "finalizado forzosamente").Category)
	assert.ErrorIs(t, f.sup.Kill("srv"), ErrNotRunning)
}

func TestStopTimeoutEscalatesToKill(t *testing.T) {
	f := newFixture(t, stubbornServer, nil, Options{StopTimeout: 200 * time.Millisecond})

	require.NoError(t, f.sup.Start("srv"))
	f.waitFor(t, func() bool { return f.sess.State() == domain.StateOnline })
	require.NoError(t, f.sup.Stop("srv"))
	require.NoError(t, f.sup.Stop("srv"))

	f.waitFor(t, func() bool { return f.hasLine("forzosamente") && f.hasLine("code=") })
	assert.True(t, f.hasLine("no se detuvo"))
	assert.True(t, f.hasLine("ignoring stop"))
	assert.Equal(t, domain.StateOffline, f.sess.State())
}

func TestMissingJava(t *testing.T) {
	f := newFixture(t, fakeServer, nil, Options{})
	sup := NewSupervisor(f.reg, jvm.RuntimeEnvironment{}, Options{})

	assert.ErrorIs(t, sup.Start("srv"), ErrJavaNotFound)
	f.reg.DrainOnce(time.Now())
	assert.Equal(t, "ERROR", f.line(t, "Java no encontrado").Category)
	assert.Equal(t, domain.StateOffline, f.sess.State())
}

func TestMissingJar(t *testing.T) {
	f := newFixture(t, fakeServer, func(c *domain.ServerConfig) { c.Jar = "paper.jar" }, Options{})

	assert.ErrorIs(t, f.sup.Start("srv"), ErrJarNotFound)
	f.reg.DrainOnce(time.Now())
	assert.True(t, f.hasLine("paper.jar"))
	assert.False(t, f.sup.IsRunning("srv"))
	assert.Equal(t, domain.StateOffline, f.sess.State())
}

func TestSendCommandEchoes(t *testing.T) {
	f := newFixture(t, fakeServer, nil, Options{})
	assert.ErrorIs(t, f.sup.SendCommand("srv", "list"), ErrNotRunning)

	require.NoError(t, f.sup.Start("srv"))
	require.NoError(t, f.sup.SendCommand("srv", "list\n"))
	require.NoError(t, f.sup.SendCommand("srv", "   "))
	f.waitFor(t, func() bool { return f.hasLine("echo: list") })

	assert.Equal(t, "COMMAND", f.line(t, "> list").Category)
	assert.Equal(t, 1, f.count("> "))
}

func TestPlayerActionSendsCommand(t *testing.T) {
	f := newFixture(t, fakeServer, nil, Options{})
	require.NoError(t, f.sup.Start("srv"))

	require.NoError(t, f.sup.PlayerAction("srv", ActionKick, "Steve", "  be  nice "))
	f.waitFor(t, func() bool { return f.hasLine("echo: kick Steve be nice") })
	assert.ErrorIs(t, f.sup.PlayerAction("srv", ActionOp, "x", ""), ErrInvalidAction)
}

func TestUnknownServer(t *testing.T) {
	f := newFixture(t, fakeServer, nil, Options{})
	assert.ErrorIs(t, f.sup.Start("nope"), ErrUnknownServer)
	assert.ErrorIs(t, f.sup.Stop("nope"), ErrUnknownServer)
	assert.ErrorIs(t, f.sup.Kill("nope"), ErrUnknownServer)
}

func TestAutoRestartGivesUpOnCrashLoop(t *testing.T) {
	policy := RestartPolicy{Base: 20 * time.Millisecond, Max: 50 * time.Millisecond, Limit: 2, Window: time.Minute}
	f := newFixture(t, crashingServer, func(c *domain.ServerConfig) { c.AutoRestart = true }, Options{Restart: policy})

	require.NoError(t, f.sup.Start("srv"))
	f.waitFor(t, func() bool { return f.hasLine("Reinicio automático cancelado") })

	assert.Equal(t, 3, f.count("Iniciando servidor"))
	assert.Equal(t, 2, f.count("Reiniciando en"))
	assert.Equal(t, 3, f.count("code=1"))
}

func TestNoAutoRestartAfterStop(t *testing.T) {
	policy := RestartPolicy{Base: 10 * time.Millisecond, Max: 10 * time.Millisecond, Limit: 5, Window: time.Minute}
	f := newFixture(t, fakeServer, func(c *domain.ServerConfig) { c.AutoRestart = true }, Options{Restart: policy})

	require.NoError(t, f.sup.Start("srv"))
	require.NoError(t, f.sup.Stop("srv"))
	f.waitFor(t, func() bool { return f.hasLine("code=0") })
	time.Sleep(50 * time.Millisecond)
	f.reg.DrainOnce(time.Now())
	assert.Equal(t, 1, f.count("Iniciando servidor"))
}

func TestStopAllStopsEverything(t *testing.T) {
	f := newFixture(t, fakeServer, nil, Options{})
	require.NoError(t, f.sup.Start("srv"))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	f.sup.StopAll(ctx)

	assert.False(t, f.sup.IsRunning("srv"))
	assert.Error(t, f.sup.Start("srv"))
}

const noisyServer = `#!/bin/sh
head -c 2000000 /dev/zero | tr '\0' x
echo
echo "[Server thread/INFO]: Done (0.1s)! For help, type \"help\""
echo "[Server thread/INFO]: Steve joined the game"
while IFS= read -r line; do
  case "$line" in
    stop) exit 0 ;;
  esac
done
`

func TestOversizedLineDoesNotSilenceConsole(t *testing.T) {
	f := newFixture(t, noisyServer, nil, Options{})

	require.NoError(t, f.sup.Start("srv"))
	f.waitFor(t, func() bool {
		return f.sess.State() == domain.StateOnline && len(f.sess.Players().Online) == 1
	})

	assert.Equal(t, []string{"Steve"}, f.sess.Players().Online)
	long := f.line(t, "xxxx")
	assert.Len(t, long.Text, maxLineBytes)
}

func TestStartRecoversFromConsolePipeFailure(t *testing.T) {
	f := newFixture(t, fakeServer, nil, Options{})

	orig := newPipe
	newPipe = func() (*os.File, *os.File, error) { return nil, nil, os.ErrPermission }
	t.Cleanup(func() { newPipe = orig })

	err := f.sup.Start("srv")
	require.ErrorIs(t, err, os.ErrPermission)
	assert.False(t, f.sup.IsRunning("srv"))
	assert.False(t, f.sess.Running())

	newPipe = orig
	require.NoError(t, f.sup.Start("srv"))
	f.waitFor(t, func() bool { return f.sess.State() == domain.StateOnline })
}
