package session

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"esparcraft/internal/console"
	"esparcraft/internal/domain"
	"esparcraft/internal/perf"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubStats struct{ calls int }

func (s *stubStats) CPUPercent() (float64, error) {
	s.calls++
	return 80, nil
}

func (s *stubStats) RSS() (uint64, error) { return 256 << 20, nil }

func newTestSession(t *testing.T, opts ...Option) (*Session, *stubStats) {
	t.Helper()
	st := &stubStats{}
	sampler := perf.NewSampler(perf.WithCores(4), perf.WithOpener(func(int) (perf.Stats, error) {
		return st, nil
	}))
	opts = append([]Option{WithSampler(sampler)}, opts...)
	return New(domain.ServerConfig{ID: "s1", Name: "survival"}, opts...), st
}

func texts(lines []domain.LogLine) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l.Text
	}
	return out
}

func TestDrainKeepsOrderAndClassifies(t *testing.T) {
	s, _ := newTestSession(t)
	run := s.BeginRun(100, time.Now())
	s.PushLine(run, "[Server thread/INFO]: Starting minecraft server")
	s.PushLine(run, "[Server thread/WARN]: Can't keep up!")
	s.Emit(console.CategoryCommand, "> list")

	res := s.Drain(time.Now())
	require.Len(t, res.Lines, 3)
	assert.Equal(t, []int64{0, 1, 2}, []int64{res.Lines[0].Index, res.Lines[1].Index, res.Lines[2].Index})
	assert.Equal(t, "INFO", res.Lines[0].Category)
	assert.Equal(t, "WARN", res.Lines[1].Category)
	assert.Equal(t, "COMMAND", res.Lines[2].Category)
	assert.Equal(t, texts(res.Lines), texts(s.Logs(0, 0)))
}

func TestReadyOnDone(t *testing.T) {
	s, _ := newTestSession(t)
	run := s.BeginRun(100, time.Now())
	assert.Equal(t, domain.StateStarting, s.State())

	s.PushLine(run, "Preparing level \"world\"")
	s.Drain(time.Now())
	assert.Equal(t, domain.StateStarting, s.State())

	s.PushLine(run, "[Server thread/INFO]: Done (4.512s)! For help, type \"help\"")
	res := s.Drain(time.Now())
	assert.True(t, res.StateChanged)
	assert.Equal(t, domain.StateOnline, res.State)

	v := s.Snapshot()
	assert.True(t, v.Running)
	assert.True(t, v.Ready)
	assert.False(t, v.Starting)
}

func TestReadyIsCaseSensitive(t *testing.T) {
	s, _ := newTestSession(t)
	run := s.BeginRun(100, time.Now())
	s.PushLine(run, "done loading")
	s.Drain(time.Now())
	assert.Equal(t, domain.StateStarting, s.State())
}

func TestReadyMarkerOverride(t *testing.T) {
	s, _ := newTestSession(t, WithReadyMarker("Listo"))
	run := s.BeginRun(1, time.Now())
	s.PushLine(run, "Done (1s)")
	s.Drain(time.Now())
	assert.Equal(t, domain.StateStarting, s.State())
	s.PushLine(run, "Servidor Listo")
	s.Drain(time.Now())
	assert.Equal(t, domain.StateOnline, s.State())

	cfg := s.Config()
	cfg.ReadyMarker = "Ready!"
	s.UpdateConfig(cfg)
	run = s.BeginRun(2, time.Now())
	s.PushLine(run, "Servidor Listo")
	s.PushLine(run, "Ready!")
	s.Drain(time.Now())
	assert.Equal(t, domain.StateOnline, s.State())
}

func TestEmittedLinesDoNotTriggerReadyOrPlayers(t *testing.T) {
	s, _ := newTestSession(t)
	s.BeginRun(1, time.Now())
	s.Emit(console.CategoryCommand, "> say Done, Steve joined the game")
	s.Drain(time.Now())
	assert.Equal(t, domain.StateStarting, s.State())
	assert.Empty(t, s.Players().Online)
}

func TestJoinLeaveRejoin(t *testing.T) {
	s, _ := newTestSession(t)
	run := s.BeginRun(1, time.Now())
	s.PushLine(run, "A_1 joined the game")
	s.PushLine(run, "A_1 left the game")
	s.PushLine(run, "A_1 joined the game")
	res := s.Drain(time.Now())

	assert.Len(t, res.Players, 3)
	p := s.Players()
	assert.Equal(t, []string{"A_1"}, p.Online)
	assert.Empty(t, p.Offline)
	assert.Empty(t, p.KnownOffline)
}

func TestDuplicateJoinIsNotAnEvent(t *testing.T) {
	s, _ := newTestSession(t)
	run := s.BeginRun(1, time.Now())
	s.PushLine(run, "Steve joined the game")
	s.PushLine(run, "Steve joined the game")
	res := s.Drain(time.Now())
	assert.Len(t, res.Players, 1)
	assert.Equal(t, []string{"Steve"}, s.Players().Online)
}

func TestExitResetsEverything(t *testing.T) {
	s, _ := newTestSession(t)
	run := s.BeginRun(1, time.Now())
	s.PushLine(run, "Done (1.0s)!")
	s.PushLine(run, "Alice joined the game")
	s.PushLine(run, "Bob joined the game")
	s.Drain(time.Now())
	require.True(t, s.BeginStop(time.Now()))

	s.PushExit(run, 1)
	res := s.Drain(time.Now())

	assert.Equal(t, []int{1}, res.Exits)
	assert.Equal(t, domain.StateOffline, res.State)
	v := s.Snapshot()
	assert.False(t, v.Running)
	assert.False(t, v.Ready)
	assert.False(t, v.Starting)
	assert.False(t, v.Stopping)
	assert.Zero(t, v.PID)

	p := s.Players()
	assert.Empty(t, p.Online)
	assert.Equal(t, []string{"Alice", "Bob"}, p.Offline)

	last := s.Logs(0, 1)
	require.Len(t, last, 1)
	assert.Contains(t, last[0].Text, "code=1")
	assert.Equal(t, "SYSTEM", last[0].Category)
}

func TestStaleExitKeepsNewRun(t *testing.T) {
	s, _ := newTestSession(t)
	old := s.BeginRun(1, time.Now())
	s.PushLine(old, "Alice joined the game")
	s.PushExit(old, 0)

	fresh := s.BeginRun(2, time.Now())
	s.PushLine(fresh, "Done (2s)!")
	s.Drain(time.Now())

	assert.Equal(t, domain.StateOnline, s.State())
	assert.Equal(t, []string{"Alice"}, s.Players().Offline)
	assert.Equal(t, 2, s.Snapshot().PID)
}

func TestLinesFromOldRunDoNotMarkReady(t *testing.T) {
	s, _ := newTestSession(t)
	old := s.BeginRun(1, time.Now())
	s.BeginRun(2, time.Now())
	s.PushLine(old, "Done (1s)!")
	s.Drain(time.Now())
	assert.Equal(t, domain.StateStarting, s.State())
}

func TestBeginStop(t *testing.T) {
	s, _ := newTestSession(t)
	assert.False(t, s.BeginStop(time.Now()))

	s.BeginRun(1, time.Now())
	assert.True(t, s.BeginStop(time.Now()))
	assert.False(t, s.BeginStop(time.Now()))
	assert.Equal(t, domain.StateStopping, s.State())

	_, stopping := s.StoppingSince()
	assert.True(t, stopping)
}

func TestMarkKilled(t *testing.T) {
	s, _ := newTestSession(t)
	run := s.BeginRun(1, time.Now())
	s.PushLine(run, "Done")
	s.Drain(time.Now())
	s.MarkKilled(time.Now())

	assert.Equal(t, domain.StateOffline, s.State())
	assert.False(t, s.Running())

	s.PushLine(run, "Done")
	s.Drain(time.Now())
	assert.False(t, s.Snapshot().Ready)
}

func TestLogTrim(t *testing.T) {
	s, _ := newTestSession(t, WithLogLimits(50, 30))
	run := s.BeginRun(1, time.Now())
	for i := 0; i < 51; i++ {
		s.PushLine(run, fmt.Sprintf("line %d", i))
	}
	s.Drain(time.Now())

	logs := s.Logs(0, 0)
	require.Len(t, logs, 30)
	assert.Equal(t, "line 21", logs[0].Text)
	assert.Equal(t, int64(21), logs[0].Index)
	assert.Equal(t, "line 50", logs[29].Text)

	for i := 51; i < 200; i++ {
		s.PushLine(run, fmt.Sprintf("line %d", i))
	}
	s.Drain(time.Now())
	assert.LessOrEqual(t, len(s.Logs(0, 0)), 50)
	assert.Equal(t, int64(200), s.Snapshot().LogEnd)
}

func TestDefaultLogLimits(t *testing.T) {
	s, _ := newTestSession(t)
	run := s.BeginRun(1, time.Now())
	for i := 0; i < DefaultLogCap+1; i++ {
		s.PushLine(run, "x")
	}
	s.Drain(time.Now())
	assert.Len(t, s.Logs(0, 0), DefaultLogKeep)
}

func TestLogsSince(t *testing.T) {
	s, _ := newTestSession(t)
	run := s.BeginRun(1, time.Now())
	for _, l := range []string{"a", "b", "c", "d"} {
		s.PushLine(run, l)
	}
	s.Drain(time.Now())

	assert.Equal(t, []string{"c", "d"}, texts(s.Logs(2, 0)))
	assert.Equal(t, []string{"d"}, texts(s.Logs(0, 1)))
	assert.Nil(t, s.Logs(4, 0))
}

func TestClearLogs(t *testing.T) {
	s, _ := newTestSession(t)
	run := s.BeginRun(1, time.Now())
	s.PushLine(run, "a")
	s.PushLine(run, "b")
	s.ClearLogs()
	s.PushLine(run, "c")
	res := s.Drain(time.Now())

	assert.True(t, res.Cleared)
	assert.Equal(t, int64(2), res.ClearedBefore)
	assert.Len(t, res.Lines, 3)
	assert.Equal(t, []string{"c"}, texts(s.Logs(0, 0)))
}

func TestUsercache(t *testing.T) {
	s, _ := newTestSession(t)
	s.SetUsercache(map[string]string{"Notch": "069a79f4-44e9-4726-a5be-fca90e38aaf5"})
	id, ok := s.UUIDFor("notch")
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(id, "069a79f4"))
	assert.Equal(t, []string{"Notch"}, s.Players().KnownOffline)
}

func TestSamplePerf(t *testing.T) {
	s, st := newTestSession(t)
	_, changed := s.SamplePerf()
	assert.False(t, changed)

	s.BeginRun(1234, time.Now())
	p, changed := s.SamplePerf()
	require.True(t, changed)
	require.True(t, p.Available())
	assert.InDelta(t, 20.0, *p.CPU, 0.001)
	assert.InDelta(t, 256.0, *p.RAMMB, 0.001)

	_, changed = s.SamplePerf()
	assert.False(t, changed)
	assert.Equal(t, 1, st.calls)
}
