package perf

import (
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStats struct {
	cpu   float64
	rss   uint64
	err   error
	calls int
}

func (f *fakeStats) CPUPercent() (float64, error) {
	f.calls++
	return f.cpu, f.err
}

func (f *fakeStats) RSS() (uint64, error) {
	return f.rss, f.err
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestSampler(st *fakeStats, c *clock) *Sampler {
	return NewSampler(
		WithCores(4),
		WithClock(c.now),
		WithOpener(func(pid int) (Stats, error) { return st, nil }),
	)
}

func TestSampleNormalizesByCores(t *testing.T) {
	st := &fakeStats{cpu: 200, rss: 512 * 1024 * 1024}
	c := &clock{t: time.Unix(1000, 0)}
	s := newTestSampler(st, c)

	p := s.Sample(42)
	require.True(t, p.Available())
	assert.InDelta(t, 50.0, *p.CPU, 0.001)
	assert.InDelta(t, 512.0, *p.RAMMB, 0.001)
}

func TestSampleThrottled(t *testing.T) {
	st := &fakeStats{cpu: 40, rss: 1024 * 1024}
	c := &clock{t: time.Unix(1000, 0)}
	s := newTestSampler(st, c)

	first := s.Sample(42)
	st.cpu = 400
	c.advance(time.Second)
	second := s.Sample(42)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, st.calls)

	c.advance(300 * time.Millisecond)
	third := s.Sample(42)
	assert.Equal(t, 2, st.calls)
	assert.InDelta(t, 100.0, *third.CPU, 0.001)
}

func TestSampleErrorIsUnavailable(t *testing.T) {
	st := &fakeStats{cpu: 10, rss: 10}
	c := &clock{t: time.Unix(1000, 0)}
	s := newTestSampler(st, c)
	require.True(t, s.Sample(7).Available())

	st.err = errors.New("gone")
	c.advance(2 * time.Second)
	p := s.Sample(7)
	assert.Nil(t, p.CPU)
	assert.Nil(t, p.RAMMB)
	assert.False(t, p.Available())
}

func TestSampleOpenFailure(t *testing.T) {
	s := NewSampler(WithCores(2), WithOpener(func(int) (Stats, error) {
		return nil, errors.New("no such process")
	}))
	assert.False(t, s.Sample(99999).Available())
}

func TestResetForgetsProcess(t *testing.T) {
	st := &fakeStats{cpu: 10, rss: 10}
	c := &clock{t: time.Unix(1000, 0)}
	s := newTestSampler(st, c)
	s.Sample(1)
	s.Reset()
	assert.False(t, s.Last().Available())
	s.Sample(1)
	assert.Equal(t, 2, st.calls)
}

func TestOpenProcessSelf(t *testing.T) {
	st, err := OpenProcess(os.Getpid())
	require.NoError(t, err)
	rss, err := st.RSS()
	require.NoError(t, err)
	assert.Greater(t, rss, uint64(0))
}
