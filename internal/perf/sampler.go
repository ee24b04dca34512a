package perf

import (
	"runtime"
	"time"

	"esparcraft/internal/domain"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/process"
)

const DefaultWindow = 1200 * time.Millisecond

type Stats interface {
	// CPUPercent is the usage since the previous call, 100 per fully used core.
	CPUPercent() (float64, error)
	RSS() (uint64, error)
}

type Opener func(pid int) (Stats, error)

type Sampler struct {
	window time.Duration
	open   Opener
	now    func() time.Time
	cores  int

	pid   int
	stats Stats
	last  domain.Perf
	taken bool
}

type Option func(*Sampler)

func WithWindow(d time.Duration) Option {
	return func(s *Sampler) {
		if d > 0 {
			s.window = d
		}
	}
}

func WithOpener(open Opener) Option {
	return func(s *Sampler) { s.open = open }
}

func WithClock(now func() time.Time) Option {
	return func(s *Sampler) { s.now = now }
}

func WithCores(n int) Option {
	return func(s *Sampler) {
		if n > 0 {
			s.cores = n
		}
	}
}

func NewSampler(opts ...Option) *Sampler {
	s := &Sampler{
		window: DefaultWindow,
		open:   OpenProcess,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.cores == 0 {
		s.cores = logicalCores()
	}
	return s
}

// Sample returns the cached reading when the previous one is younger than the
// window. Any failure yields an unavailable reading instead of a stale one.
func (s *Sampler) Sample(pid int) domain.Perf {
	now := s.now()
	if s.taken && pid == s.pid && now.Sub(s.last.SampledAt) < s.window {
		return s.last
	}

	if pid != s.pid || s.stats == nil {
		s.pid = pid
		s.stats = nil
		if pid > 0 {
			st, err := s.open(pid)
			if err == nil {
				s.stats = st
			}
		}
	}

	s.last = s.read(now)
	s.taken = true
	return s.last
}

func (s *Sampler) read(now time.Time) domain.Perf {
	unavailable := domain.Perf{SampledAt: now}
	if s.stats == nil {
		return unavailable
	}
	raw, err := s.stats.CPUPercent()
	if err != nil {
		s.stats = nil
		return unavailable
	}
	rss, err := s.stats.RSS()
	if err != nil {
		s.stats = nil
		return unavailable
	}
	cpuPct := raw / float64(s.cores)
	if cpuPct > 100 {
		cpuPct = 100
	}
	ramMB := float64(rss) / (1024 * 1024)
	return domain.Perf{CPU: &cpuPct, RAMMB: &ramMB, SampledAt: now}
}

func (s *Sampler) Last() domain.Perf {
	return s.last
}

func (s *Sampler) Reset() {
	s.pid = 0
	s.stats = nil
	s.taken = false
	s.last = domain.Perf{}
}

type gopsutilStats struct {
	p *process.Process
}

func OpenProcess(pid int) (Stats, error) {
	p, err := process.NewProcess(int32(pid))
	if err != nil {
		return nil, err
	}
	st := &gopsutilStats{p: p}
	// Prime the CPU baseline so the next call measures a real interval.
	_, _ = p.Percent(0)
	return st, nil
}

func (g *gopsutilStats) CPUPercent() (float64, error) {
	return g.p.Percent(0)
}

func (g *gopsutilStats) RSS() (uint64, error) {
	mem, err := g.p.MemoryInfo()
	if err != nil {
		return 0, err
	}
	return mem.RSS, nil
}

func logicalCores() int {
	n, err := cpu.Counts(true)
	if err != nil || n <= 0 {
		return runtime.NumCPU()
	}
	return n
}
