package session

import (
	"fmt"
	"time"

	"esparcraft/internal/console"
	"esparcraft/internal/domain"
	"esparcraft/internal/players"
)

type Result struct {
	Lines        []domain.LogLine
	Players      []players.Event
	Exits        []int
	Cleared      bool
	StateChanged bool
	State        domain.State

	// ClearedBefore is the first index that survived the last clear.
	ClearedBefore int64
}

func (r Result) Empty() bool {
	return len(r.Lines) == 0 && len(r.Players) == 0 && len(r.Exits) == 0 && !r.Cleared && !r.StateChanged
}

func ExitLine(code int) string {
	return fmt.Sprintf("SYSTEM: Proceso finalizado (code=%d)", code)
}

// Drain moves queued output into the log buffer in arrival order, applies
// player events and readiness, and handles process exits. It is meant to be
// called from a single goroutine.
func (s *Session) Drain(now time.Time) Result {
	items := s.pending.take()

	s.mu.Lock()
	defer s.mu.Unlock()

	before := s.stateLocked()
	var res Result
	for _, e := range items {
		switch e.kind {
		case entryClear:
			s.logs = nil
			res.Cleared = true
			res.ClearedBefore = s.nextIndex

		case entryLine:
			res.Lines = append(res.Lines, s.appendLocked(e.text, e.category))
			if !e.fromProcess {
				continue
			}
			if e.run == s.run && s.running && !s.ready && s.isReady(e.text) {
				s.ready = true
				s.starting = false
			}
			if ev, ok := players.ParseEvent(e.text); ok {
				if s.roster.Apply(ev) {
					res.Players = append(res.Players, ev)
				}
			}

		case entryExit:
			// The exit of an older run only closes out its players; a newer
			// run already owns the flags.
			if e.run == s.run {
				s.resetLocked(now)
			}
			for _, name := range s.roster.DropAll() {
				res.Players = append(res.Players, players.Event{Direction: players.Leave, Name: name})
			}
			res.Lines = append(res.Lines, s.appendLocked(ExitLine(e.code), console.CategorySystem))
			res.Exits = append(res.Exits, e.code)
		}
	}

	if len(items) > 0 {
		s.updatedAt = now
	}
	res.State = s.stateLocked()
	res.StateChanged = res.State != before
	return res
}

func (s *Session) appendLocked(text string, category console.Category) domain.LogLine {
	if category == "" {
		category = console.Classify(text)
	}
	line := domain.LogLine{Index: s.nextIndex, Text: text, Category: string(category)}
	s.nextIndex++
	s.logs = append(s.logs, line)
	if len(s.logs) > s.logCap {
		kept := make([]domain.LogLine, s.logKeep)
		copy(kept, s.logs[len(s.logs)-s.logKeep:])
		s.logs = kept
	}
	return line
}

func (s *Session) SamplePerf() (domain.Perf, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running || s.pid <= 0 {
		return s.perf, false
	}
	p := s.sampler.Sample(s.pid)
	changed := !p.SampledAt.Equal(s.perf.SampledAt)
	s.perf = p
	return p, changed
}
