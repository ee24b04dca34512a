package runner

import "time"

type RestartPolicy struct {
	Base   time.Duration
	Max    time.Duration
	Limit  int
	Window time.Duration
}

func DefaultRestartPolicy() RestartPolicy {
	return RestartPolicy{
		Base:   5 * time.Second,
		Max:    60 * time.Second,
		Limit:  5,
		Window: 10 * time.Minute,
	}
}

// Backoff returns the delay before restart number n (1-based), doubling from
// base and capped at max.
func Backoff(n int, base, max time.Duration) time.Duration {
	if n <= 1 {
		return base
	}
	d := base
	for i := 1; i < n; i++ {
		d *= 2
		if d >= max {
			return max
		}
	}
	return d
}

type restartState struct {
	history []time.Time
	timer   *time.Timer
}

// next records a crash at now and returns the restart delay, or false once
// the crash loop limit is reached within the window.
func (p RestartPolicy) next(st *restartState, now time.Time) (time.Duration, bool) {
	cutoff := now.Add(-p.Window)
	kept := st.history[:0]
	for _, t := range st.history {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	st.history = kept
	if p.Limit > 0 && len(st.history) >= p.Limit {
		return 0, false
	}
	st.history = append(st.history, now)
	return Backoff(len(st.history), p.Base, p.Max), true
}
