package domain

import "time"

type ServerConfig struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Jar         string `json:"jar"`
	RAMMin      int    `json:"ram_min"`
	RAMMax      int    `json:"ram_max"`
	Path        string `json:"path"`
	AutoRestart bool   `json:"auto_restart"`
	ReadyMarker string `json:"ready_marker,omitempty"`
}

type State string

const (
	StateOffline  State = "OFFLINE"
	StateStarting State = "STARTING"
	StateOnline   State = "ONLINE"
	StateStopping State = "STOPPING"
)

// Perf holds the last resource sample. Nil values mean the sample failed and
// must not be read as zero.
type Perf struct {
	CPU       *float64  `json:"cpu"`
	RAMMB     *float64  `json:"ram_mb"`
	SampledAt time.Time `json:"sampled_at"`
}

func (p Perf) Available() bool {
	return p.CPU != nil && p.RAMMB != nil
}

type LogLine struct {
	Index    int64  `json:"index"`
	Text     string `json:"text"`
	Category string `json:"category"`
}

type SessionView struct {
	Config    ServerConfig `json:"config"`
	State     State        `json:"state"`
	Running   bool         `json:"running"`
	Starting  bool         `json:"starting"`
	Ready     bool         `json:"ready"`
	Stopping  bool         `json:"stopping"`
	PID       int          `json:"pid,omitempty"`
	StartedAt *time.Time   `json:"started_at,omitempty"`
	Online    []string     `json:"online"`
	Perf      Perf         `json:"perf"`
	LogEnd    int64        `json:"log_end"`
	UpdatedAt time.Time    `json:"updated_at"`
}

type PlayerSummary struct {
	Online       []string `json:"online"`
	Offline      []string `json:"offline"`
	KnownOffline []string `json:"known_offline"`
}

type OpEntry struct {
	Name                string `json:"name"`
	UUID                string `json:"uuid"`
	Level               int    `json:"level"`
	BypassesPlayerLimit bool   `json:"bypassesPlayerLimit"`
}

type BanEntry struct {
	Name    string `json:"name"`
	UUID    string `json:"uuid"`
	Reason  string `json:"reason"`
	Created string `json:"created"`
	Source  string `json:"source"`
	Expires string `json:"expires,omitempty"`
}

type Plugin struct {
	File    string `json:"file"`
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
	Enabled bool   `json:"enabled"`
	Size    int64  `json:"size"`
}

type RuntimeInfo struct {
	JavaPath  string `json:"java_path"`
	Version   string `json:"version"`
	Major     int    `json:"major"`
	Source    string `json:"source"`
	Available bool   `json:"available"`
}
