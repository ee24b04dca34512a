package sdk

import "time"

const (
	StateOffline  = "OFFLINE"
	StateStarting = "STARTING"
	StateOnline   = "ONLINE"
	StateStopping = "STOPPING"
)

type ServerConfig struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"name"`
	Jar         string `json:"jar"`
	RAMMin      int    `json:"ram_min"`
	RAMMax      int    `json:"ram_max"`
	Path        string `json:"path"`
	AutoRestart bool   `json:"auto_restart"`
	ReadyMarker string `json:"ready_marker,omitempty"`
}

type Perf struct {
	CPU       *float64  `json:"cpu"`
	RAMMB     *float64  `json:"ram_mb"`
	SampledAt time.Time `json:"sampled_at"`
}

type Server struct {
	Config    ServerConfig `json:"config"`
	State     string       `json:"state"`
	Running   bool         `json:"running"`
	Ready     bool         `json:"ready"`
	PID       int          `json:"pid"`
	StartedAt *time.Time   `json:"started_at"`
	Online    []string     `json:"online"`
	Perf      Perf         `json:"perf"`
	LogEnd    int64        `json:"log_end"`
}

type LogLine struct {
	Index    int64  `json:"index"`
	Text     string `json:"text"`
	Category string `json:"category"`
}

type Logs struct {
	Lines  []LogLine `json:"lines"`
	LogEnd int64     `json:"log_end"`
}

type Player struct {
	Name   string `json:"name"`
	UUID   string `json:"uuid,omitempty"`
	Online bool   `json:"online"`
}

type Players struct {
	Online       []Player `json:"online"`
	KnownOffline []Player `json:"known_offline"`
	Offline      []string `json:"offline"`
}

type Op struct {
	Name                string `json:"name"`
	UUID                string `json:"uuid"`
	Level               int    `json:"level"`
	BypassesPlayerLimit bool   `json:"bypassesPlayerLimit"`
}

type Ban struct {
	Name    string `json:"name"`
	UUID    string `json:"uuid"`
	Reason  string `json:"reason"`
	Created string `json:"created"`
	Source  string `json:"source"`
	Expires string `json:"expires"`
}

type Properties struct {
	Typed map[string]interface{} `json:"typed"`
	Extra map[string]string      `json:"extra"`
}

type Plugin struct {
	File    string `json:"file"`
	Name    string `json:"name"`
	Version string `json:"version"`
	Enabled bool   `json:"enabled"`
	Size    int64  `json:"size"`
}

type Runtime struct {
	JavaPath  string `json:"java_path"`
	Version   string `json:"version"`
	Major     int    `json:"major"`
	Source    string `json:"source"`
	Available bool   `json:"available"`
}

type PlayerChange struct {
	Name   string `json:"name"`
	Joined bool   `json:"joined"`
}

type Event struct {
	Kind     string        `json:"kind"`
	ServerID string        `json:"server_id"`
	At       time.Time     `json:"at"`
	Log      *LogLine      `json:"log,omitempty"`
	State    string        `json:"state,omitempty"`
	Player   *PlayerChange `json:"player,omitempty"`
	Perf     *Perf         `json:"perf,omitempty"`
	ExitCode *int          `json:"exit_code,omitempty"`
}

type ConsoleMessage struct {
	Type    string    `json:"type"`
	Session *Server   `json:"session,omitempty"`
	Logs    []LogLine `json:"logs,omitempty"`
	Event   *Event    `json:"event,omitempty"`
	Error   string    `json:"error,omitempty"`
}
