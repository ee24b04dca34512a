package server

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

const PropertiesFile = "server.properties"

var ErrInvalidProperty = errors.New("invalid property")

type lineKind int

const (
	lineBlank lineKind = iota
	lineComment
	lineProperty
)

type propLine struct {
	kind lineKind
	// raw is the line without its terminator; eol is "\n", "\r\n" or "" for a
	// final line with no newline.
	raw string
	eol string
	key string
	// value excludes the spacing after '=', which stays in raw.
	value string
}

// Properties is a line-preserving model of server.properties. Lines that are
// not edited are written back byte for byte.
type Properties struct {
	lines []propLine
	index map[string]int
}

func ParseProperties(data []byte) *Properties {
	p := &Properties{index: make(map[string]int)}
	text := string(data)
	for len(text) > 0 {
		var raw, eol string
		if i := strings.IndexByte(text, '\n'); i >= 0 {
			raw, text = text[:i], text[i+1:]
			eol = "\n"
			if strings.HasSuffix(raw, "\r") {
				raw = raw[:len(raw)-1]
				eol = "\r\n"
			}
		} else {
			raw, text = text, ""
		}
		p.lines = append(p.lines, classifyLine(raw, eol))
		if l := p.lines[len(p.lines)-1]; l.kind == lineProperty {
			p.index[l.key] = len(p.lines) - 1
		}
	}
	return p
}

func classifyLine(raw, eol string) propLine {
	trimmed := strings.TrimSpace(raw)
	switch {
	case trimmed == "":
		return propLine{kind: lineBlank, raw: raw, eol: eol}
	case strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, "!"):
		return propLine{kind: lineComment, raw: raw, eol: eol}
	}
	eq := strings.IndexByte(raw, '=')
	if eq < 0 {
		return propLine{kind: lineComment, raw: raw, eol: eol}
	}
	key := strings.TrimSpace(raw[:eq])
	if key == "" {
		return propLine{kind: lineComment, raw: raw, eol: eol}
	}
	return propLine{kind: lineProperty, raw: raw, eol: eol, key: key, value: strings.TrimLeft(raw[eq+1:], " \t")}
}

func LoadProperties(dir string) (*Properties, error) {
	data, err := os.ReadFile(filepath.Join(dir, PropertiesFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ParseProperties(nil), nil
		}
		return nil, err
	}
	return ParseProperties(data), nil
}

func (p *Properties) Bytes() []byte {
	var b strings.Builder
	for _, l := range p.lines {
		b.WriteString(l.raw)
		b.WriteString(l.eol)
	}
	return []byte(b.String())
}

func (p *Properties) Save(dir string) error {
	return writeFileAtomic(filepath.Join(dir, PropertiesFile), p.Bytes(), 0o644)
}

func (p *Properties) Get(key string) (string, bool) {
	i, ok := p.index[key]
	if !ok {
		return "", false
	}
	return p.lines[i].value, true
}

func (p *Properties) Keys() []string {
	keys := make([]string, 0, len(p.index))
	for k := range p.index {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Set writes key=value. An existing line keeps its key spelling and spacing;
// a missing key is appended. It reports whether anything changed.
func (p *Properties) Set(key, value string) bool {
	value = strings.NewReplacer("\r", "", "\n", " ").Replace(value)
	if i, ok := p.index[key]; ok {
		l := &p.lines[i]
		if l.value == value {
			return false
		}
		eq := strings.IndexByte(l.raw, '=')
		old := l.raw[eq+1:]
		lead := old[:len(old)-len(strings.TrimLeft(old, " \t"))]
		l.raw = l.raw[:eq+1] + lead + value
		l.value = value
		return true
	}

	eol := p.newline()
	if n := len(p.lines); n > 0 && p.lines[n-1].eol == "" {
		p.lines[n-1].eol = eol
	}
	p.lines = append(p.lines, propLine{kind: lineProperty, raw: key + "=" + value, eol: eol, key: key, value: value})
	p.index[key] = len(p.lines) - 1
	return true
}

func (p *Properties) newline() string {
	for _, l := range p.lines {
		if l.eol != "" {
			return l.eol
		}
	}
	return "\n"
}

type fieldKind int

const (
	kindString fieldKind = iota
	kindInt
	kindBool
)

type typedField struct {
	key  string
	kind fieldKind
	def  string
}

// Keys exposed as typed fields, with the vanilla defaults used when absent.
var typedFields = []typedField{
	{"motd", kindString, "A Minecraft Server"},
	{"server-port", kindInt, "25565"},
	{"server-ip", kindString, ""},
	{"max-players", kindInt, "20"},
	{"level-name", kindString, "world"},
	{"spawn-protection", kindInt, "16"},
	{"view-distance", kindInt, "10"},
	{"simulation-distance", kindInt, "10"},
	{"online-mode", kindBool, "true"},
	{"white-list", kindBool, "false"},
	{"hardcore", kindBool, "false"},
	{"pvp", kindBool, "true"},
	{"allow-flight", kindBool, "false"},
	{"difficulty", kindString, "easy"},
	{"gamemode", kindString, "survival"},
}

func isTypedKey(key string) bool {
	for _, f := range typedFields {
		if f.key == key {
			return true
		}
	}
	return false
}

type Typed struct {
	MOTD               string `json:"motd"`
	ServerPort         int    `json:"server-port"`
	ServerIP           string `json:"server-ip"`
	MaxPlayers         int    `json:"max-players"`
	LevelName          string `json:"level-name"`
	SpawnProtection    int    `json:"spawn-protection"`
	ViewDistance       int    `json:"view-distance"`
	SimulationDistance int    `json:"simulation-distance"`
	OnlineMode         bool   `json:"online-mode"`
	WhiteList          bool   `json:"white-list"`
	Hardcore           bool   `json:"hardcore"`
	PVP                bool   `json:"pvp"`
	AllowFlight        bool   `json:"allow-flight"`
	Difficulty         string `json:"difficulty"`
	Gamemode           string `json:"gamemode"`
}

func (t *Typed) values() map[string]string {
	return map[string]string{
		"motd":                t.MOTD,
		"server-port":         strconv.Itoa(t.ServerPort),
		"server-ip":           t.ServerIP,
		"max-players":         strconv.Itoa(t.MaxPlayers),
		"level-name":          t.LevelName,
		"spawn-protection":    strconv.Itoa(t.SpawnProtection),
		"view-distance":       strconv.Itoa(t.ViewDistance),
		"simulation-distance": strconv.Itoa(t.SimulationDistance),
		"online-mode":         strconv.FormatBool(t.OnlineMode),
		"white-list":          strconv.FormatBool(t.WhiteList),
		"hardcore":            strconv.FormatBool(t.Hardcore),
		"pvp":                 strconv.FormatBool(t.PVP),
		"allow-flight":        strconv.FormatBool(t.AllowFlight),
		"difficulty":          t.Difficulty,
		"gamemode":            t.Gamemode,
	}
}

func (p *Properties) effective(f typedField) string {
	v, ok := p.Get(f.key)
	if !ok {
		return f.def
	}
	switch f.kind {
	case kindInt:
		if _, err := strconv.Atoi(strings.TrimSpace(v)); err != nil {
			return f.def
		}
		return strings.TrimSpace(v)
	case kindBool:
		if _, err := strconv.ParseBool(strings.ToLower(strings.TrimSpace(v))); err != nil {
			return f.def
		}
		return strings.ToLower(strings.TrimSpace(v))
	}
	return strings.TrimLeft(v, " \t")
}

// Typed returns the recognized keys, falling back to defaults for missing or
// unparsable values.
func (p *Properties) Typed() Typed {
	get := func(i int) string {
		return p.effective(typedFields[i])
	}
	atoi := func(i int) int {
		n, _ := strconv.Atoi(get(i))
		return n
	}
	btoi := func(i int) bool {
		b, _ := strconv.ParseBool(get(i))
		return b
	}
	return Typed{
		MOTD:               get(0),
		ServerPort:         atoi(1),
		ServerIP:           get(2),
		MaxPlayers:         atoi(3),
		LevelName:          get(4),
		SpawnProtection:    atoi(5),
		ViewDistance:       atoi(6),
		SimulationDistance: atoi(7),
		OnlineMode:         btoi(8),
		WhiteList:          btoi(9),
		Hardcore:           btoi(10),
		PVP:                btoi(11),
		AllowFlight:        btoi(12),
		Difficulty:         get(13),
		Gamemode:           get(14),
	}
}

// ApplyTyped writes only the fields whose value differs from what the file
// currently means, so untouched lines stay byte-identical.
func (p *Properties) ApplyTyped(t Typed) []string {
	if t.LevelName == "" {
		t.LevelName = "world"
	}
	vals := t.values()
	var changed []string
	for _, f := range typedFields {
		next := vals[f.key]
		if sameValue(f.kind, p.effective(f), next) {
			continue
		}
		if p.Set(f.key, next) {
			changed = append(changed, f.key)
		}
	}
	return changed
}

func sameValue(kind fieldKind, current, next string) bool {
	switch kind {
	case kindInt:
		a, errA := strconv.Atoi(strings.TrimSpace(current))
		b, errB := strconv.Atoi(strings.TrimSpace(next))
		return errA == nil && errB == nil && a == b
	case kindBool:
		return strings.EqualFold(strings.TrimSpace(current), strings.TrimSpace(next))
	}
	return current == next
}

func (p *Properties) Extra() map[string]string {
	out := make(map[string]string)
	for key, i := range p.index {
		if !isTypedKey(key) {
			out[key] = p.lines[i].value
		}
	}
	return out
}

// SetExtra writes raw values. Typed keys are rejected so a single save
// cannot set one key two ways.
func (p *Properties) SetExtra(values map[string]string) ([]string, error) {
	keys := make([]string, 0, len(values))
	for k := range values {
		if strings.TrimSpace(k) == "" || strings.ContainsAny(k, "=:\r\n#") {
			return nil, fmt.Errorf("%w: bad key %q", ErrInvalidProperty, k)
		}
		if isTypedKey(k) {
			return nil, fmt.Errorf("%w: %q must be set through its typed field", ErrInvalidProperty, k)
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var changed []string
	for _, k := range keys {
		if p.Set(k, values[k]) {
			changed = append(changed, k)
		}
	}
	return changed, nil
}
