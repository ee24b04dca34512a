package players

import "regexp"

type Direction int

const (
	Join Direction = iota + 1
	Leave
)

func (d Direction) String() string {
	switch d {
	case Join:
		return "join"
	case Leave:
		return "leave"
	}
	return "unknown"
}

type Event struct {
	Direction Direction
	Name      string
}

var (
	joinRe   = regexp.MustCompile(`(?i)\b([A-Za-z0-9_]{3,16}) joined the game\b`)
	leaveRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b([A-Za-z0-9_]{3,16}) left the game\b`),
		regexp.MustCompile(`(?i)\b([A-Za-z0-9_]{3,16}) lost connection\b`),
		regexp.MustCompile(`(?i)\b([A-Za-z0-9_]{3,16}) has disconnected\b`),
	}

	// Leftovers of a stripped color prefix such as "93m" glued to the name.
	gluedPrefixRe = regexp.MustCompile(`^\d+[A-Za-z]([A-Za-z0-9_]{2,15})$`)
	validNameRe   = regexp.MustCompile(`^[A-Za-z0-9_]{3,16}$`)
)

func ParseEvent(line string) (Event, bool) {
	if m := joinRe.FindStringSubmatch(line); m != nil {
		return checked(Join, m[1])
	}
	for _, re := range leaveRes {
		if m := re.FindStringSubmatch(line); m != nil {
			return checked(Leave, m[1])
		}
	}
	return Event{}, false
}

func checked(dir Direction, raw string) (Event, bool) {
	name := NormalizeName(raw)
	if !ValidName(name) {
		return Event{}, false
	}
	return Event{Direction: dir, Name: name}, true
}

func NormalizeName(raw string) string {
	if m := gluedPrefixRe.FindStringSubmatch(raw); m != nil {
		return m[1]
	}
	return raw
}

func ValidName(name string) bool {
	return validNameRe.MatchString(name)
}
