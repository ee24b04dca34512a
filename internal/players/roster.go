package players

import (
	"sort"
	"strings"
)

// Roster tracks who is online and who has been seen. Online order is the order
// players joined in; a name is never online and offline at the same time.
// Roster is not safe for concurrent use.
type Roster struct {
	online  []string
	offline []string
	known   map[string]string
}

func NewRoster() *Roster {
	return &Roster{known: make(map[string]string)}
}

func (r *Roster) Apply(ev Event) bool {
	switch ev.Direction {
	case Join:
		return r.Join(ev.Name)
	case Leave:
		return r.Leave(ev.Name)
	}
	return false
}

func (r *Roster) Join(name string) bool {
	r.Remember(name)
	r.offline = remove(r.offline, name)
	if contains(r.online, name) {
		return false
	}
	r.online = append(r.online, name)
	return true
}

func (r *Roster) Leave(name string) bool {
	r.Remember(name)
	wasOnline := contains(r.online, name)
	r.online = remove(r.online, name)
	if !contains(r.offline, name) {
		r.offline = append(r.offline, name)
	}
	return wasOnline
}

func (r *Roster) DropAll() []string {
	dropped := append([]string(nil), r.online...)
	for _, name := range dropped {
		r.Leave(name)
	}
	return dropped
}

func (r *Roster) Remember(names ...string) {
	for _, name := range names {
		if name == "" {
			continue
		}
		key := strings.ToLower(name)
		if _, ok := r.known[key]; !ok {
			r.known[key] = name
		}
	}
}

func (r *Roster) IsOnline(name string) bool {
	return contains(r.online, name)
}

func (r *Roster) Online() []string {
	return append([]string(nil), r.online...)
}

func (r *Roster) Offline() []string {
	return append([]string(nil), r.offline...)
}

func (r *Roster) Known() []string {
	out := make([]string, 0, len(r.known))
	for _, name := range r.known {
		out = append(out, name)
	}
	sortFold(out)
	return out
}

func (r *Roster) KnownOffline() []string {
	online := make(map[string]struct{}, len(r.online))
	for _, name := range r.online {
		online[strings.ToLower(name)] = struct{}{}
	}
	var out []string
	for key, name := range r.known {
		if _, ok := online[key]; !ok {
			out = append(out, name)
		}
	}
	sortFold(out)
	return out
}

func sortFold(names []string) {
	sort.Slice(names, func(i, j int) bool {
		return strings.ToLower(names[i]) < strings.ToLower(names[j])
	})
}

func contains(list []string, name string) bool {
	for _, n := range list {
		if n == name {
			return true
		}
	}
	return false
}

func remove(list []string, name string) []string {
	for i, n := range list {
		if n == name {
			return append(list[:i:i], list[i+1:]...)
		}
	}
	return list
}
