package server

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"esparcraft/internal/domain"

	"github.com/google/uuid"
)

const (
	UsercacheFile = "usercache.json"
	OpsFile       = "ops.json"
	BansFile      = "banned-players.json"
)

// FormatUUID renders a 32-digit hex id in the dashed 8-4-4-4-12 form. Other
// input is returned unchanged.
func FormatUUID(s string) string {
	s = strings.TrimSpace(s)
	if len(s) != 32 || strings.Contains(s, "-") {
		return s
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return s
	}
	return u.String()
}

func readJSONList[T any](path string) []T {
	data, err := os.ReadFile(path)
	if err != nil {
		return []T{}
	}
	var out []T
	if err := json.Unmarshal(data, &out); err != nil || out == nil {
		return []T{}
	}
	return out
}

type usercacheEntry struct {
	Name      string `json:"name"`
	UUID      string `json:"uuid"`
	ExpiresOn string `json:"expiresOn"`
}

func ReadUsercache(dir string) map[string]string {
	out := make(map[string]string)
	for _, e := range readJSONList[usercacheEntry](filepath.Join(dir, UsercacheFile)) {
		if e.Name == "" || e.UUID == "" {
			continue
		}
		out[e.Name] = FormatUUID(e.UUID)
	}
	return out
}

func ReadOps(dir string) []domain.OpEntry {
	ops := readJSONList[domain.OpEntry](filepath.Join(dir, OpsFile))
	for i := range ops {
		ops[i].UUID = FormatUUID(ops[i].UUID)
	}
	sort.SliceStable(ops, func(i, j int) bool {
		return strings.ToLower(ops[i].Name) < strings.ToLower(ops[j].Name)
	})
	return ops
}

func ReadBans(dir string) []domain.BanEntry {
	bans := readJSONList[domain.BanEntry](filepath.Join(dir, BansFile))
	for i := range bans {
		bans[i].UUID = FormatUUID(bans[i].UUID)
	}
	return bans
}
