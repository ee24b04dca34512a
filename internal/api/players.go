package api

import (
	"net/http"

	"esparcraft/internal/runner"
	"esparcraft/internal/server"
)

type playerEntry struct {
	Name   string `json:"name"`
	UUID   string `json:"uuid,omitempty"`
	Online bool   `json:"online"`
}

type playersResponse struct {
	Online       []playerEntry `json:"online"`
	KnownOffline []playerEntry `json:"known_offline"`
	// Offline lists only players seen leaving during this daemon's lifetime.
	Offline []string `json:"offline"`
}

func (api *Server) handleGetPlayers(w http.ResponseWriter, r *http.Request) {
	sess, ok := api.Registry.Get(r.PathValue("id"))
	if !ok {
		api.writeError(w, server.ErrNotFound)
		return
	}
	summary := sess.Players()
	entry := func(name string, online bool) playerEntry {
		uuid, _ := sess.UUIDFor(name)
		return playerEntry{Name: name, UUID: uuid, Online: online}
	}
	resp := playersResponse{
		Online:       make([]playerEntry, 0, len(summary.Online)),
		KnownOffline: make([]playerEntry, 0, len(summary.KnownOffline)),
		Offline:      append([]string{}, summary.Offline...),
	}
	for _, name := range summary.Online {
		resp.Online = append(resp.Online, entry(name, true))
	}
	for _, name := range summary.KnownOffline {
		resp.KnownOffline = append(resp.KnownOffline, entry(name, false))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (api *Server) handlePlayerAction(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var req struct {
		Reason string `json:"reason"`
	}
	if r.ContentLength != 0 {
		if !decodeJSON(w, r, &req) {
			return
		}
	}
	action := runner.PlayerAction(r.PathValue("action"))
	if err := api.Supervisor.PlayerAction(id, action, r.PathValue("name"), req.Reason); err != nil {
		api.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (api *Server) handleGetOps(w http.ResponseWriter, r *http.Request) {
	ops, err := api.Manager.Ops(r.PathValue("id"))
	if err != nil {
		api.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ops)
}

func (api *Server) handleGetBans(w http.ResponseWriter, r *http.Request) {
	bans, err := api.Manager.Bans(r.PathValue("id"))
	if err != nil {
		api.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bans)
}
