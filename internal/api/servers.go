package api

import (
	"fmt"
	"net/http"
	"strconv"

	"esparcraft/internal/console"
	"esparcraft/internal/domain"
	"esparcraft/internal/server"
)

func (api *Server) view(id string) (domain.SessionView, error) {
	sess, ok := api.Registry.Get(id)
	if !ok {
		return domain.SessionView{}, server.ErrNotFound
	}
	return sess.Snapshot(), nil
}

func (api *Server) handleListServers(w http.ResponseWriter, r *http.Request) {
	views := []domain.SessionView{}
	for _, cfg := range api.Manager.ListServers() {
		if v, err := api.view(cfg.ID); err == nil {
			views = append(views, v)
		}
	}
	writeJSON(w, http.StatusOK, views)
}

func (api *Server) handleGetServer(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		http.Error(w, "Falta ID", http.StatusBadRequest)
		return
	}
	v, err := api.view(id)
	if err != nil {
		api.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (api *Server) handleCreateServer(w http.ResponseWriter, r *http.Request) {
	var req domain.ServerConfig
	if !decodeJSON(w, r, &req) {
		return
	}
	cfg, err := api.Manager.CreateServer(req)
	if err != nil {
		api.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, cfg)
}

func (api *Server) handleUpdateServer(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		http.Error(w, "Falta ID", http.StatusBadRequest)
		return
	}
	current, err := api.Manager.GetServer(id)
	if err != nil {
		api.writeError(w, err)
		return
	}
	// Fields missing from the body keep their current value.
	req := current
	if !decodeJSON(w, r, &req) {
		return
	}
	cfg, err := api.Manager.UpdateServer(id, req)
	if err != nil {
		api.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func (api *Server) handleDeleteServer(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		http.Error(w, "Falta ID", http.StatusBadRequest)
		return
	}
	if err := api.Manager.DeleteServer(id); err != nil {
		api.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (api *Server) handleStartServer(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		http.Error(w, "Falta ID", http.StatusBadRequest)
		return
	}
	if err := api.Supervisor.Start(id); err != nil {
		api.writeError(w, fmt.Errorf("Error iniciando: %w", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "started"})
}

func (api *Server) handleStopServer(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := api.Supervisor.Stop(id); err != nil {
		api.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "stopping"})
}

func (api *Server) handleKillServer(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := api.Supervisor.Kill(id); err != nil {
		api.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "killed"})
}

func (api *Server) handleSendCommand(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var req struct {
		Command string `json:"command"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := api.Supervisor.SendCommand(id, req.Command); err != nil {
		api.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type logsResponse struct {
	Lines  []domain.LogLine `json:"lines"`
	LogEnd int64            `json:"log_end"`
}

func (api *Server) handleGetLogs(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	sess, ok := api.Registry.Get(id)
	if !ok {
		api.writeError(w, server.ErrNotFound)
		return
	}

	q := r.URL.Query()
	var since int64
	if v := q.Get("since"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n < 0 {
			http.Error(w, "Parámetro since inválido", http.StatusBadRequest)
			return
		}
		since = n
	}
	limit := 0
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			http.Error(w, "Parámetro limit inválido", http.StatusBadRequest)
			return
		}
		limit = n
	}
	var filter console.Category
	if v := q.Get("category"); v != "" {
		c, ok := console.ParseCategory(v)
		if !ok {
			http.Error(w, "Categoría inválida", http.StatusBadRequest)
			return
		}
		filter = c
	}

	end := sess.Snapshot().LogEnd
	lines := sess.Logs(since, 0)
	out := make([]domain.LogLine, 0, len(lines))
	for _, l := range lines {
		if filter != "" && l.Category != string(filter) {
			continue
		}
		out = append(out, l)
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	if n := len(out); n > 0 && out[n-1].Index >= end {
		end = out[n-1].Index + 1
	}
	writeJSON(w, http.StatusOK, logsResponse{Lines: out, LogEnd: end})
}

func (api *Server) handleClearLogs(w http.ResponseWriter, r *http.Request) {
	sess, ok := api.Registry.Get(r.PathValue("id"))
	if !ok {
		api.writeError(w, server.ErrNotFound)
		return
	}
	sess.ClearLogs()
	w.WriteHeader(http.StatusNoContent)
}
