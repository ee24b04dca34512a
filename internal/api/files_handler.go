package api

import (
	"net/http"

	"esparcraft/internal/server"
)

const maxPluginSize = 64 << 20

func (api *Server) handleGetProperties(w http.ResponseWriter, r *http.Request) {
	view, err := api.Manager.Properties(r.PathValue("id"))
	if err != nil {
		api.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (api *Server) handleSaveProperties(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var req struct {
		Typed *server.Typed     `json:"typed"`
		Extra map[string]string `json:"extra"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	changed, err := api.Manager.SaveProperties(id, req.Typed, req.Extra)
	if err != nil {
		api.writeError(w, err)
		return
	}
	if changed == nil {
		changed = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"changed": changed})
}

func (api *Server) handleListPlugins(w http.ResponseWriter, r *http.Request) {
	plugins, err := api.Manager.Plugins(r.PathValue("id"))
	if err != nil {
		api.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, plugins)
}

func (api *Server) handleInstallPlugin(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	file := r.PathValue("file")
	body := http.MaxBytesReader(w, r.Body, maxPluginSize)
	if err := api.Manager.InstallPlugin(id, file, body); err != nil {
		api.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (api *Server) handleRemovePlugin(w http.ResponseWriter, r *http.Request) {
	if err := api.Manager.RemovePlugin(r.PathValue("id"), r.PathValue("file")); err != nil {
		api.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (api *Server) handleTogglePlugin(w http.ResponseWriter, r *http.Request) {
	name, err := api.Manager.TogglePlugin(r.PathValue("id"), r.PathValue("file"))
	if err != nil {
		api.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"file": name})
}
