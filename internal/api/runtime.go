package api

import (
	"net/http"
	"strings"

	"esparcraft/internal/domain"
	"esparcraft/internal/jvm"
	"esparcraft/internal/storage"
)

func runtimeInfo(env jvm.RuntimeEnvironment) domain.RuntimeInfo {
	return domain.RuntimeInfo{
		JavaPath:  env.JavaPath,
		Version:   env.Version,
		Major:     env.Major,
		Source:    env.Source,
		Available: env.Available(),
	}
}

func (api *Server) handleGetRuntime(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, runtimeInfo(api.Supervisor.Runtime()))
}

// handleSetJava stores a Java override. An empty path clears it and falls
// back to detection.
func (api *Server) handleSetJava(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Path string `json:"path"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	path := strings.TrimSpace(req.Path)
	detector := api.Detector
	if detector == nil {
		detector = jvm.NewDetector()
	}
	env := detector.Detect(path)
	if path != "" && (!env.Available() || env.Source != jvm.SourceOverride) {
		http.Error(w, "Java no encontrado en la ruta indicada", http.StatusBadRequest)
		return
	}
	if api.Store != nil {
		if err := api.Store.SetSetting(storage.SettingJavaPath, path); err != nil {
			api.writeError(w, err)
			return
		}
	}
	api.Supervisor.SetRuntime(env)
	writeJSON(w, http.StatusOK, runtimeInfo(env))
}
