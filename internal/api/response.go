package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"esparcraft/internal/runner"
	"esparcraft/internal/server"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, server.ErrNotFound), errors.Is(err, runner.ErrUnknownServer):
		return http.StatusNotFound
	case errors.Is(err, server.ErrServerRunning), errors.Is(err, runner.ErrNotRunning):
		return http.StatusConflict
	case errors.Is(err, server.ErrInvalidConfig),
		errors.Is(err, server.ErrInvalidPlugin),
		errors.Is(err, server.ErrInvalidProperty),
		errors.Is(err, runner.ErrInvalidAction),
		errors.Is(err, runner.ErrJavaNotFound),
		errors.Is(err, runner.ErrJarNotFound):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func (api *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		api.Log.Error("request failed", "error", err)
	}
	if status == http.StatusNotFound {
		http.Error(w, "Servidor no encontrado", status)
		return
	}
	http.Error(w, err.Error(), status)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "JSON inválido", http.StatusBadRequest)
		return false
	}
	return true
}
