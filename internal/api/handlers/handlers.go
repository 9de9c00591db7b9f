package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/practiceloop/dictation/internal/audio"
	"github.com/practiceloop/dictation/internal/catalog"
	"github.com/practiceloop/dictation/internal/session"
)

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError maps the orchestration error taxonomy onto HTTP statuses and a
// user-facing message.
func writeError(w http.ResponseWriter, err error) {
	var switchErr *session.SwitchError

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, catalog.ErrUnknownLanguage):
		status = http.StatusNotFound
	case errors.Is(err, audio.ErrInvalidAudio), errors.Is(err, audio.ErrEmptyText):
		status = http.StatusBadRequest
	case errors.Is(err, session.ErrASRUnavailable),
		errors.Is(err, session.ErrTTSUnavailable),
		errors.Is(err, session.ErrNoLanguage):
		status = http.StatusConflict
	case errors.As(err, &switchErr):
		status = http.StatusBadGateway
	}

	writeJSON(w, status, map[string]string{"error": err.Error()})
}
