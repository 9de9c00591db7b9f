package handlers

import (
	"errors"
	"net/http"

	"github.com/practiceloop/dictation/internal/sentences"
	"github.com/practiceloop/dictation/internal/session"
)

type SentenceHandler struct {
	store   *sentences.Store
	session LanguageSwitcher
}

func NewSentenceHandler(store *sentences.Store, s LanguageSwitcher) *SentenceHandler {
	return &SentenceHandler{store: store, session: s}
}

// Next provides a new dictation sentence for the active language.
func (h *SentenceHandler) Next(w http.ResponseWriter, r *http.Request) {
	st := h.session.Current()
	if st.ActiveLanguage == "" {
		writeError(w, session.ErrNoLanguage)
		return
	}

	sentence, err := h.store.Next(st.ActiveLanguage)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, sentences.ErrNoSentences) {
			status = http.StatusNotFound
		}
		writeJSON(w, status, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"sentence": sentence})
}
