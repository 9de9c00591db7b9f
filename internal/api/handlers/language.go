package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/practiceloop/dictation/internal/catalog"
	"github.com/practiceloop/dictation/internal/session"
)

// LanguageSwitcher is the slice of the session the language endpoints use.
type LanguageSwitcher interface {
	SetLanguage(ctx context.Context, code string) (session.SwitchResult, error)
	Current() session.State
}

type LanguageHandler struct {
	session LanguageSwitcher
	catalog *catalog.Catalog
}

func NewLanguageHandler(s LanguageSwitcher, cat *catalog.Catalog) *LanguageHandler {
	return &LanguageHandler{session: s, catalog: cat}
}

type languageInfo struct {
	Code        string `json:"code"`
	DisplayName string `json:"display_name"`
	HasASR      bool   `json:"has_asr"`
}

// List returns the selectable languages and which one is active.
func (h *LanguageHandler) List(w http.ResponseWriter, r *http.Request) {
	languages := []languageInfo{}
	for _, code := range h.catalog.Codes() {
		desc, err := h.catalog.Lookup(code)
		if err != nil {
			continue
		}
		languages = append(languages, languageInfo{
			Code:        desc.Code,
			DisplayName: desc.DisplayName,
			HasASR:      desc.HasASR(),
		})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"languages": languages,
		"active":    h.session.Current().ActiveLanguage,
	})
}

// Switch makes the requested language active, loading its models.
func (h *LanguageHandler) Switch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Code == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "language code required"})
		return
	}

	result, err := h.session.SetLanguage(r.Context(), req.Code)
	if err != nil {
		writeError(w, err)
		return
	}

	desc, _ := h.catalog.Lookup(result.ActiveLanguage)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"active_language": result.ActiveLanguage,
		"has_asr":         result.HasASR,
		"message":         fmt.Sprintf("switched to %s", desc.DisplayName),
	})
}

// Capability reports whether the active language supports transcription.
func (h *LanguageHandler) Capability(w http.ResponseWriter, r *http.Request) {
	st := h.session.Current()
	writeJSON(w, http.StatusOK, map[string]bool{"has_asr": st.HasASR})
}
