package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/practiceloop/dictation/internal/audio"
	"github.com/practiceloop/dictation/internal/history"
)

// maxRecordingBytes bounds uploaded recordings; a minute of 16kHz mono PCM is
// well under this.
const maxRecordingBytes = 25 << 20

// AudioProcessor is the slice of the pipeline the audio endpoints use.
type AudioProcessor interface {
	HandleRecording(ctx context.Context, raw []byte) (string, error)
	HandleSynthesis(ctx context.Context, text string) (audio.Synthesis, error)
}

type AudioHandler struct {
	pipeline AudioProcessor
	session  LanguageSwitcher
	attempts *history.Service
	log      *slog.Logger
}

func NewAudioHandler(p AudioProcessor, s LanguageSwitcher, attempts *history.Service, log *slog.Logger) *AudioHandler {
	return &AudioHandler{pipeline: p, session: s, attempts: attempts, log: log}
}

// Transcribe accepts a multipart upload in the "audio_data" field and returns
// the recognized text.
func (h *AudioHandler) Transcribe(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRecordingBytes)

	file, _, err := r.FormFile("audio_data")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "no audio file provided"})
		return
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "read audio: " + err.Error()})
		return
	}

	start := time.Now()
	text, err := h.pipeline.HandleRecording(r.Context(), raw)
	if err != nil {
		writeError(w, err)
		return
	}

	h.recordAttempt(r.Context(), text, time.Since(start))
	writeJSON(w, http.StatusOK, map[string]string{"transcription": text})
}

// Synthesize turns text into audio and returns the URL of the artifact.
func (h *AudioHandler) Synthesize(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	result, err := h.pipeline.HandleSynthesis(r.Context(), req.Text)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// Attempts lists recent dictation attempts, newest first.
func (h *AudioHandler) Attempts(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	attempts, err := h.attempts.Recent(r.Context(), limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if attempts == nil {
		attempts = []history.Attempt{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"attempts": attempts})
}

func (h *AudioHandler) recordAttempt(ctx context.Context, text string, took time.Duration) {
	err := h.attempts.Record(ctx, history.Attempt{
		Language:      h.session.Current().ActiveLanguage,
		Transcription: text,
		DurationMS:    took.Milliseconds(),
	})
	if err != nil {
		h.log.Warn("failed to record attempt", "error", err)
	}
}
