// Package engine defines the inference backend contracts and their concrete
// implementations. Backends are opaque to the rest of the system: a
// Transcriber turns recorded audio into text, a Synthesizer turns text into
// audio bytes.
package engine

import "context"

// Audio is a synthesized waveform ready to be written out as an artifact.
type Audio struct {
	Data        []byte
	ContentType string // "audio/wav" (Piper, MMS) or "audio/mpeg"
}

// Transcriber is the interface for speech-to-text backends.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (string, error)
	Name() string
}

// Synthesizer is the interface for text-to-speech backends.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) (*Audio, error)
	Name() string
}
