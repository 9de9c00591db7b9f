package queue

const (
	TypeArtifactSweep = "artifact:sweep"
	TypeVoicePrefetch = "voice:prefetch"
)

// ArtifactSweepPayload asks the worker to delete temp audio artifacts older
// than MaxAgeSeconds from Dir.
type ArtifactSweepPayload struct {
	Dir           string `json:"dir"`
	MaxAgeSeconds int64  `json:"max_age_seconds"`
}

// VoicePrefetchPayload asks the worker to download a language's voice model
// weights ahead of the first switch to it.
type VoicePrefetchPayload struct {
	LanguageCode string `json:"language_code"`
}
