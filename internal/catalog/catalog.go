// Package catalog holds the static registry mapping language codes to the
// model descriptors that serve them.
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

var ErrUnknownLanguage = errors.New("unknown language")

// TTSEngine identifies which synthesis backend serves a language.
type TTSEngine string

const (
	EnginePiper TTSEngine = "piper"
	EngineMMS   TTSEngine = "mms"
	EngineNone  TTSEngine = "none"
)

// PiperVoice points at the downloadable artifacts for a Piper voice.
type PiperVoice struct {
	Name      string `json:"name"`
	OnnxURL   string `json:"onnx_url"`
	ConfigURL string `json:"config_url"`
}

// Descriptor is the immutable per-language model configuration. A language
// without an ASR model id supports synthesis-only practice.
type Descriptor struct {
	Code        string      `json:"code"`
	DisplayName string      `json:"display_name"`
	TTSEngine   TTSEngine   `json:"tts_engine"`
	ASRModelID  string      `json:"asr_model_id,omitempty"`
	MMSModelID  string      `json:"mms_model_id,omitempty"`
	PiperVoice  *PiperVoice `json:"piper_voice,omitempty"`
}

func (d Descriptor) HasASR() bool { return d.ASRModelID != "" }

// Catalog is a read-only lookup table, safe for concurrent use.
type Catalog struct {
	byCode map[string]Descriptor
	codes  []string
}

func New(descriptors []Descriptor) (*Catalog, error) {
	c := &Catalog{byCode: make(map[string]Descriptor, len(descriptors))}
	for _, d := range descriptors {
		if d.Code == "" {
			return nil, fmt.Errorf("descriptor with empty language code")
		}
		if _, dup := c.byCode[d.Code]; dup {
			return nil, fmt.Errorf("duplicate language code %q", d.Code)
		}
		if d.TTSEngine == "" {
			d.TTSEngine = EngineNone
		}
		c.byCode[d.Code] = d
		c.codes = append(c.codes, d.Code)
	}
	return c, nil
}

// Default returns the built-in catalog: English on Piper with the English-only
// Whisper model, Vietnamese on MMS with the multilingual one.
func Default() *Catalog {
	c, err := New([]Descriptor{
		{
			Code:        "en",
			DisplayName: "English",
			TTSEngine:   EnginePiper,
			ASRModelID:  "whisper-base.en",
			PiperVoice: &PiperVoice{
				Name:      "en_US-lessac-medium",
				OnnxURL:   "https://huggingface.co/rhasspy/piper-voices/resolve/main/en/en_US/lessac/medium/en_US-lessac-medium.onnx",
				ConfigURL: "https://huggingface.co/rhasspy/piper-voices/resolve/main/en/en_US/lessac/medium/en_US-lessac-medium.onnx.json",
			},
		},
		{
			Code:        "vi",
			DisplayName: "Tiếng Việt",
			TTSEngine:   EngineMMS,
			ASRModelID:  "whisper-small",
			MMSModelID:  "facebook/mms-tts-vie",
		},
	})
	if err != nil {
		panic(err)
	}
	return c
}

// LoadFile reads a JSON array of descriptors. The file replaces the built-in
// catalog entirely, which is also how per-language model overrides (e.g. a
// different Vietnamese Whisper model) are applied.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file: %w", err)
	}
	var descriptors []Descriptor
	if err := json.Unmarshal(data, &descriptors); err != nil {
		return nil, fmt.Errorf("parse catalog file %s: %w", path, err)
	}
	if len(descriptors) == 0 {
		return nil, fmt.Errorf("catalog file %s defines no languages", path)
	}
	return New(descriptors)
}

// Lookup returns the descriptor for code, or ErrUnknownLanguage.
func (c *Catalog) Lookup(code string) (Descriptor, error) {
	d, ok := c.byCode[code]
	if !ok {
		return Descriptor{}, fmt.Errorf("%w: %q", ErrUnknownLanguage, code)
	}
	return d, nil
}

// Codes returns the language codes in declaration order.
func (c *Catalog) Codes() []string {
	out := make([]string, len(c.codes))
	copy(out, c.codes)
	return out
}
