// Package sentences serves the dictation sentences for each language,
// rotating through the list so the learner sees a new one on every request.
package sentences

import (
	"bufio"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

var ErrNoSentences = errors.New("no sentences available for language")

var defaults = map[string][]string{
	"en": {
		"The quick brown fox jumps over the lazy dog.",
		"She sells seashells by the seashore.",
		"Peter Piper picked a peck of pickled peppers.",
		"How much wood would a woodchuck chuck if a woodchuck could chuck wood?",
		"The rain in Spain stays mainly in the plain.",
	},
	"vi": {
		"Con mèo trèo cây cau.",
	},
}

type rotation struct {
	lines []string
	next  int
}

// Store holds per-language sentence lists with a round-robin cursor each.
type Store struct {
	mu     sync.Mutex
	byCode map[string]*rotation
}

// Load reads sentences_<code>.txt from dir for every code, one sentence per
// line, falling back to the built-in defaults when the file is missing.
func Load(dir string, codes []string, log *slog.Logger) *Store {
	s := &Store{byCode: make(map[string]*rotation, len(codes))}
	for _, code := range codes {
		lines, err := readLines(filepath.Join(dir, "sentences_"+code+".txt"))
		if err != nil {
			if fallback, ok := defaults[code]; ok {
				log.Warn("sentence file missing, using built-in sentences", "language", code, "error", err)
				lines = fallback
			} else {
				log.Warn("no sentences for language", "language", code, "error", err)
			}
		}
		s.byCode[code] = &rotation{lines: lines}
	}
	return s
}

// Next returns the next dictation sentence for code, wrapping around.
func (s *Store) Next(code string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.byCode[code]
	if !ok || len(r.lines) == 0 {
		return "", fmt.Errorf("%w: %q", ErrNoSentences, code)
	}
	sentence := r.lines[r.next%len(r.lines)]
	r.next++
	return sentence, nil
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}
