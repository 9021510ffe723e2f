package segment

import (
	"fmt"
	"regexp"
	"strings"

	"book_insights/internal/textnorm"
)

// Sentence is one segmented sentence with the chapter of the line it came from.
type Sentence struct {
	Index   int
	Chapter int
	Text    string
}

// boundary matches a sentence terminator followed by spaces; the terminator
// stays with the fragment on its left.
var boundary = regexp.MustCompile(`[.!?] +`)

// DefaultNoisePhrases lists front and back matter that never carries content.
func DefaultNoisePhrases() []string {
	return []string{
		"all rights reserved",
		"copyright",
		"isbn",
		"www.",
		"library of congress",
		"printed in the united states",
		"table of contents",
	}
}

// Segmenter splits chapter-attributed lines into sentences.
type Segmenter struct {
	// MinWords is the fewest words a sentence may have; values below 1 mean 1.
	MinWords int
	// NoisePhrases rejects whole lines containing any phrase, case-insensitive.
	// An empty list disables the filter.
	NoisePhrases []string
}

// Split segments lines in order. chapters must hold one id per line.
// Sentences never span lines.
func (s Segmenter) Split(lines []string, chapters []int) ([]Sentence, error) {
	if len(lines) != len(chapters) {
		return nil, fmt.Errorf("segment: %d lines but %d chapter ids", len(lines), len(chapters))
	}
	minWords := max(s.MinWords, 1)
	noise := make([]string, 0, len(s.NoisePhrases))
	for _, p := range s.NoisePhrases {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			noise = append(noise, p)
		}
	}

	out := make([]Sentence, 0, len(lines))
	for i, line := range lines {
		cleaned := textnorm.Clean(line)
		if cleaned == "" || isNoise(cleaned, noise) {
			continue
		}
		for _, frag := range SplitLine(cleaned) {
			if textnorm.WordCount(frag) < minWords {
				continue
			}
			out = append(out, Sentence{Index: len(out), Chapter: chapters[i], Text: frag})
		}
	}
	return out, nil
}

// SplitLine cuts a cleaned line after every '.', '!' or '?' that is followed
// by at least one space. Fragments are trimmed and empty ones dropped.
func SplitLine(cleaned string) []string {
	matches := boundary.FindAllStringIndex(cleaned, -1)
	parts := make([]string, 0, len(matches)+1)
	start := 0
	for _, m := range matches {
		parts = appendFragment(parts, cleaned[start:m[0]+1])
		start = m[1]
	}
	return appendFragment(parts, cleaned[start:])
}

func appendFragment(parts []string, frag string) []string {
	if frag = strings.TrimSpace(frag); frag != "" {
		parts = append(parts, frag)
	}
	return parts
}

func isNoise(cleaned string, phrases []string) bool {
	if len(phrases) == 0 {
		return false
	}
	lower := strings.ToLower(cleaned)
	for _, p := range phrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}
