// Package textnorm holds the line cleaning shared by chapter tracking and
// sentence segmentation, plus the case-folded form used to compare sentences.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
)

var typographic = strings.NewReplacer(
	"’", "'",
	"‘", "'",
	"“", `"`,
	"”", `"`,
)

// Clean collapses whitespace and drops every character outside letters,
// digits, spaces and the punctuation . , ! ? ' ".
func Clean(line string) string {
	line = typographic.Replace(line)
	var b strings.Builder
	b.Grow(len(line))
	for _, r := range line {
		switch {
		case unicode.IsSpace(r):
			b.WriteByte(' ')
		case allowed(r):
			b.WriteRune(r)
		}
	}
	return Collapse(b.String())
}

func allowed(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	}
	return strings.ContainsRune(`.,!?'" `, r)
}

// Collapse trims s and replaces every whitespace run with a single space.
func Collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Fold returns the comparison key for s: whitespace collapsed and case folded.
func Fold(s string) string {
	// a Caser keeps state between calls and must not be shared.
	return cases.Fold().String(Collapse(s))
}

// WordCount counts whitespace separated fields.
func WordCount(s string) int {
	return len(strings.Fields(s))
}
