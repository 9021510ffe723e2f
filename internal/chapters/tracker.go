package chapters

import (
	"fmt"
	"regexp"
	"slices"

	"book_insights/internal/apperr"
	"book_insights/internal/textnorm"
)

// Boundary marks the start of chapter ID when Pattern matches a whole
// cleaned line. Boundaries are tested in slice order and the first match wins.
type Boundary struct {
	ID      int    `yaml:"id" json:"id"`
	Title   string `yaml:"title" json:"title"`
	Pattern string `yaml:"pattern" json:"pattern"`
}

// DefaultBoundaries returns the chapter catalog of Rich Dad Poor Dad.
func DefaultBoundaries() []Boundary {
	return []Boundary{
		{ID: 0, Title: "Introduction", Pattern: `Introduction`},
		{ID: 1, Title: "Lesson 1: The Rich Don't Work for Money", Pattern: `Chapter One`},
		{ID: 2, Title: "Lesson 2: Why Teach Financial Literacy?", Pattern: `Chapter Two`},
		{ID: 3, Title: "Lesson 3: Mind Your Own Business", Pattern: `Chapter Three`},
		{ID: 4, Title: "Lesson 4: History of Taxes & Corporations", Pattern: `Chapter Four`},
		{ID: 5, Title: "Lesson 5: The Rich Invent Money", Pattern: `Chapter Five`},
		{ID: 6, Title: "Lesson 6: Work to Learn", Pattern: `Chapter Six`},
		{ID: 7, Title: "Overcoming Obstacles", Pattern: `Chapter Seven`},
		{ID: 8, Title: "Getting Started", Pattern: `Chapter Eight`},
		{ID: 9, Title: "Still Want More?", Pattern: `Chapter Nine`},
		{ID: 10, Title: "Final Thoughts", Pattern: `Final Thoughts`},
	}
}

type compiled struct {
	id int
	re *regexp.Regexp
}

// Tracker assigns a chapter to every line of a document.
type Tracker struct {
	boundaries []compiled
	titles     map[int]string
	ids        []int
}

// NewTracker compiles the boundaries. Patterns are case-insensitive and
// always anchored to the full line.
func NewTracker(boundaries []Boundary) (*Tracker, error) {
	t := &Tracker{
		boundaries: make([]compiled, 0, len(boundaries)),
		titles:     map[int]string{0: "Introduction"},
	}
	named := map[int]bool{}
	for _, b := range boundaries {
		if b.ID < 0 {
			return nil, apperr.NewConfigError("chapter boundary", b.Title, fmt.Errorf("negative chapter id %d", b.ID))
		}
		if b.Pattern == "" {
			return nil, apperr.NewConfigError("chapter boundary", b.Title, fmt.Errorf("empty pattern"))
		}
		re, err := regexp.Compile(`(?i)^(?:` + b.Pattern + `)$`)
		if err != nil {
			return nil, apperr.NewConfigError("chapter boundary", b.Title, err)
		}
		t.boundaries = append(t.boundaries, compiled{id: b.ID, re: re})
		// first non-empty title per id wins
		if b.Title != "" && !named[b.ID] {
			t.titles[b.ID] = b.Title
			named[b.ID] = true
		} else if _, ok := t.titles[b.ID]; !ok {
			t.titles[b.ID] = fmt.Sprintf("Chapter %d", b.ID)
		}
	}
	for id := range t.titles {
		t.ids = append(t.ids, id)
	}
	slices.Sort(t.ids)
	return t, nil
}

// Track returns one chapter id per line: the id of the boundary that most
// recently matched at or before that line, or 0 before any match.
func (t *Tracker) Track(lines []string) []int {
	out := make([]int, len(lines))
	current := 0
	for i, line := range lines {
		if id, ok := t.Match(line); ok {
			current = id
		}
		out[i] = current
	}
	return out
}

// Match reports the chapter id of the first boundary matching the cleaned line.
func (t *Tracker) Match(line string) (int, bool) {
	cleaned := textnorm.Clean(line)
	for _, b := range t.boundaries {
		if b.re.MatchString(cleaned) {
			return b.id, true
		}
	}
	return 0, false
}

// Title returns the catalog title of a chapter id.
func (t *Tracker) Title(id int) string {
	if title, ok := t.titles[id]; ok {
		return title
	}
	return fmt.Sprintf("Chapter %d", id)
}

// IDs returns every chapter id in the catalog in ascending order.
func (t *Tracker) IDs() []int {
	return slices.Clone(t.ids)
}
