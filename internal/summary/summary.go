// Package summary computes the chart series shown for a result table: score
// per category, score per chapter, keyword frequency and sentence length
// statistics.
package summary

import (
	"cmp"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/kljensen/snowball"

	"book_insights/internal/table"
)

// Chapters names the chapter ids of a catalog; *chapters.Tracker satisfies it.
type Chapters interface {
	IDs() []int
	Title(id int) string
}

type Metrics struct {
	Rows            int `json:"rows"`
	TotalScore      int `json:"total_score"`
	ChaptersCovered int `json:"chapters_covered"`
}

type CategoryScore struct {
	Category string `json:"category"`
	Score    int    `json:"score"`
	Rows     int    `json:"rows"`
}

type ChapterScore struct {
	Chapter int    `json:"chapter"`
	Title   string `json:"title"`
	Score   int    `json:"score"`
	Rows    int    `json:"rows"`
}

type KeywordCount struct {
	Keyword string `json:"keyword"`
	Count   int    `json:"count"`
}

type Summary struct {
	Metrics         Metrics         `json:"metrics"`
	ByCategory      []CategoryScore `json:"by_category"`
	ByChapter       []ChapterScore  `json:"by_chapter"`
	KeywordCategory string          `json:"keyword_category"`
	Keywords        []KeywordCount  `json:"keywords"`
	Sentences       SentenceStats   `json:"sentences"`
}

type Options struct {
	Chapters        Chapters
	KeywordCategory string
	Keywords        []string
}

// Build computes every series for t. A zero-row table yields empty series.
func Build(t *table.Table, opts Options) Summary {
	return Summary{
		Metrics:         MetricsOf(t),
		ByCategory:      ScoreByCategory(t),
		ByChapter:       ScoreByChapter(t, opts.Chapters),
		KeywordCategory: opts.KeywordCategory,
		Keywords:        KeywordFrequency(t, opts.KeywordCategory, opts.Keywords),
		Sentences:       Stats(t),
	}
}

func MetricsOf(t *table.Table) Metrics {
	var m Metrics
	seen := map[int]struct{}{}
	t.Each(func(r table.Row) {
		m.Rows++
		m.TotalScore += r.Score
		seen[r.Chapter] = struct{}{}
	})
	m.ChaptersCovered = len(seen)
	return m
}

// ScoreByCategory totals scores per category, lowest total first.
func ScoreByCategory(t *table.Table) []CategoryScore {
	idx := map[string]int{}
	out := []CategoryScore{}
	t.Each(func(r table.Row) {
		i, ok := idx[r.Category]
		if !ok {
			i = len(out)
			idx[r.Category] = i
			out = append(out, CategoryScore{Category: r.Category})
		}
		out[i].Score += r.Score
		out[i].Rows++
	})
	slices.SortFunc(out, func(a, b CategoryScore) int {
		return cmp.Or(cmp.Compare(a.Score, b.Score), strings.Compare(a.Category, b.Category))
	})
	return out
}

// ScoreByChapter totals scores per chapter in id order. With a catalog,
// every catalog chapter is present, zero when it has no rows. An empty
// table yields an empty series either way.
func ScoreByChapter(t *table.Table, chs Chapters) []ChapterScore {
	if t.Len() == 0 {
		return []ChapterScore{}
	}
	byID := map[int]*ChapterScore{}
	add := func(id int) *ChapterScore {
		if c, ok := byID[id]; ok {
			return c
		}
		c := &ChapterScore{Chapter: id, Title: fmt.Sprintf("Chapter %d", id)}
		if chs != nil {
			c.Title = chs.Title(id)
		}
		byID[id] = c
		return c
	}
	if chs != nil {
		for _, id := range chs.IDs() {
			add(id)
		}
	}
	t.Each(func(r table.Row) {
		c := add(r.Chapter)
		c.Score += r.Score
		c.Rows++
	})

	out := make([]ChapterScore, 0, len(byID))
	for _, c := range byID {
		out = append(out, *c)
	}
	slices.SortFunc(out, func(a, b ChapterScore) int { return cmp.Compare(a.Chapter, b.Chapter) })
	return out
}

var wordPattern = regexp.MustCompile(`[A-Za-z']+`)

func stem(word string) string {
	s, err := snowball.Stem(word, "english", true)
	if err != nil || s == "" {
		return word
	}
	return s
}

// KeywordFrequency counts the words of category's sentences whose English
// stem equals a keyword's stem, so "assets" counts for "asset". Keywords
// that never occur are omitted; the rest are ordered by count, then by their
// position in keywords.
func KeywordFrequency(t *table.Table, category string, keywords []string) []KeywordCount {
	order := map[string]int{}
	counts := make([]KeywordCount, 0, len(keywords))
	for _, k := range keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" {
			continue
		}
		st := stem(k)
		if _, dup := order[st]; dup {
			continue
		}
		order[st] = len(counts)
		counts = append(counts, KeywordCount{Keyword: k})
	}
	if len(counts) == 0 {
		return []KeywordCount{}
	}

	t.Each(func(r table.Row) {
		if r.Category != category {
			return
		}
		for _, tok := range wordPattern.FindAllString(strings.ToLower(r.Sentence), -1) {
			if i, ok := order[stem(strings.Trim(tok, "'"))]; ok {
				counts[i].Count++
			}
		}
	})

	out := make([]KeywordCount, 0, len(counts))
	for _, c := range counts {
		if c.Count > 0 {
			out = append(out, c)
		}
	}
	slices.SortStableFunc(out, func(a, b KeywordCount) int { return cmp.Compare(b.Count, a.Count) })
	return out
}
