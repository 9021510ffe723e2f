package rules

import (
	"fmt"
	"slices"

	"book_insights/internal/segment"
	"book_insights/internal/table"
	"book_insights/internal/textnorm"
)

const (
	// ExplanationCategory is the category of every explanation rule row.
	ExplanationCategory = "Lesson/Explanation"
	// ShortQuoteCategory is the category of the length heuristic row.
	ShortQuoteCategory = "Short Quote"
	shortQuoteLabel    = "length"
)

// Engine applies a compiled catalog to sentences. It holds no mutable state
// and is safe for concurrent use.
type Engine struct {
	rules        []Rule
	explanations []Rule
	shortQuote   ShortQuote
}

// NewEngine builds an engine from a compiled catalog.
func NewEngine(c *Catalog) (*Engine, error) {
	for _, list := range [][]Rule{c.Rules, c.Explanations} {
		for _, r := range list {
			if r.re == nil {
				return nil, fmt.Errorf("rule %q is not compiled", r.Name)
			}
		}
	}
	return &Engine{
		rules:        slices.Clone(c.Rules),
		explanations: slices.Clone(c.Explanations),
		shortQuote:   c.ShortQuote,
	}, nil
}

// Classify returns the rows a sentence earns: the short quote row first,
// then one row per matching primary rule, then one per matching explanation
// rule, each group in catalog order.
func (e *Engine) Classify(s segment.Sentence) []table.Row {
	var out []table.Row
	row := func(category, label string, score int) table.Row {
		return table.Row{
			Category:     category,
			Chapter:      s.Chapter,
			SentenceNo:   s.Index,
			MatchedLabel: label,
			Sentence:     s.Text,
			Score:        score,
		}
	}

	if sq := e.shortQuote; sq.Enabled {
		if n := textnorm.WordCount(s.Text); n >= sq.MinWords && n <= sq.MaxWords {
			out = append(out, row(ShortQuoteCategory, shortQuoteLabel, sq.Score))
		}
	}
	for _, r := range e.rules {
		loc := r.re.FindStringIndex(s.Text)
		if loc == nil {
			continue
		}
		label := s.Text[loc[0]:loc[1]]
		if label == "" {
			label = r.Name
		}
		out = append(out, row(r.Name, label, r.Score))
	}
	for _, r := range e.explanations {
		if r.re.MatchString(s.Text) {
			out = append(out, row(ExplanationCategory, r.Name, r.Score))
		}
	}
	return out
}

// Rules returns the primary rules in evaluation order.
func (e *Engine) Rules() []Rule {
	return slices.Clone(e.rules)
}
