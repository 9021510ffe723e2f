package rules

import (
	"errors"
	"reflect"
	"testing"

	"book_insights/internal/apperr"
	"book_insights/internal/segment"
	"book_insights/internal/table"
)

func defaultEngine(t *testing.T) *Engine {
	t.Helper()
	c, err := Default()
	if err != nil {
		t.Fatalf("default catalog: %v", err)
	}
	e, err := NewEngine(c)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return e
}

func categories(rows []table.Row) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Category)
	}
	return out
}

func TestClassifyAssetsSentence(t *testing.T) {
	e := defaultEngine(t)
	rows := e.Classify(segment.Sentence{Index: 0, Chapter: 1, Text: "Rich people have assets."})
	want := []table.Row{{
		Category:     "Assets vs Liabilities",
		Chapter:      1,
		SentenceNo:   0,
		MatchedLabel: "assets",
		Sentence:     "Rich people have assets.",
		Score:        3,
	}}
	if !reflect.DeepEqual(rows, want) {
		t.Fatalf("expected %+v, got %+v", want, rows)
	}
}

func TestClassifyOrderAndShortQuote(t *testing.T) {
	e := defaultEngine(t)
	s := segment.Sentence{Index: 5, Chapter: 2, Text: "I learned that the rich buy assets and the poor buy liabilities."}
	rows := e.Classify(s)

	want := []string{ShortQuoteCategory, "Assets vs Liabilities", "Rich vs Poor Mindset"}
	if got := categories(rows); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected categories %v, got %v", want, got)
	}
	if rows[0].MatchedLabel != "length" || rows[0].Score != 0 {
		t.Fatalf("unexpected short quote row %+v", rows[0])
	}
	if rows[2].MatchedLabel != "rich buy assets and the poor" || rows[2].Score != 4 {
		t.Fatalf("unexpected mindset row %+v", rows[2])
	}
	for _, r := range rows {
		if r.SentenceNo != 5 || r.Chapter != 2 {
			t.Fatalf("row lost its sentence attribution: %+v", r)
		}
	}
}

func TestClassifyExplanations(t *testing.T) {
	e := defaultEngine(t)
	rows := e.Classify(segment.Sentence{Text: "For example, you should buy ASSETS."})
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %+v", rows)
	}
	if rows[0].Category != "Assets vs Liabilities" || rows[0].MatchedLabel != "ASSETS" {
		t.Fatalf("expected literal matched text, got %+v", rows[0])
	}
	for i, name := range []string{"Example or Story", "Advice"} {
		r := rows[i+1]
		if r.Category != ExplanationCategory || r.MatchedLabel != name {
			t.Fatalf("expected explanation %q, got %+v", name, r)
		}
	}
}

func TestClassifyNoMatch(t *testing.T) {
	e := defaultEngine(t)
	if rows := e.Classify(segment.Sentence{Text: "The sky was grey."}); len(rows) != 0 {
		t.Fatalf("expected no rows, got %+v", rows)
	}
}

func TestParseRejectsMalformedPattern(t *testing.T) {
	_, err := Parse([]byte("rules:\n  - {name: Broken, pattern: '(money', score: 1}\n"))
	if !errors.Is(err, apperr.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	var ce *apperr.ConfigError
	if !errors.As(err, &ce) || ce.Name != "Broken" {
		t.Fatalf("expected error naming the rule, got %v", err)
	}
}

func TestParseRejectsDuplicateNames(t *testing.T) {
	doc := "rules:\n  - {name: A, pattern: a, score: 1}\nexplanations:\n  - {name: A, pattern: b, score: 1}\n"
	if _, err := Parse([]byte(doc)); !errors.Is(err, apperr.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestParseKeepsMissingSections(t *testing.T) {
	doc := "rules:\n  - {name: Cash, pattern: 'cash', score: 7}\nexplanations: []\nshort_quote: {enabled: false}\n"
	c, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(c.Rules) != 1 || len(c.Explanations) != 0 || c.ShortQuote.Enabled {
		t.Fatalf("unexpected catalog %+v", c)
	}
	if len(c.Chapters) != 11 {
		t.Fatalf("expected default chapters kept, got %d", len(c.Chapters))
	}

	e, err := NewEngine(c)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	rows := e.Classify(segment.Sentence{Text: "Cash is king, cash flows."})
	if len(rows) != 1 || rows[0].Score != 7 || rows[0].MatchedLabel != "Cash" {
		t.Fatalf("unexpected rows %+v", rows)
	}
}

func TestMarshalIsParseable(t *testing.T) {
	c, err := Default()
	if err != nil {
		t.Fatalf("default: %v", err)
	}
	raw, err := c.Marshal()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	back, err := Parse(raw)
	if err != nil {
		t.Fatalf("parse marshaled catalog: %v", err)
	}
	if len(back.Rules) != len(c.Rules) || back.Rules[3].Pattern != c.Rules[3].Pattern {
		t.Fatalf("catalog changed across marshal: %+v", back.Rules)
	}
}

func TestNewEngineRequiresCompiledCatalog(t *testing.T) {
	c := &Catalog{Rules: []Rule{{Name: "x", Pattern: "x", Score: 1}}}
	if _, err := NewEngine(c); err == nil {
		t.Fatal("expected error for uncompiled catalog")
	}
}
