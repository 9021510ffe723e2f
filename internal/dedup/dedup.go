// Package dedup collapses classification rows that repeat the same theme,
// chapter and sentence text.
package dedup

import (
	"book_insights/internal/table"
	"book_insights/internal/textnorm"
)

type key struct {
	category string
	chapter  int
	text     string
}

// Rows keeps the first row of every (category, chapter, folded sentence)
// group and drops the rest, preserving order. The input is not modified.
func Rows(rows []table.Row) []table.Row {
	seen := make(map[key]struct{}, len(rows))
	out := make([]table.Row, 0, len(rows))
	for _, r := range rows {
		k := key{category: r.Category, chapter: r.Chapter, text: textnorm.Fold(r.Sentence)}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, r)
	}
	return out
}
