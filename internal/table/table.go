// Package table holds the classification row type, the result table built
// from it and its flat-file form.
package table

import (
	"slices"
	"strconv"
)

// Columns is the fixed column order of the result table.
var Columns = []string{
	"Category",
	"Chapter",
	"Sentence No",
	"Matched Keyword/Pattern",
	"Sentence",
	"Score",
}

// Row is one classification of one sentence.
type Row struct {
	Category     string `json:"category"`
	Chapter      int    `json:"chapter"`
	SentenceNo   int    `json:"sentence_no"`
	MatchedLabel string `json:"matched_label"`
	Sentence     string `json:"sentence"`
	Score        int    `json:"score"`
}

// Record renders the row in column order.
func (r Row) Record() []string {
	return []string{
		r.Category,
		strconv.Itoa(r.Chapter),
		strconv.Itoa(r.SentenceNo),
		r.MatchedLabel,
		r.Sentence,
		strconv.Itoa(r.Score),
	}
}

// Table is the final ordered collection of rows handed to persistence and
// aggregation. It is never modified after Build.
type Table struct {
	rows []Row
}

// Build copies rows into a new table.
func Build(rows []Row) *Table {
	return &Table{rows: slices.Clone(rows)}
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.rows)
}

// Rows returns a copy of the rows.
func (t *Table) Rows() []Row {
	if t == nil {
		return []Row{}
	}
	out := make([]Row, len(t.rows))
	copy(out, t.rows)
	return out
}

// Each calls fn for every row in order without copying.
func (t *Table) Each(fn func(Row)) {
	if t == nil {
		return
	}
	for _, r := range t.rows {
		fn(r)
	}
}

// Header returns a copy of Columns.
func (t *Table) Header() []string {
	return slices.Clone(Columns)
}

// Records returns the header followed by one record per row.
func (t *Table) Records() [][]string {
	out := make([][]string, 0, t.Len()+1)
	out = append(out, t.Header())
	t.Each(func(r Row) {
		out = append(out, r.Record())
	})
	return out
}
