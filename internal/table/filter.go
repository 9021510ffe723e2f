package table

import (
	"slices"
	"strconv"
	"strings"

	"book_insights/internal/textnorm"
)

// Filter selects rows. Empty Categories or Chapters select every value;
// Query matches sentences containing it after case folding.
type Filter struct {
	Categories []string
	Chapters   []int
	Query      string
}

// Apply returns a new table holding the rows that pass f, in table order.
func (f Filter) Apply(t *Table) *Table {
	query := textnorm.Fold(f.Query)
	out := make([]Row, 0, t.Len())
	t.Each(func(r Row) {
		if len(f.Categories) > 0 && !slices.Contains(f.Categories, r.Category) {
			return
		}
		if len(f.Chapters) > 0 && !slices.Contains(f.Chapters, r.Chapter) {
			return
		}
		if query != "" && !strings.Contains(textnorm.Fold(r.Sentence), query) {
			return
		}
		out = append(out, r)
	})
	return &Table{rows: out}
}

// Key renders f canonically, for use as a cache key.
func (f Filter) Key() string {
	cats := slices.Clone(f.Categories)
	slices.Sort(cats)
	chs := slices.Clone(f.Chapters)
	slices.Sort(chs)
	var b strings.Builder
	b.WriteString("c=")
	b.WriteString(strings.Join(cats, "\x1f"))
	b.WriteString("|ch=")
	for i, ch := range chs {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(ch))
	}
	b.WriteString("|q=")
	b.WriteString(textnorm.Fold(f.Query))
	return b.String()
}

// Categories returns the distinct categories present, sorted.
func Categories(t *Table) []string {
	seen := map[string]struct{}{}
	t.Each(func(r Row) { seen[r.Category] = struct{}{} })
	out := make([]string, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	slices.Sort(out)
	return out
}

// Chapters returns the distinct chapter ids present, sorted.
func Chapters(t *Table) []int {
	seen := map[int]struct{}{}
	t.Each(func(r Row) { seen[r.Chapter] = struct{}{} })
	out := make([]int, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	slices.Sort(out)
	return out
}
