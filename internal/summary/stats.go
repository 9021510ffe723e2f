package summary

import (
	"math"
	"slices"

	"book_insights/internal/table"
	"book_insights/internal/textnorm"
)

// monotoneSD is the sentence-length deviation below which prose reads flat.
const monotoneSD = 4.0

type SentenceStats struct {
	Sentences int     `json:"sentences"`
	MeanWords float64 `json:"mean_words"`
	WordsSD   float64 `json:"words_sd"`
	Monotone  bool    `json:"monotone"`
}

// Stats measures the distinct sentences of t, keyed by sentence number.
func Stats(t *table.Table) SentenceStats {
	seen := map[int]struct{}{}
	lengths := []float64{}
	t.Each(func(r table.Row) {
		if _, ok := seen[r.SentenceNo]; ok {
			return
		}
		seen[r.SentenceNo] = struct{}{}
		lengths = append(lengths, float64(textnorm.WordCount(r.Sentence)))
	})
	sd, mean := lengthStats(lengths)
	return SentenceStats{
		Sentences: len(lengths),
		MeanWords: mean,
		WordsSD:   sd,
		Monotone:  len(lengths) > 1 && sd < monotoneSD,
	}
}

func lengthStats(lengths []float64) (sd float64, mean float64) {
	lengths = slices.DeleteFunc(slices.Clone(lengths), func(l float64) bool { return l <= 0 })
	if len(lengths) == 0 {
		return 0, 0
	}

	total := 0.0
	for _, l := range lengths {
		total += l
	}
	mean = total / float64(len(lengths))
	if len(lengths) == 1 {
		return 0, mean
	}

	var variance float64
	for _, l := range lengths {
		d := l - mean
		variance += d * d
	}
	variance /= float64(len(lengths))
	return math.Sqrt(variance), mean
}
