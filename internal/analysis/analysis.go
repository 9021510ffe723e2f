// Package analysis runs the whole classification pass over one book: load,
// chapter tracking, segmentation, parallel rule matching, deduplication and
// table assembly.
package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"book_insights/internal/chapters"
	"book_insights/internal/dedup"
	"book_insights/internal/ingest"
	"book_insights/internal/pipeline"
	"book_insights/internal/rules"
	"book_insights/internal/segment"
	"book_insights/internal/table"
)

// Options configure one run. A nil Catalog means the embedded default.
type Options struct {
	Source     string
	Catalog    *rules.Catalog
	Segmenter  segment.Segmenter
	Dedup      bool
	Workers    int
	OnProgress ProgressFn
	Logger     *slog.Logger
}

// LogLine is one staged event of a run, kept for the run report.
type LogLine struct {
	Time    string `json:"time"`
	Level   string `json:"level"`
	Stage   string `json:"stage"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

type Result struct {
	RunID         string
	Source        string
	Title         string
	LineCount     int
	SentenceCount int
	RawRowCount   int
	Table         *table.Table
	Tracker       *chapters.Tracker
	StartedAt     time.Time
	CompletedAt   time.Time
	Log           []LogLine
}

// Run executes the analysis. It returns a complete table or an error, never
// a partial table. A book with no qualifying sentences yields an empty table.
func Run(ctx context.Context, opts Options) (*Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	res := &Result{
		RunID:     uuid.NewString(),
		Source:    opts.Source,
		StartedAt: time.Now(),
	}
	logger = logger.With("run_id", res.RunID)

	addLog := func(level slog.Level, stage, message, detail string) {
		logger.Log(ctx, level, message, "stage", stage, "detail", detail)
		res.Log = append(res.Log, LogLine{
			Time:    time.Now().Format("15:04:05.000"),
			Level:   level.String(),
			Stage:   stage,
			Message: message,
			Detail:  detail,
		})
	}

	addLog(slog.LevelInfo, "BOOT", "Run started", "source="+opts.Source)
	progress(opts.OnProgress, 2, "BOOT", "Run started")

	catalog := opts.Catalog
	if catalog == nil {
		var err error
		if catalog, err = rules.Default(); err != nil {
			return nil, err
		}
	}
	tracker, err := chapters.NewTracker(catalog.Chapters)
	if err != nil {
		return nil, err
	}
	engine, err := rules.NewEngine(catalog)
	if err != nil {
		return nil, fmt.Errorf("build rule engine: %w", err)
	}
	res.Tracker = tracker
	addLog(slog.LevelInfo, "CATALOG", "Catalog ready",
		fmt.Sprintf("chapters=%d rules=%d explanations=%d", len(catalog.Chapters), len(catalog.Rules), len(catalog.Explanations)))
	progress(opts.OnProgress, 8, "CATALOG", "Catalog validated")

	doc, err := ingest.ReadLines(opts.Source)
	if err != nil {
		return nil, err
	}
	res.Title = doc.Title
	res.LineCount = len(doc.Lines)
	addLog(slog.LevelInfo, "INGEST", "Lines loaded", fmt.Sprintf("lines=%d", res.LineCount))
	progress(opts.OnProgress, 20, "INGEST", fmt.Sprintf("%d lines loaded", res.LineCount))
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("analysis: %w", err)
	}

	chapterIDs := tracker.Track(doc.Lines)
	sentences, err := opts.Segmenter.Split(doc.Lines, chapterIDs)
	if err != nil {
		return nil, err
	}
	res.SentenceCount = len(sentences)
	addLog(slog.LevelInfo, "SEGMENT", "Sentences segmented", fmt.Sprintf("sentences=%d", res.SentenceCount))
	progress(opts.OnProgress, 35, "SEGMENT", fmt.Sprintf("%d sentences", res.SentenceCount))
	if res.SentenceCount == 0 {
		addLog(slog.LevelWarn, "SEGMENT", "No sentences qualified", "the result table is empty")
	}

	rows, err := pipeline.Dispatch(ctx, sentences, opts.Workers, func(s segment.Sentence) ([]table.Row, error) {
		return engine.Classify(s), nil
	})
	if err != nil {
		addLog(slog.LevelError, "CLASSIFY", "Classification failed", err.Error())
		return nil, err
	}
	res.RawRowCount = len(rows)
	addLog(slog.LevelInfo, "CLASSIFY", "Sentences classified", fmt.Sprintf("rows=%d", res.RawRowCount))
	progress(opts.OnProgress, 85, "CLASSIFY", fmt.Sprintf("%d rows matched", res.RawRowCount))

	if opts.Dedup {
		rows = dedup.Rows(rows)
		addLog(slog.LevelInfo, "DEDUP", "Duplicates removed", fmt.Sprintf("dropped=%d", res.RawRowCount-len(rows)))
	}
	progress(opts.OnProgress, 95, "DEDUP", "Rows consolidated")

	res.Table = table.Build(rows)
	res.CompletedAt = time.Now()
	addLog(slog.LevelInfo, "DONE", "Run complete",
		fmt.Sprintf("rows=%d elapsed=%s", res.Table.Len(), res.CompletedAt.Sub(res.StartedAt).Round(time.Millisecond)))
	progress(opts.OnProgress, 100, "DONE", "Analysis complete")
	return res, nil
}
