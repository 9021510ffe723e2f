package workspace

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"book_insights/internal/analysis"
	"book_insights/internal/db"
	"book_insights/internal/summary"
	"book_insights/internal/table"
)

// Report describes one completed run and where its artifacts went.
type Report struct {
	BookTitle   string             `json:"book_title"`
	RunID       string             `json:"run_id"`
	Source      string             `json:"source"`
	StartedAt   time.Time          `json:"started_at"`
	CompletedAt time.Time          `json:"completed_at"`
	Lines       int                `json:"lines"`
	Sentences   int                `json:"sentences"`
	RawRows     int                `json:"raw_rows"`
	Rows        int                `json:"rows"`
	TotalScore  int                `json:"total_score"`
	CSVPath     string             `json:"csv_path"`
	DBPath      string             `json:"db_path"`
	DBTable     string             `json:"db_table"`
	SummaryPath string             `json:"summary_path"`
	Settings    any                `json:"settings,omitempty"`
	Log         []analysis.LogLine `json:"log"`
}

// Publish writes every artifact of a finished run: the sqlite results table
// and run log, the CSV table, the chart summary and the run report. The
// sqlite transaction goes first so a failed commit leaves the CSV, which the
// dashboard serves, on the previous run.
func Publish(l Layout, dbTable string, res *analysis.Result, opts summary.Options, settings any) (*Report, error) {
	if res == nil || res.Table == nil {
		return nil, fmt.Errorf("publish: no result table")
	}
	if opts.Chapters == nil && res.Tracker != nil {
		opts.Chapters = res.Tracker
	}

	run := db.Run{
		RunID:       res.RunID,
		Source:      res.Source,
		StartedAt:   res.StartedAt,
		CompletedAt: res.CompletedAt,
		Sentences:   res.SentenceCount,
		Rows:        res.Table.Len(),
	}
	if err := db.PersistResults(l.DBPath, dbTable, res.Table, run); err != nil {
		return nil, fmt.Errorf("persist results: %w", err)
	}
	if err := table.SaveCSV(l.CSVPath, res.Table); err != nil {
		return nil, err
	}

	sum := summary.Build(res.Table, opts)
	if err := SaveSummary(l.SummaryPath, sum); err != nil {
		return nil, err
	}

	report := Report{
		BookTitle:   res.Title,
		RunID:       res.RunID,
		Source:      res.Source,
		StartedAt:   res.StartedAt,
		CompletedAt: res.CompletedAt,
		Lines:       res.LineCount,
		Sentences:   res.SentenceCount,
		RawRows:     res.RawRowCount,
		Rows:        res.Table.Len(),
		TotalScore:  sum.Metrics.TotalScore,
		CSVPath:     l.CSVPath,
		DBPath:      l.DBPath,
		DBTable:     dbTable,
		SummaryPath: l.SummaryPath,
		Settings:    settings,
		Log:         res.Log,
	}
	if err := SaveReport(l.ReportPath, report); err != nil {
		return nil, err
	}
	return &report, nil
}

func SaveReport(path string, report Report) error {
	raw, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	return writeFile(path, raw, "report")
}

func SaveSummary(path string, s summary.Summary) error {
	raw, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}
	return writeFile(path, raw, "summary")
}

// LoadReport reads a report written by SaveReport.
func LoadReport(path string) (*Report, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read report: %w", err)
	}
	var r Report
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, fmt.Errorf("decode report: %w", err)
	}
	return &r, nil
}

func writeFile(path string, raw []byte, what string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir %s dir: %w", what, err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", what, err)
	}
	return nil
}
