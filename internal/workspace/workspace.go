// Package workspace owns the on-disk layout of analysis outputs and writes
// them after a successful run.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	CSVDirName      = "csv"
	ReportsDirName  = "reports"
	SummaryFileName = "summary.json"
	ReportFileName  = "run_report.json"
)

// Layout lists the artifact paths under one output directory.
type Layout struct {
	Root        string
	CSVDir      string
	ReportsDir  string
	CSVPath     string
	DBPath      string
	SummaryPath string
	ReportPath  string
}

// LayoutAt computes the paths under base without touching the disk.
func LayoutAt(base, csvName, dbName string) Layout {
	csvDir := filepath.Join(base, CSVDirName)
	reports := filepath.Join(base, ReportsDirName)
	return Layout{
		Root:        base,
		CSVDir:      csvDir,
		ReportsDir:  reports,
		CSVPath:     filepath.Join(csvDir, csvName),
		DBPath:      filepath.Join(csvDir, dbName),
		SummaryPath: filepath.Join(reports, SummaryFileName),
		ReportPath:  filepath.Join(reports, ReportFileName),
	}
}

// EnsureAt creates the output directories under base.
func EnsureAt(base, csvName, dbName string) (Layout, error) {
	l := LayoutAt(base, csvName, dbName)
	for _, p := range []string{l.CSVDir, l.ReportsDir} {
		if err := os.MkdirAll(p, 0o755); err != nil {
			return Layout{}, fmt.Errorf("mkdir %s: %w", p, err)
		}
	}
	return l, nil
}
