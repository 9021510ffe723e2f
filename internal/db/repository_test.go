package db

import (
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"book_insights/internal/table"
)

func sampleTable() *table.Table {
	return table.Build([]table.Row{
		{Category: "Money Terms", Chapter: 1, SentenceNo: 3, MatchedLabel: "money", Sentence: "The poor work for money.", Score: 2},
		{Category: "Assets vs Liabilities", Chapter: 2, SentenceNo: 9, MatchedLabel: "assets", Sentence: "Rich people have assets.", Score: 3},
	})
}

func TestPersistResults(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "results.db")
	started := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	run := Run{RunID: "r1", Source: "book.txt", StartedAt: started, CompletedAt: started.Add(time.Second), Sentences: 12, Rows: 2}

	if err := PersistResults(dbPath, DefaultResultsTable, sampleTable(), run); err != nil {
		t.Fatalf("persist results: %v", err)
	}

	count, err := CountRows(dbPath, DefaultResultsTable)
	if err != nil {
		t.Fatalf("count results: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 results, got %d", count)
	}

	back, err := LoadResults(dbPath, DefaultResultsTable)
	if err != nil {
		t.Fatalf("load results: %v", err)
	}
	if !reflect.DeepEqual(back.Rows(), sampleTable().Rows()) {
		t.Fatalf("rows changed across sqlite: %+v", back.Rows())
	}
}

func TestPersistResultsReplacesTable(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "results.db")
	if err := PersistResults(dbPath, DefaultResultsTable, sampleTable(), Run{RunID: "r1"}); err != nil {
		t.Fatalf("first persist: %v", err)
	}
	if err := PersistResults(dbPath, DefaultResultsTable, table.Build(nil), Run{RunID: "r2"}); err != nil {
		t.Fatalf("second persist: %v", err)
	}

	count, err := CountRows(dbPath, DefaultResultsTable)
	if err != nil {
		t.Fatalf("count results: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected results replaced by empty table, got %d rows", count)
	}

	runs, err := ListRuns(dbPath)
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(runs) != 2 || runs[0].RunID != "r1" || runs[1].RunID != "r2" {
		t.Fatalf("expected both runs logged, got %+v", runs)
	}
}

func TestPersistResultsRejectsBadTableName(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "results.db")
	if err := PersistResults(dbPath, "results; DROP TABLE runs", sampleTable(), Run{}); err == nil {
		t.Fatal("expected invalid table name error")
	}
}
