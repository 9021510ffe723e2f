package db

import (
	"database/sql"
	"fmt"
	"regexp"

	_ "modernc.org/sqlite"
)

const SchemaSQL = `
CREATE TABLE IF NOT EXISTS runs (
    run_id TEXT PRIMARY KEY,
    source TEXT,
    started_at TEXT,
    completed_at TEXT,
    sentences INTEGER,
    rows INTEGER
);
`

// DefaultResultsTable is the table the dashboard and downstream tools read.
const DefaultResultsTable = "analysis_results"

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func resultsTableSQL(name string) string {
	return `CREATE TABLE ` + name + ` (
    "Category" TEXT,
    "Chapter" INTEGER,
    "Sentence No" INTEGER,
    "Matched Keyword/Pattern" TEXT,
    "Sentence" TEXT,
    "Score" INTEGER
)`
}

func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(SchemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return db, nil
}

func checkTableName(name string) error {
	if !tableName.MatchString(name) {
		return fmt.Errorf("invalid table name %q", name)
	}
	return nil
}
