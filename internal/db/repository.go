package db

import (
	"database/sql"
	"fmt"
	"time"

	"book_insights/internal/table"
)

// Run is one row of the append-only run log.
type Run struct {
	RunID       string
	Source      string
	StartedAt   time.Time
	CompletedAt time.Time
	Sentences   int
	Rows        int
}

// PersistResults replaces the results table with t and appends run to the
// run log, in one transaction. Readers see the old table or the new one.
func PersistResults(dbPath, name string, t *table.Table, run Run) error {
	if err := checkTableName(name); err != nil {
		return err
	}
	conn, err := Open(dbPath)
	if err != nil {
		return err
	}
	defer conn.Close()

	tx, err := conn.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DROP TABLE IF EXISTS ` + name); err != nil {
		return fmt.Errorf("drop results: %w", err)
	}
	if _, err := tx.Exec(resultsTableSQL(name)); err != nil {
		return fmt.Errorf("create results: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO ` + name + `("Category", "Chapter", "Sentence No", "Matched Keyword/Pattern", "Sentence", "Score") VALUES(?,?,?,?,?,?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	var insertErr error
	t.Each(func(r table.Row) {
		if insertErr != nil {
			return
		}
		if _, err := stmt.Exec(r.Category, r.Chapter, r.SentenceNo, r.MatchedLabel, r.Sentence, r.Score); err != nil {
			insertErr = fmt.Errorf("insert result: %w", err)
		}
	})
	if insertErr != nil {
		return insertErr
	}

	if run.RunID != "" {
		if _, err := tx.Exec(
			`INSERT INTO runs(run_id, source, started_at, completed_at, sentences, rows) VALUES(?,?,?,?,?,?)`,
			run.RunID,
			run.Source,
			run.StartedAt.UTC().Format(time.RFC3339Nano),
			run.CompletedAt.UTC().Format(time.RFC3339Nano),
			run.Sentences,
			run.Rows,
		); err != nil {
			return fmt.Errorf("insert run: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// LoadResults reads the results table back in rowid order.
func LoadResults(dbPath, name string) (*table.Table, error) {
	if err := checkTableName(name); err != nil {
		return nil, err
	}
	conn, err := Open(dbPath)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	rows, err := conn.Query(`SELECT "Category", "Chapter", "Sentence No", "Matched Keyword/Pattern", "Sentence", "Score" FROM ` + name + ` ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	defer rows.Close()

	var out []table.Row
	for rows.Next() {
		var r table.Row
		if err := rows.Scan(&r.Category, &r.Chapter, &r.SentenceNo, &r.MatchedLabel, &r.Sentence, &r.Score); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate results: %w", err)
	}
	return table.Build(out), nil
}

// ListRuns returns the run log, oldest first.
func ListRuns(dbPath string) ([]Run, error) {
	conn, err := Open(dbPath)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	rows, err := conn.Query(`SELECT run_id, source, started_at, completed_at, sentences, rows FROM runs ORDER BY started_at, rowid`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var (
			r                  Run
			started, completed string
		)
		if err := rows.Scan(&r.RunID, &r.Source, &started, &completed, &r.Sentences, &r.Rows); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.StartedAt, _ = time.Parse(time.RFC3339Nano, started)
		r.CompletedAt, _ = time.Parse(time.RFC3339Nano, completed)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return out, nil
}

func CountRows(dbPath, name string) (int, error) {
	if err := checkTableName(name); err != nil {
		return 0, err
	}
	conn, err := Open(dbPath)
	if err != nil {
		return 0, err
	}
	defer conn.Close()
	return countRowsConn(conn, name)
}

func countRowsConn(conn *sql.DB, name string) (int, error) {
	row := conn.QueryRow(`SELECT COUNT(*) FROM ` + name)
	var count int
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("scan count: %w", err)
	}
	return count, nil
}
