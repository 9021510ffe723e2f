package table

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"

	"book_insights/internal/apperr"
)

// WriteCSV writes the header and every row, comma separated.
func WriteCSV(w io.Writer, t *Table) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(t.Records()); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

// SaveCSV writes the table to path, replacing any previous file. The file
// is written beside path and renamed so readers never see a partial table.
func SaveCSV(path string, t *Table) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create csv dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".table-*.csv")
	if err != nil {
		return fmt.Errorf("create temp csv: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := WriteCSV(tmp, t); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp csv: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace csv: %w", err)
	}
	return nil
}

// ReadCSV parses a table written by WriteCSV.
func ReadCSV(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(Columns)
	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("read csv: missing header")
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	if !slices.Equal(header, Columns) {
		return nil, fmt.Errorf("read csv: unexpected header %q", header)
	}

	var rows []Row
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		row, err := parseRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("read csv line %d: %w", line, err)
		}
		rows = append(rows, row)
	}
	return &Table{rows: rows}, nil
}

// LoadCSV reads the table persisted at path.
func LoadCSV(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &apperr.MissingTableError{Path: path}
		}
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()
	return ReadCSV(f)
}

func parseRecord(rec []string) (Row, error) {
	chapter, err := strconv.Atoi(rec[1])
	if err != nil {
		return Row{}, fmt.Errorf("chapter: %w", err)
	}
	sentenceNo, err := strconv.Atoi(rec[2])
	if err != nil {
		return Row{}, fmt.Errorf("sentence no: %w", err)
	}
	score, err := strconv.Atoi(rec[5])
	if err != nil {
		return Row{}, fmt.Errorf("score: %w", err)
	}
	return Row{
		Category:     rec[0],
		Chapter:      chapter,
		SentenceNo:   sentenceNo,
		MatchedLabel: rec[3],
		Sentence:     rec[4],
		Score:        score,
	}, nil
}
