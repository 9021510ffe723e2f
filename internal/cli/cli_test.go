package cli

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"book_insights/internal/apperr"
	"book_insights/internal/rules"
	"book_insights/internal/table"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	return home
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "bookinsight dev\n", out)
}

func TestConfigShowAppliesEnv(t *testing.T) {
	isolate(t)
	t.Setenv("BOOKINSIGHT_WORKERS", "3")

	out, err := run(t, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "workers: 3")
	assert.Contains(t, out, "min_words: 1")
	assert.Contains(t, out, "db_table: analysis_results")
}

func TestConfigInitThenShow(t *testing.T) {
	home := isolate(t)

	out, err := run(t, "config", "init")
	require.NoError(t, err)
	path := filepath.Join(home, ".bookinsight", "config.yaml")
	assert.Contains(t, out, path)
	require.FileExists(t, path)

	_, err = run(t, "config", "init")
	assert.Error(t, err, "init must not overwrite without --force")

	custom := filepath.Join(home, "custom.yaml")
	require.NoError(t, os.WriteFile(custom, []byte("segment:\n  min_words: 8\n"), 0o644))
	out, err = run(t, "config", "show", "--config", custom)
	require.NoError(t, err)
	assert.Contains(t, out, "min_words: 8")
}

func TestRulesPrintsParseableCatalog(t *testing.T) {
	isolate(t)
	out, err := run(t, "rules")
	require.NoError(t, err)

	c, err := rules.Parse([]byte(out))
	require.NoError(t, err)
	assert.Len(t, c.Rules, 8)
	assert.Len(t, c.Explanations, 5)
}

func TestAnalyzeWritesArtifacts(t *testing.T) {
	home := isolate(t)
	book := filepath.Join(home, "book.txt")
	require.NoError(t, os.WriteFile(book, []byte("Chapter One\nRich people have assets. The poor work for money.\n"), 0o644))
	outDir := filepath.Join(home, "output")

	out, err := run(t, "analyze", book, "--output", outDir, "--workers", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "2 rows")

	tbl, err := table.LoadCSV(filepath.Join(outDir, "csv", "rich_dad_analysis_output.csv"))
	require.NoError(t, err)
	assert.Equal(t, 2, tbl.Len())
	assert.FileExists(t, filepath.Join(outDir, "csv", "results_hp.db"))
	assert.FileExists(t, filepath.Join(outDir, "reports", "summary.json"))
	assert.FileExists(t, filepath.Join(outDir, "reports", "run_report.json"))
}

func TestAnalyzeMissingInputWritesNothing(t *testing.T) {
	home := isolate(t)
	outDir := filepath.Join(home, "output")

	_, err := run(t, "analyze", filepath.Join(home, "absent.txt"), "--output", outDir)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrMissingInput), "got %v", err)
	assert.NoDirExists(t, outDir)
}

func TestAnalyzeRejectsInvalidSetting(t *testing.T) {
	isolate(t)
	_, err := run(t, "analyze", "--min-words", "-1")
	assert.True(t, errors.Is(err, apperr.ErrConfiguration), "got %v", err)
}
