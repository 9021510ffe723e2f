package dashboard

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"book_insights/internal/chapters"
	"book_insights/internal/summary"
	"book_insights/internal/table"
)

func sampleTable() *table.Table {
	return table.Build([]table.Row{
		{Category: "Money Terms", Chapter: 1, SentenceNo: 0, MatchedLabel: "money", Sentence: "The poor work for money.", Score: 2},
		{Category: "Assets vs Liabilities", Chapter: 1, SentenceNo: 1, MatchedLabel: "assets", Sentence: "Rich people have assets.", Score: 3},
		{Category: "Money Terms", Chapter: 3, SentenceNo: 7, MatchedLabel: "income", Sentence: "Income is not wealth.", Score: 2},
	})
}

func setupTestServer(t *testing.T, tbl *table.Table) (*Server, *gin.Engine, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	csvPath := filepath.Join(t.TempDir(), "analysis.csv")
	if tbl != nil {
		require.NoError(t, table.SaveCSV(csvPath, tbl))
	}
	tracker, err := chapters.NewTracker(chapters.DefaultBoundaries())
	require.NoError(t, err)

	s := New(Options{
		CSVPath:         csvPath,
		Chapters:        tracker,
		KeywordCategory: "Money Terms",
		Keywords:        []string{"money", "income"},
		DownloadRate:    0.001,
		DownloadBurst:   2,
	})
	_ = s.Reload()
	return s, s.Router(), csvPath
}

func get(router *gin.Engine, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	router.ServeHTTP(w, req)
	return w
}

func TestMissingTableAnswersAnalysisNotRun(t *testing.T) {
	_, router, _ := setupTestServer(t, nil)

	for _, target := range []string{"/api/filters", "/api/rows", "/api/metrics", "/api/summary", "/download"} {
		w := get(router, target)
		require.Equal(t, http.StatusServiceUnavailable, w.Code, target)

		var apiErr APIError
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &apiErr))
		assert.Equal(t, ErrorCodeAnalysisNotRun, apiErr.Code)
		assert.Equal(t, "run the analysis first", apiErr.Message)
	}

	w := get(router, "/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"table_loaded":false`)
}

func TestFiltersHandler(t *testing.T) {
	_, router, _ := setupTestServer(t, sampleTable())

	w := get(router, "/api/filters")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Categories []string        `json:"categories"`
		Chapters   []chapterOption `json:"chapters"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, []string{"Assets vs Liabilities", "Money Terms"}, body.Categories)
	assert.Equal(t, []chapterOption{
		{1, "Lesson 1: The Rich Don't Work for Money"},
		{3, "Lesson 3: Mind Your Own Business"},
	}, body.Chapters)
}

func TestRowsHandlerFilters(t *testing.T) {
	_, router, _ := setupTestServer(t, sampleTable())

	tests := []struct {
		name   string
		target string
		count  int
	}{
		{"all", "/api/rows", 3},
		{"one category", "/api/rows?category=Money+Terms", 2},
		{"two categories", "/api/rows?category=Money+Terms&category=Assets+vs+Liabilities", 3},
		{"chapter", "/api/rows?chapter=3", 1},
		{"category and chapter", "/api/rows?category=Money+Terms&chapter=1", 1},
		{"search", "/api/rows?q=RICH", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := get(router, tt.target)
			require.Equal(t, http.StatusOK, w.Code)
			var body struct {
				Count int         `json:"count"`
				Rows  []table.Row `json:"rows"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.count, body.Count)
			assert.Len(t, body.Rows, tt.count)
		})
	}
}

func TestRowsHandlerRejectsBadChapter(t *testing.T) {
	_, router, _ := setupTestServer(t, sampleTable())
	w := get(router, "/api/rows?chapter=two")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), string(ErrorCodeInvalidQuery))
}

func TestMetricsHandler(t *testing.T) {
	_, router, _ := setupTestServer(t, sampleTable())

	w := get(router, "/api/metrics?category=Money+Terms")
	require.Equal(t, http.StatusOK, w.Code)
	var m summary.Metrics
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &m))
	assert.Equal(t, summary.Metrics{Rows: 2, TotalScore: 4, ChaptersCovered: 2}, m)
}

func TestSummaryHandler(t *testing.T) {
	_, router, _ := setupTestServer(t, sampleTable())

	w := get(router, "/api/summary")
	require.Equal(t, http.StatusOK, w.Code)
	var s summary.Summary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &s))
	assert.Len(t, s.ByChapter, 11)
	assert.Equal(t, "Assets vs Liabilities", s.ByCategory[0].Category)
	assert.Equal(t, []summary.KeywordCount{{Keyword: "money", Count: 1}, {Keyword: "income", Count: 1}}, s.Keywords)
}

func TestDownloadHandlerIsRateLimited(t *testing.T) {
	_, router, _ := setupTestServer(t, sampleTable())

	w := get(router, "/download?chapter=1")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), DownloadName)
	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	assert.Equal(t, strings.Join(table.Columns, ","), lines[0])
	assert.Len(t, lines, 3)

	assert.Equal(t, http.StatusOK, get(router, "/download").Code)
	assert.Equal(t, http.StatusTooManyRequests, get(router, "/download").Code)
}

func TestReloadFlushesCache(t *testing.T) {
	s, router, csvPath := setupTestServer(t, sampleTable())

	w := get(router, "/api/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"rows":3`)

	require.NoError(t, table.SaveCSV(csvPath, table.Build(sampleTable().Rows()[:1])))
	require.NoError(t, s.Reload())

	w = get(router, "/api/metrics")
	assert.Contains(t, w.Body.String(), `"rows":1`)
}

func TestWatchReloadsOnChange(t *testing.T) {
	s, router, csvPath := setupTestServer(t, nil)
	require.Equal(t, http.StatusServiceUnavailable, get(router, "/api/rows").Code)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- s.Watch(ctx) }()

	// give the watcher time to register the directory
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, table.SaveCSV(csvPath, sampleTable()))

	assert.Eventually(t, func() bool {
		return get(router, "/api/rows").Code == http.StatusOK
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}

func TestWatchWaitsForOutputDirectory(t *testing.T) {
	gin.SetMode(gin.TestMode)
	csvPath := filepath.Join(t.TempDir(), "output", "csv", "analysis.csv")
	s := New(Options{CSVPath: csvPath})
	_ = s.Reload()
	router := s.Router()
	require.Equal(t, http.StatusServiceUnavailable, get(router, "/api/rows").Code)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- s.Watch(ctx) }()

	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.MkdirAll(filepath.Dir(csvPath), 0o755))
	// let the watch move down into the new directory before the table lands
	time.Sleep(200 * time.Millisecond)
	require.NoError(t, table.SaveCSV(csvPath, sampleTable()))

	assert.Eventually(t, func() bool {
		return get(router, "/api/rows").Code == http.StatusOK
	}, 5*time.Second, 50*time.Millisecond)

	select {
	case err := <-done:
		t.Fatalf("watch returned early: %v", err)
	default:
	}
	cancel()
	require.NoError(t, <-done)
}

func TestOnPathTo(t *testing.T) {
	target := filepath.Join("out", "csv")
	assert.True(t, onPathTo("out", target))
	assert.True(t, onPathTo(target, target))
	assert.False(t, onPathTo(filepath.Join("out", "reports"), target))
	assert.False(t, onPathTo(filepath.Join("out", "csv", "deeper"), target))
}

func TestLateCacheWriteFromOldTableIsIgnored(t *testing.T) {
	s, router, csvPath := setupTestServer(t, sampleTable())

	_, oldGen, err := s.current()
	require.NoError(t, err)

	require.NoError(t, table.SaveCSV(csvPath, table.Build(sampleTable().Rows()[:1])))
	require.NoError(t, s.Reload())

	// a request that read the old table finishes after the reload flushed
	s.cache.SetDefault(cacheKey(oldGen, "metrics", table.Filter{}), summary.Metrics{Rows: 999})

	w := get(router, "/api/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	var m summary.Metrics
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &m))
	assert.Equal(t, 1, m.Rows)
}
