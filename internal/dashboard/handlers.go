package dashboard

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"book_insights/internal/apperr"
	"book_insights/internal/summary"
	"book_insights/internal/table"
)

// DownloadName is the file name offered for the filtered CSV.
const DownloadName = "financial_text_analysis_filtered.csv"

// SetupRoutes registers the read-only routes of s on router.
func SetupRoutes(router *gin.Engine, s *Server) {
	router.GET("/health", s.HealthHandler)

	api := router.Group("/api")
	{
		api.GET("/filters", s.FiltersHandler)
		api.GET("/rows", s.RowsHandler)
		api.GET("/metrics", s.MetricsHandler)
		api.GET("/summary", s.SummaryHandler)
	}
	router.GET("/download", s.DownloadHandler)
}

type chapterOption struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
}

func (s *Server) HealthHandler(c *gin.Context) {
	t, _, err := s.current()
	c.JSON(http.StatusOK, gin.H{
		"status":       "ok",
		"table_loaded": err == nil,
		"rows":         t.Len(),
	})
}

func (s *Server) FiltersHandler(c *gin.Context) {
	t, _, ok := s.loadedTable(c)
	if !ok {
		return
	}
	ids := table.Chapters(t)
	chapters := make([]chapterOption, 0, len(ids))
	for _, id := range ids {
		chapters = append(chapters, chapterOption{ID: id, Title: s.chapterTitle(id)})
	}
	c.JSON(http.StatusOK, gin.H{
		"categories": table.Categories(t),
		"chapters":   chapters,
	})
}

func (s *Server) RowsHandler(c *gin.Context) {
	t, _, f, ok := s.filtered(c)
	if !ok {
		return
	}
	rows := f.Apply(t).Rows()
	c.JSON(http.StatusOK, gin.H{"count": len(rows), "rows": rows})
}

func (s *Server) MetricsHandler(c *gin.Context) {
	t, gen, f, ok := s.filtered(c)
	if !ok {
		return
	}
	key := cacheKey(gen, "metrics", f)
	if v, found := s.cache.Get(key); found {
		c.JSON(http.StatusOK, v)
		return
	}
	m := summary.MetricsOf(f.Apply(t))
	s.cache.SetDefault(key, m)
	c.JSON(http.StatusOK, m)
}

func (s *Server) SummaryHandler(c *gin.Context) {
	t, gen, f, ok := s.filtered(c)
	if !ok {
		return
	}
	key := cacheKey(gen, "summary", f)
	if v, found := s.cache.Get(key); found {
		c.JSON(http.StatusOK, v)
		return
	}
	sum := summary.Build(f.Apply(t), summary.Options{
		Chapters:        s.opts.Chapters,
		KeywordCategory: s.opts.KeywordCategory,
		Keywords:        s.opts.Keywords,
	})
	s.cache.SetDefault(key, sum)
	c.JSON(http.StatusOK, sum)
}

func (s *Server) DownloadHandler(c *gin.Context) {
	t, _, f, ok := s.filtered(c)
	if !ok {
		return
	}
	if !s.limiter.Allow() {
		SendError(c, http.StatusTooManyRequests, ErrorCodeRateLimited, "too many downloads, try again shortly")
		return
	}
	var b strings.Builder
	if err := table.WriteCSV(&b, f.Apply(t)); err != nil {
		SendError(c, http.StatusInternalServerError, ErrorCodeInternalError, err.Error())
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, DownloadName))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", []byte(b.String()))
}

func (s *Server) loadedTable(c *gin.Context) (*table.Table, uint64, bool) {
	t, gen, err := s.current()
	switch {
	case err == nil:
		return t, gen, true
	case errors.Is(err, apperr.ErrMissingTable):
		SendError(c, http.StatusServiceUnavailable, ErrorCodeAnalysisNotRun, "run the analysis first")
	default:
		SendError(c, http.StatusInternalServerError, ErrorCodeTableUnreadable, err.Error())
	}
	return nil, 0, false
}

func (s *Server) filtered(c *gin.Context) (*table.Table, uint64, table.Filter, bool) {
	t, gen, ok := s.loadedTable(c)
	if !ok {
		return nil, 0, table.Filter{}, false
	}
	f, err := parseFilter(c)
	if err != nil {
		SendError(c, http.StatusBadRequest, ErrorCodeInvalidQuery, err.Error())
		return nil, 0, table.Filter{}, false
	}
	return t, gen, f, true
}

// parseFilter reads repeatable category and chapter parameters; an absent
// parameter selects everything.
func parseFilter(c *gin.Context) (table.Filter, error) {
	f := table.Filter{
		Categories: c.QueryArray("category"),
		Query:      strings.TrimSpace(c.Query("q")),
	}
	for _, raw := range c.QueryArray("chapter") {
		id, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return table.Filter{}, fmt.Errorf("chapter %q is not a number", raw)
		}
		f.Chapters = append(f.Chapters, id)
	}
	return f, nil
}

func (s *Server) chapterTitle(id int) string {
	if s.opts.Chapters != nil {
		return s.opts.Chapters.Title(id)
	}
	return fmt.Sprintf("Chapter %d", id)
}
