// Package dashboard serves a read-only HTTP view over the persisted result
// table: filters, filtered rows, headline metrics, chart series and a CSV
// download of the filtered subset.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"book_insights/internal/summary"
	"book_insights/internal/table"
)

const defaultCacheTTL = 10 * time.Minute

type Options struct {
	CSVPath         string
	Chapters        summary.Chapters
	KeywordCategory string
	Keywords        []string
	CacheTTL        time.Duration
	// DownloadRate is downloads per second; zero disables the limit.
	DownloadRate  float64
	DownloadBurst int
	Logger        *slog.Logger
}

// Server holds the last loaded table. It never writes the table; a new
// analysis run replaces the CSV and Reload picks it up.
type Server struct {
	opts    Options
	logger  *slog.Logger
	cache   *gocache.Cache
	limiter *rate.Limiter

	mu      sync.RWMutex
	tbl     *table.Table
	loadErr error
	// gen counts reloads and prefixes cache keys, so an aggregate computed
	// from a replaced table can never be served after the swap.
	gen uint64
}

func New(opts Options) *Server {
	opts.CSVPath = filepath.Clean(opts.CSVPath)
	ttl := opts.CacheTTL
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	limit, burst := rate.Inf, opts.DownloadBurst
	if opts.DownloadRate > 0 {
		limit = rate.Limit(opts.DownloadRate)
		burst = max(burst, 1)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		opts:    opts,
		logger:  logger.With("component", "dashboard"),
		cache:   gocache.New(ttl, 2*ttl),
		limiter: rate.NewLimiter(limit, burst),
		loadErr: errors.New("table not loaded"),
	}
}

// Reload reads the CSV again and drops every cached aggregate. A missing
// file is remembered and reported by the data endpoints.
func (s *Server) Reload() error {
	t, err := table.LoadCSV(s.opts.CSVPath)

	s.mu.Lock()
	s.tbl, s.loadErr = t, err
	s.gen++
	s.mu.Unlock()
	s.cache.Flush()

	if err != nil {
		s.logger.Warn("result table unavailable", "path", s.opts.CSVPath, "error", err)
		return err
	}
	s.logger.Info("result table loaded", "path", s.opts.CSVPath, "rows", t.Len())
	return nil
}

// current returns the loaded table and the reload generation it belongs to.
func (s *Server) current() (*table.Table, uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tbl, s.gen, s.loadErr
}

func cacheKey(gen uint64, kind string, f table.Filter) string {
	return fmt.Sprintf("%d|%s|%s", gen, kind, f.Key())
}

// Router builds the gin engine with every route registered.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	if gin.Mode() != gin.TestMode {
		router.Use(gin.Logger())
	}
	SetupRoutes(router, s)
	return router
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("dashboard listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve dashboard: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown dashboard: %w", err)
	}
	return nil
}
