package cli

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"book_insights/internal/analysis"
	"book_insights/internal/chapters"
	"book_insights/internal/dashboard"
	"book_insights/internal/workspace"
)

func (a *app) serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the read-only dashboard over the last result table",
		Long: `Serve exposes the persisted result table over HTTP:

  GET /health
  GET /api/filters
  GET /api/rows?category=..&chapter=..&q=..
  GET /api/metrics?...
  GET /api/summary?...
  GET /download?...

Query parameters may repeat to select several values. The table is reloaded
when the CSV changes. The dashboard never runs the analysis itself.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.load()
			if err != nil {
				return err
			}
			catalog, err := analysis.LoadCatalog(cfg)
			if err != nil {
				return err
			}
			tracker, err := chapters.NewTracker(catalog.Chapters)
			if err != nil {
				return err
			}

			if cfg.Log.Level != "debug" {
				gin.SetMode(gin.ReleaseMode)
			}
			layout := workspace.LayoutAt(cfg.Output.Dir, cfg.Output.CSVName, cfg.Output.DBName)
			srv := dashboard.New(dashboard.Options{
				CSVPath:         layout.CSVPath,
				Chapters:        tracker,
				KeywordCategory: cfg.Summary.KeywordCategory,
				Keywords:        cfg.Summary.Keywords,
				CacheTTL:        cfg.Dashboard.CacheTTL,
				DownloadRate:    cfg.Dashboard.DownloadRate,
				DownloadBurst:   cfg.Dashboard.DownloadBurst,
				Logger:          slog.Default(),
			})
			_ = srv.Reload()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			if cfg.Dashboard.Watch {
				go func(ctx context.Context) {
					if err := srv.Watch(ctx); err != nil {
						slog.Warn("table reload disabled", "error", err)
					}
				}(ctx)
			}
			return srv.Run(ctx, cfg.Dashboard.Addr)
		},
	}

	f := cmd.Flags()
	f.String("addr", "", "listen address (default 127.0.0.1:8501)")
	f.StringP("output", "o", "", "output directory holding csv/ (default output)")
	f.Bool("watch", true, "reload the table when the CSV changes")
	a.bindFlags(cmd, map[string]string{
		"dashboard.addr":  "addr",
		"output.dir":      "output",
		"dashboard.watch": "watch",
	})
	return cmd
}
