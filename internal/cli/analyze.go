package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"book_insights/internal/analysis"
	"book_insights/internal/summary"
	"book_insights/internal/workspace"
)

func (a *app) analyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze [path]",
		Short: "Analyze a book and write the result table",
		Long: `Analyze reads the book at path (or input.path), classifies every sentence
and writes:

  <output>/csv/<csv_name>         the result table as CSV
  <output>/csv/<db_name>          the result table in sqlite, plus the run log
  <output>/reports/summary.json   chart series
  <output>/reports/run_report.json

Nothing is written when the run fails.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				a.v.Set("input.path", args[0])
			}
			cfg, err := a.load()
			if err != nil {
				return err
			}

			opts, err := analysis.OptionsFromConfig(cfg)
			if err != nil {
				return err
			}
			opts.Logger = slog.Default()
			if isTerminal(os.Stderr) {
				opts.OnProgress = progressPrinter(os.Stderr)
			}

			res, err := analysis.Run(cmd.Context(), opts)
			if err != nil {
				return err
			}

			layout, err := workspace.EnsureAt(cfg.Output.Dir, cfg.Output.CSVName, cfg.Output.DBName)
			if err != nil {
				return err
			}
			report, err := workspace.Publish(layout, cfg.Output.DBTable, res, summary.Options{
				KeywordCategory: cfg.Summary.KeywordCategory,
				Keywords:        cfg.Summary.Keywords,
			}, cfg)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Analyzed %s: %s lines, %s sentences, %s rows (total score %s)\n",
				report.BookTitle,
				humanize.Comma(int64(report.Lines)),
				humanize.Comma(int64(report.Sentences)),
				humanize.Comma(int64(report.Rows)),
				humanize.Comma(int64(report.TotalScore)),
			)
			if info, err := os.Stat(layout.CSVPath); err == nil {
				fmt.Fprintf(out, "CSV:     %s (%s)\n", layout.CSVPath, humanize.Bytes(uint64(info.Size())))
			}
			fmt.Fprintf(out, "SQLite:  %s (table %s)\n", layout.DBPath, cfg.Output.DBTable)
			fmt.Fprintf(out, "Summary: %s\n", layout.SummaryPath)
			fmt.Fprintf(out, "Run:     %s\n", report.RunID)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringP("output", "o", "", "output directory (default output)")
	f.IntP("workers", "w", 0, "classification workers, 0 for one per CPU")
	f.Int("min-words", 1, "drop sentences with fewer words")
	f.Bool("noise-filter", true, "drop lines containing front matter phrases")
	f.Bool("dedup", true, "collapse repeated sentences per category and chapter")
	f.String("rules", "", "rule catalog file replacing the embedded one")
	a.bindFlags(cmd, map[string]string{
		"output.dir":           "output",
		"workers":              "workers",
		"segment.min_words":    "min-words",
		"segment.noise_filter": "noise-filter",
		"dedup.enabled":        "dedup",
		"rules.file":           "rules",
	})
	return cmd
}
