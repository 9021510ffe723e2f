// Package config defines the settings of an analysis run and the dashboard,
// and loads them through viper: defaults, then config file, then
// BOOKINSIGHT_* environment variables, then bound flags.
package config

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/spf13/viper"

	"book_insights/internal/apperr"
	"book_insights/internal/segment"
)

// EnvPrefix is the prefix of environment overrides, e.g. BOOKINSIGHT_WORKERS.
const EnvPrefix = "BOOKINSIGHT"

type Config struct {
	Input     InputConfig     `mapstructure:"input" yaml:"input"`
	Output    OutputConfig    `mapstructure:"output" yaml:"output"`
	Segment   SegmentConfig   `mapstructure:"segment" yaml:"segment"`
	Rules     RulesConfig     `mapstructure:"rules" yaml:"rules"`
	Dedup     DedupConfig     `mapstructure:"dedup" yaml:"dedup"`
	Workers   int             `mapstructure:"workers" yaml:"workers"`
	Summary   SummaryConfig   `mapstructure:"summary" yaml:"summary"`
	Dashboard DashboardConfig `mapstructure:"dashboard" yaml:"dashboard"`
	Log       LogConfig       `mapstructure:"log" yaml:"log"`
}

type InputConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

type OutputConfig struct {
	Dir     string `mapstructure:"dir" yaml:"dir"`
	CSVName string `mapstructure:"csv_name" yaml:"csv_name"`
	DBName  string `mapstructure:"db_name" yaml:"db_name"`
	DBTable string `mapstructure:"db_table" yaml:"db_table"`
}

type SegmentConfig struct {
	// MinWords of 1 keeps every non-empty sentence; 8 is the strict policy.
	MinWords     int      `mapstructure:"min_words" yaml:"min_words"`
	NoiseFilter  bool     `mapstructure:"noise_filter" yaml:"noise_filter"`
	NoisePhrases []string `mapstructure:"noise_phrases" yaml:"noise_phrases"`
}

type RulesConfig struct {
	// File replaces the embedded catalog sections it defines.
	File         string `mapstructure:"file" yaml:"file"`
	Explanations bool   `mapstructure:"explanations" yaml:"explanations"`
	ShortQuote   bool   `mapstructure:"short_quote" yaml:"short_quote"`
}

type DedupConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
}

type SummaryConfig struct {
	KeywordCategory string   `mapstructure:"keyword_category" yaml:"keyword_category"`
	Keywords        []string `mapstructure:"keywords" yaml:"keywords"`
}

type DashboardConfig struct {
	Addr          string        `mapstructure:"addr" yaml:"addr"`
	DownloadRate  float64       `mapstructure:"download_rate" yaml:"download_rate"`
	DownloadBurst int           `mapstructure:"download_burst" yaml:"download_burst"`
	CacheTTL      time.Duration `mapstructure:"cache_ttl" yaml:"cache_ttl"`
	Watch         bool          `mapstructure:"watch" yaml:"watch"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// Default returns the canonical configuration: non-empty sentences, noise
// filter on, dedup on, explanation rules and short quotes on.
func Default() Config {
	return Config{
		Input: InputConfig{Path: "Rich-Dad-Poor-Dad.txt"},
		Output: OutputConfig{
			Dir:     "output",
			CSVName: "rich_dad_analysis_output.csv",
			DBName:  "results_hp.db",
			DBTable: "analysis_results",
		},
		Segment: SegmentConfig{
			MinWords:     1,
			NoiseFilter:  true,
			NoisePhrases: segment.DefaultNoisePhrases(),
		},
		Rules:   RulesConfig{Explanations: true, ShortQuote: true},
		Dedup:   DedupConfig{Enabled: true},
		Workers: 0,
		Summary: SummaryConfig{
			KeywordCategory: "Money Terms",
			Keywords:        []string{"money", "income", "salary", "cashflow", "earn", "asset", "liability", "invest", "tax", "wealth"},
		},
		Dashboard: DashboardConfig{
			Addr:          "127.0.0.1:8501",
			DownloadRate:  2,
			DownloadBurst: 5,
			CacheTTL:      10 * time.Minute,
			Watch:         true,
		},
		Log: LogConfig{Level: "info", Format: "text"},
	}
}

// SetDefaults registers Default() with v so every key is known to viper,
// which is what lets AutomaticEnv resolve nested keys.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("input.path", d.Input.Path)
	v.SetDefault("output.dir", d.Output.Dir)
	v.SetDefault("output.csv_name", d.Output.CSVName)
	v.SetDefault("output.db_name", d.Output.DBName)
	v.SetDefault("output.db_table", d.Output.DBTable)
	v.SetDefault("segment.min_words", d.Segment.MinWords)
	v.SetDefault("segment.noise_filter", d.Segment.NoiseFilter)
	v.SetDefault("segment.noise_phrases", d.Segment.NoisePhrases)
	v.SetDefault("rules.file", d.Rules.File)
	v.SetDefault("rules.explanations", d.Rules.Explanations)
	v.SetDefault("rules.short_quote", d.Rules.ShortQuote)
	v.SetDefault("dedup.enabled", d.Dedup.Enabled)
	v.SetDefault("workers", d.Workers)
	v.SetDefault("summary.keyword_category", d.Summary.KeywordCategory)
	v.SetDefault("summary.keywords", d.Summary.Keywords)
	v.SetDefault("dashboard.addr", d.Dashboard.Addr)
	v.SetDefault("dashboard.download_rate", d.Dashboard.DownloadRate)
	v.SetDefault("dashboard.download_burst", d.Dashboard.DownloadBurst)
	v.SetDefault("dashboard.cache_ttl", d.Dashboard.CacheTTL)
	v.SetDefault("dashboard.watch", d.Dashboard.Watch)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
}

// ConfigureEnv makes BOOKINSIGHT_SEGMENT_MIN_WORDS override segment.min_words.
func ConfigureEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Load decodes the settings held by v and validates them.
func Load(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Validate reports the first setting that cannot be used.
func (c Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Input.Path) == "":
		return apperr.NewConfigError("setting", "input.path", fmt.Errorf("must not be empty"))
	case strings.TrimSpace(c.Output.Dir) == "":
		return apperr.NewConfigError("setting", "output.dir", fmt.Errorf("must not be empty"))
	case c.Output.CSVName == "" || filepath.Base(c.Output.CSVName) != c.Output.CSVName:
		return apperr.NewConfigError("setting", "output.csv_name", fmt.Errorf("must be a plain file name"))
	case c.Output.DBName == "" || filepath.Base(c.Output.DBName) != c.Output.DBName:
		return apperr.NewConfigError("setting", "output.db_name", fmt.Errorf("must be a plain file name"))
	case !identifier.MatchString(c.Output.DBTable):
		return apperr.NewConfigError("setting", "output.db_table", fmt.Errorf("%q is not a valid table name", c.Output.DBTable))
	case c.Segment.MinWords < 0:
		return apperr.NewConfigError("setting", "segment.min_words", fmt.Errorf("must not be negative"))
	case c.Workers < 0:
		return apperr.NewConfigError("setting", "workers", fmt.Errorf("must not be negative"))
	case c.Dashboard.DownloadRate < 0 || c.Dashboard.DownloadBurst < 0:
		return apperr.NewConfigError("setting", "dashboard.download_rate", fmt.Errorf("must not be negative"))
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return apperr.NewConfigError("setting", "log.format", fmt.Errorf("%q is not text or json", c.Log.Format))
	}
	return nil
}

// NoisePhrases returns the active denylist, empty when the filter is off.
func (c Config) NoisePhrases() []string {
	if !c.Segment.NoiseFilter {
		return nil
	}
	return c.Segment.NoisePhrases
}
