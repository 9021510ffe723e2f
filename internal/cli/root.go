// Package cli wires the bookinsight commands: analyze, serve, rules, config
// and version.
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"book_insights/internal/config"
)

// Version is set at build time with -ldflags "-X book_insights/internal/cli.Version=...".
var Version = "dev"

const localConfigName = "bookinsight.yaml"

type app struct {
	v       *viper.Viper
	cfgFile string
}

// NewRootCmd builds the command tree around a fresh viper instance.
func NewRootCmd() *cobra.Command {
	a := &app{v: viper.New()}
	config.SetDefaults(a.v)
	config.ConfigureEnv(a.v)

	root := &cobra.Command{
		Use:   "bookinsight",
		Short: "Rule-based thematic analysis of a book",
		Long: `bookinsight reads a book line by line, tracks its chapters, splits it into
sentences and matches every sentence against a catalog of themed patterns.
The scored matches are written as a CSV table and a sqlite table, and can be
browsed with the read-only dashboard.

Configuration (highest to lowest priority):
  1. CLI flags
  2. Environment variables (BOOKINSIGHT_*)
  3. Config file (--config, ./bookinsight.yaml or ~/.bookinsight/config.yaml)
  4. Defaults`,
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default: ./bookinsight.yaml or $HOME/.bookinsight/config.yaml)")
	flags.String("log-level", "info", "log level: debug, info, warn, error")
	flags.String("log-format", "text", "log format: text or json")
	_ = a.v.BindPFlag("log.level", flags.Lookup("log-level"))
	_ = a.v.BindPFlag("log.format", flags.Lookup("log-format"))

	root.AddCommand(
		a.analyzeCmd(),
		a.serveCmd(),
		a.rulesCmd(),
		a.configCmd(),
		versionCmd(),
	)
	return root
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

// load reads the config file, if any, and returns the validated settings.
// The logger is configured from the result.
func (a *app) load() (config.Config, error) {
	if err := a.readConfigFile(); err != nil {
		return config.Config{}, err
	}
	cfg, err := config.Load(a.v)
	if err != nil {
		return config.Config{}, err
	}
	if err := setupLogger(os.Stderr, cfg.Log.Level, cfg.Log.Format); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func (a *app) readConfigFile() error {
	path := a.cfgFile
	if path == "" {
		path = findConfigFile()
	}
	if path == "" {
		return nil
	}
	a.v.SetConfigFile(path)
	if err := a.v.ReadInConfig(); err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	return nil
}

// bindFlags binds cmd's flags to viper keys when cmd runs, so commands that
// share a key each bind their own flag.
func (a *app) bindFlags(cmd *cobra.Command, keys map[string]string) {
	cmd.PreRunE = func(cmd *cobra.Command, args []string) error {
		for key, name := range keys {
			if err := a.v.BindPFlag(key, cmd.Flags().Lookup(name)); err != nil {
				return fmt.Errorf("bind flag %s: %w", name, err)
			}
		}
		return nil
	}
}

func findConfigFile() string {
	candidates := []string{localConfigName}
	if p, err := defaultConfigPath(); err == nil {
		candidates = append(candidates, p)
	}
	for _, p := range candidates {
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p
		}
	}
	return ""
}

func defaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("error finding home directory: %w", err)
	}
	return filepath.Join(home, ".bookinsight", "config.yaml"), nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "bookinsight %s\n", Version)
		},
	}
}
