package cli

import (
	"github.com/spf13/cobra"

	"book_insights/internal/analysis"
)

func (a *app) rulesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rules",
		Short: "Print the effective rule catalog as YAML",
		Long: `Rules validates the rule catalog in effect (embedded, or rules.file with the
explanation and short quote toggles applied) and prints it. Use the output
as a starting point for a custom catalog file.`,
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
			raw, err := catalog.Marshal()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(raw)
			return err
		},
	}
}
