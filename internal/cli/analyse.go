package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/terraincognita07/symptomcy/internal/services"
)

func newAnalyseCommand(options *rootOptions) *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:     "analyse",
		Aliases: []string{"analyze"},
		Short:   "Print the analysis report as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := options.config()
			if err != nil {
				return err
			}
			runtime, err := openRuntime(config)
			if err != nil {
				return err
			}
			defer runtime.Close()

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			return runAnalyse(ctx, runtime.analysis, days, cmd.OutOrStdout())
		},
	}
	cmd.Flags().IntVar(&days, "days", services.DefaultAnalysisDays, "analysis window in days (7, 30 and 90 are presets)")
	return cmd
}

func runAnalyse(ctx context.Context, analysis *services.AnalysisService, days int, out io.Writer) error {
	report, err := analysis.BuildReport(ctx, days)
	if err != nil {
		return fmt.Errorf("build report: %w", err)
	}
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}
