package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var Version = "0.1.0"

type rootOptions struct {
	dbPath   string
	timezone string
	envFiles []string
}

func (options *rootOptions) config() (Config, error) {
	return loadConfig(options.dbPath, options.timezone)
}

func newRootCommand() *cobra.Command {
	options := &rootOptions{}

	root := &cobra.Command{
		Use:           "symptomcy",
		Short:         "Symptom analysis over personal health data",
		Long:          "symptomcy correlates logged symptoms with activities, time of day and wearable health metrics.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return loadDotEnv(options.envFiles...)
		},
	}

	root.PersistentFlags().StringVar(&options.dbPath, "db", "", "SQLite database path (default $DB_PATH or data/symptomcy.db)")
	root.PersistentFlags().StringVar(&options.timezone, "tz", "", "IANA time zone for calendar days (default $TZ or UTC)")
	root.PersistentFlags().StringSliceVar(&options.envFiles, "env-file", []string{".env.local", ".env"}, "dotenv files to load when present")

	root.AddCommand(newServeCommand(options))
	root.AddCommand(newSeedCommand(options))
	root.AddCommand(newAnalyseCommand(options))
	root.AddCommand(newTokenCommand(options))
	return root
}

// Execute runs the root command
func Execute() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
