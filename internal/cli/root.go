package cli

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"ovenprofile/internal/config"
)

// RootOptions holds the configuration shared by all commands. It is filled
// in before any subcommand runs.
type RootOptions struct {
	ConfigPath string
	Config     *config.Config
}

// NewRootCommand creates the root command of the ovenprofile CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{Config: config.NewConfig()}

	cmd := &cobra.Command{
		Use:   "ovenprofile",
		Short: "Oven temperature profile dashboard",
		Long: `Serve oven temperature readings from spreadsheets, csv files or sql
tables: pick measurements, narrow them to a date range, chart them against
their control limits and download the filtered rows.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return config.Load(viper.New(), cmd.Root().PersistentFlags(), opts.Config)
		},
	}

	// Global flags
	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "YAML configuration file")
	opts.Config.Flags(cmd.PersistentFlags())

	// Add subcommands
	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewConfigCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))

	return cmd
}
