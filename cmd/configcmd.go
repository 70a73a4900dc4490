package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/docstruct/docstruct/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage docstruct configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write the default configuration as a YAML file",
	Long: `Init writes the built-in defaults to a YAML config file (default
./docstruct.yaml) as a starting point for tuning. An existing file is
never overwritten.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "docstruct.yaml"
		if len(args) == 1 {
			path = args[0]
		}
		if err := config.WriteDefault(path); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote default config to %s\n", path)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}
