package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/MakeNowJust/heredoc"
	"github.com/charmbracelet/listview/internal/config"
	"github.com/spf13/cobra"
)

var dirsCmd = &cobra.Command{
	Use:   "dirs",
	Short: "Print directories used by listview",
	Long: heredoc.Doc(`
		Print the directories where listview looks for its global
		configuration and keeps its databases.
	`),
	Example: heredoc.Doc(`
		# Print all directories
		listview dirs

		# Print only the config directory
		listview dirs --config

		# Print only the data directory
		listview dirs --data
	`),
	RunE: func(cmd *cobra.Command, args []string) error {
		configOnly, _ := cmd.Flags().GetBool("config")
		dataOnly, _ := cmd.Flags().GetBool("data")

		if configOnly && dataOnly {
			return fmt.Errorf("cannot specify both --config and --data flags")
		}

		configDir := filepath.Dir(config.GlobalConfig())
		dataDir := config.GlobalDataDir()

		if configOnly {
			fmt.Fprintln(cmd.OutOrStdout(), configDir)
			return nil
		}

		if dataOnly {
			fmt.Fprintln(cmd.OutOrStdout(), dataDir)
			return nil
		}

		// Print both by default
		fmt.Fprintf(cmd.OutOrStdout(), "Config directory: %s\n", configDir)
		fmt.Fprintf(cmd.OutOrStdout(), "Data directory:   %s\n", dataDir)

		return nil
	},
}

func init() {
	rootCmd.AddCommand(dirsCmd)
	dirsCmd.Flags().Bool("config", false, "Print only the config directory")
	dirsCmd.Flags().Bool("data", false, "Print only the data directory")
}
