package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jadenpxrk/treescope/internal/settings"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective settings",
	Long: `Print the settings in force after the settings file, TREESCOPE_* environment
variables and flags have been applied.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return settings.Encode(os.Stdout, appSettings.Effective())
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the settings file location",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(appSettings.Path())
		if !appSettings.Found() {
			fmt.Fprintln(os.Stderr, "(file does not exist yet; run 'treescope config init' to create it)")
		}
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the settings file with the current stored values",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := appSettings.Save(); err != nil {
			return err
		}
		fmt.Printf("Settings written to %s\n", appSettings.Path())
		return nil
	},
}

func init() {
	configCmd.AddCommand(configPathCmd, configInitCmd)
}
