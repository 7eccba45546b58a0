// Package cmd implements the glewlwyd-console CLI commands.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile       string
	verbose       bool
	themeOverride string
	apiURL        string

	appVersion = "dev"
	appCommit  = "none"
)

var rootCmd = &cobra.Command{
	Use:   "glewlwyd-console",
	Short: "glewlwyd-console: self-registration and plugin administration for Glewlwyd",
	Long: "glewlwyd-console is a terminal console for a Glewlwyd identity server. It walks new " +
		"users through self-registration and lets administrators edit plugin configurations.",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "console.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&themeOverride, "theme", "", "TUI color theme: dark, light, or auto")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "identity server API root, overrides api_url")

	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(pluginCmd)
	rootCmd.AddCommand(mockServerCmd)
	rootCmd.AddCommand(versionCmd)
}

// SetVersionInfo sets the version and commit for display.
func SetVersionInfo(version, commit string) {
	appVersion = version
	appCommit = commit
	rootCmd.Version = version
	rootCmd.SetVersionTemplate(fmt.Sprintf("glewlwyd-console %s (commit: %s)\n", version, commit))
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
