package main

import (
	"os"

	"github.com/spf13/cobra"
)

var version = "0.1.0"

var noColor bool

var rootCmd = &cobra.Command{
	Use:           "siteledger",
	Short:         "Local-first construction project record keeper",
	Long:          "Siteledger tracks construction projects, architects, supervisors, and contractors\nin a local store with an activity log and a dashboard summary.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	rootCmd.Version = version
	rootCmd.SetVersionTemplate("{{.Name}} v{{.Version}}\n")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(
		startCmd,
		stopCmd,
		statusCmd,
		dashboardCmd,
		activityCmd,
		roleCmd,
		dataCmd,
		syncCmd,
	)
	rootCmd.AddCommand(entityCommands()...)

	if err := rootCmd.Execute(); err != nil {
		printError("%v", err)
		os.Exit(1)
	}
}
