package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// Version is set at build time with -ldflags.
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:   "portal",
	Short: "Portal serves the AlgeNord portfolio and its admin pages",
	Long: `A server-side host for the AlgeNord portfolio: public project pages,
login and the project and user administration, backed by the AlgeNord REST API.`,
	SilenceUsage: true,
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
