package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var mainVersion = "unknown"

var VersionCmd = &cobra.Command{
	Use:   "version",
	Short: "print client version",
	// no server connection needed
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error { return nil },
	Run: func(cmd *cobra.Command, _ []string) {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "version: %s\n", mainVersion)
	},
}
