package commands

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/avolpe/searchd/internal/cli/output"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		output.KeyValueTable(cmd.OutOrStdout(), [][2]string{
			{"Version", Version},
			{"Commit", Commit},
			{"Built", Date},
			{"Platform", fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH)},
		})
	},
}
