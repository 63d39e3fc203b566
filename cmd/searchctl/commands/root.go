// Package commands implements the searchctl client CLI.
package commands

import (
	"github.com/spf13/cobra"
)

var (
	serverAddr string
	useTLS     bool
	timeout    int
)

var rootCmd = &cobra.Command{
	Use:   "searchctl",
	Short: "searchctl - client for the searchd lookup server",
	Long: `searchctl sends exact full-line membership queries to a running
searchd server. Each invocation opens one connection, sends one query, and
prints the server's verdict.

Use "searchctl [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. Called by main.main().
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverAddr, "server", "127.0.0.1:44445", "searchd server address (host:port)")
	rootCmd.PersistentFlags().BoolVar(&useTLS, "ssl", false, "Connect with TLS (certificate verification is skipped)")
	rootCmd.PersistentFlags().IntVar(&timeout, "timeout", 10, "Connection timeout in seconds")

	rootCmd.AddCommand(queryCmd)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}
