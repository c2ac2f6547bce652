// Package cmd contains the CLI commands for corectl.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Used for flags
	serverAddr string
	verbose    bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "corectl",
	Short: "corectl - CoreWatch operator client",
	Long: `corectl talks to a running CoreWatch server over its REST API.

Examples:
  # Log in and store the access token
  corectl login

  # Show the latest reading per sensor
  corectl readings

  # List active alerts and acknowledge one
  corectl alert list
  corectl alert ack 550e8400-e29b-41d4-a716-446655440000

  # Run an incident drill
  corectl scenario list
  corectl scenario start coolant-leak
  corectl scenario stop`,
	Run: func(cmd *cobra.Command, args []string) {
		// Show help by default
		cmd.Help()
	},
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&serverAddr, "server", "s", "", "server base URL (default: $CORECTL_SERVER or http://localhost:8080)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// PrintVerbose prints a message only if verbose mode is enabled.
func PrintVerbose(format string, args ...any) {
	if verbose {
		fmt.Printf(format+"\n", args...)
	}
}

// PrintError prints an error message and exits if fatal is true.
func PrintError(msg string, fatal bool) {
	fmt.Fprintln(os.Stderr, "Error:", msg)
	if fatal {
		os.Exit(1)
	}
}
