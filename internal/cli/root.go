package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const asciiLogo = `
                ___              _
  ___ _____   _|_  )___  __ _   | |
 / __/ __\ \ / // /(_-< / _' |  | |
| (__\__ \\ V // /_/__/ \__, |  | |
 \___|___/ \_/|____|___|   |_|  |_|
`

var rootCmd = &cobra.Command{
	Use:   "csv2sql",
	Short: "Stream CSV archives into SQLite through the sqlite3 bulk loader",
	Long: asciiLogo + `

csv2sql extracts the CSV members of a ZIP archive, infers a table schema
for each from a sample of its rows, and bulk-loads the data into a SQLite
database through the external sqlite3 tool, streamed over a named pipe
with adaptive chunk-size backoff when the loader cannot keep up.

The importer never opens the database file itself: all mutation goes
through sqlite3, serialized by its own locking.

Exit Codes:
  0  - Success
  1  - General error
  2  - CLI usage error (invalid arguments or flags)
  3  - Panic or unexpected system error
  10 - Invalid configuration or parameters
  11 - Pipe or temp-directory setup/teardown failed
  12 - Table creation via the loader failed
  13 - Transfer exhausted every chunk size
  14 - Loader invocation or termination failed
  15 - User denied overwrite approval`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		// No archive given: print usage and exit without error.
		return cmd.Help()
	},
}

// Execute runs the root command
func Execute() error {
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		printVersionInfo()
		return nil
	}
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().Bool("help", false, "Help for csv2sql")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output for all commands")
}

// getVerboseFlag safely retrieves the verbose flag value
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to get verbose flag: %v\n", err)
		return false
	}
	return verbose
}
