package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Kevin-Prichard/csv2sql/internal/archive"
	"github.com/Kevin-Prichard/csv2sql/internal/logging"
	"github.com/Kevin-Prichard/csv2sql/internal/schema"
)

var scanCmd = &cobra.Command{
	Use:   "scan <archive.zip>",
	Short: "Print the inferred CREATE TABLE statement for each CSV member",
	Long: `Scan samples each matching CSV member and prints the schema the import
command would create, without touching any database.

Examples:
  # Show every member's schema
  csv2sql scan data.zip

  # Limit sampling to the first 500 rows of members matching a pattern
  csv2sql scan data.zip -f 'orders.*' -n 500`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScan,
}

type scanFlagValues struct {
	filter  string
	maxRows int
}

var scanFlags scanFlagValues

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().StringVarP(&scanFlags.filter, "filter", "f", "",
		"Case-insensitive regex selecting archive member names")
	scanCmd.Flags().IntVarP(&scanFlags.maxRows, "max-rows", "n", 0,
		"Rows sampled per member (0 = whole member)")
}

func runScan(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return cmd.Help()
	}
	verbose := getVerboseFlag(cmd)
	logger := logging.NewConsoleLogger(verbose)

	walker, err := archive.Open(args[0], scanFlags.filter)
	if err != nil {
		return err
	}
	defer walker.Close()

	scanner := schema.NewScanner(logger, schema.WithMaxRows(scanFlags.maxRows))
	for _, member := range walker.Members() {
		tableSchema, err := scanner.Scan(member, member.TableName())
		if err != nil {
			return err
		}
		// Statements to stdout for pipeline consumption.
		fmt.Printf("-- %s (%d rows sampled)\n%s\n\n",
			member.Name(), tableSchema.RowsScanned, tableSchema.CreateTable())
	}
	return nil
}
