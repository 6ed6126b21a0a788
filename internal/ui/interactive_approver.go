package ui

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Kevin-Prichard/csv2sql/pkg/csv2sql"
)

// InteractiveApprover implements the Approver interface for console-based
// interactive confirmation. It prompts the user to type the database file
// name to confirm overwriting it.
type InteractiveApprover struct {
	verbose bool
}

// NewInteractiveApprover creates a new InteractiveApprover.
func NewInteractiveApprover(verbose bool) csv2sql.Approver {
	return &InteractiveApprover{verbose: verbose}
}

// RequestApproval prompts the user to type the database file name to confirm.
func (a *InteractiveApprover) RequestApproval(ctx context.Context, databasePath string) (bool, error) {
	name := filepath.Base(databasePath)
	fmt.Fprintf(os.Stderr, "\n⚠️  WARNING: You are about to DELETE and RECREATE the database file '%s'\n", databasePath)
	fmt.Fprintln(os.Stderr, "This will permanently delete all tables in this database!")
	fmt.Fprintf(os.Stderr, "\nTo confirm, type the file name '%s' and press Enter: ", name)

	// Read user input with context cancellation support
	inputChan := make(chan string, 1)
	errChan := make(chan error, 1)

	go func() {
		reader := bufio.NewReader(os.Stdin)
		input, err := reader.ReadString('\n')
		if err != nil {
			errChan <- err
			return
		}
		inputChan <- strings.TrimSpace(input)
	}()

	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case err := <-errChan:
		return false, fmt.Errorf("failed to read input: %w", err)
	case input := <-inputChan:
		if input == name {
			fmt.Fprintln(os.Stderr, "✓ Confirmed. Proceeding with database overwrite...")
			return true, nil
		}
		fmt.Fprintf(os.Stderr, "✗ Input '%s' does not match file name '%s'. Operation cancelled.\n", input, name)
		return false, nil
	}
}

// Verify InteractiveApprover implements the Approver interface at compile time
var _ csv2sql.Approver = (*InteractiveApprover)(nil)
