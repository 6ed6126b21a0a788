package ui

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/Kevin-Prichard/csv2sql/pkg/csv2sql"
)

// ForcedApprover implements the Approver interface for forced
// (non-interactive) approval. It displays a countdown and automatically
// approves afterwards, used when the --force flag is provided.
type ForcedApprover struct {
	verbose bool
}

// NewForcedApprover creates a new ForcedApprover.
func NewForcedApprover(verbose bool) csv2sql.Approver {
	return &ForcedApprover{verbose: verbose}
}

// RequestApproval displays a countdown and automatically approves after it.
func (a *ForcedApprover) RequestApproval(ctx context.Context, databasePath string) (bool, error) {
	fmt.Fprintln(os.Stderr)
	fmt.Fprintf(os.Stderr, "⚠️  FORCED OVERWRITE: database file '%s' will be deleted and recreated.\n", databasePath)

	countdownSeconds := int(csv2sql.DefaultForceApprovalCountdown.Seconds())
	for i := countdownSeconds; i > 0; i-- {
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		default:
			fmt.Fprintf(os.Stderr, "\rDeleting in: %d seconds... (Press Ctrl+C to cancel)", i)
			time.Sleep(1 * time.Second)
		}
	}

	fmt.Fprintf(os.Stderr, "\r✓ Proceeding with database overwrite...                              \n")
	return true, nil
}

// Verify ForcedApprover implements the Approver interface at compile time
var _ csv2sql.Approver = (*ForcedApprover)(nil)
