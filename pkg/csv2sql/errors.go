package csv2sql

import "errors"

// Sentinel errors for common failure scenarios.
// These enable callers to distinguish error types using errors.Is().
//
// Example usage:
//
//	err := importer.ImportTable(ctx, job)
//	if errors.Is(err, csv2sql.ErrTransferExhausted) {
//	    // Every chunk size failed; the member was not loaded.
//	}
var (
	// ErrInvalidConfig indicates the provided configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrResource indicates the named pipe or its temporary directory
	// could not be created or removed.
	ErrResource = errors.New("channel resource failure")

	// ErrSchema indicates the table-creation loader invocation failed,
	// before any data transfer was attempted.
	ErrSchema = errors.New("schema creation failed")

	// ErrTransferExhausted indicates every chunk size from the starting
	// exponent down to the minimum failed with a transport failure.
	ErrTransferExhausted = errors.New("transfer exhausted all chunk sizes")

	// ErrLoader indicates the external loader exited non-zero or could not
	// be started.
	ErrLoader = errors.New("loader invocation failed")

	// ErrLoaderTermination indicates the explicit quit sequence or the
	// process wait failed. Logged during cleanup; never masks a transfer
	// result.
	ErrLoaderTermination = errors.New("loader termination failed")

	// ErrApprovalDenied indicates the user denied overwrite approval.
	ErrApprovalDenied = errors.New("approval denied")
)

// ExitCodeForError returns the appropriate exit code for an error.
// Returns ExitSuccess (0) for nil errors, semantic codes for known errors,
// and ExitGeneralError (1) for unclassified errors.
func ExitCodeForError(err error) int {
	if err == nil {
		return ExitSuccess
	}

	switch {
	case errors.Is(err, ErrInvalidConfig):
		return ExitConfigError
	case errors.Is(err, ErrResource):
		return ExitResourceError
	case errors.Is(err, ErrSchema):
		return ExitSchemaError
	case errors.Is(err, ErrTransferExhausted):
		return ExitTransferExhausted
	case errors.Is(err, ErrLoader), errors.Is(err, ErrLoaderTermination):
		return ExitLoaderError
	case errors.Is(err, ErrApprovalDenied):
		return ExitApprovalDenied
	}

	return ExitGeneralError
}
