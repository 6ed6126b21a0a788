package csv2sql

import "time"

// Exit codes for semantic error classification.
// These follow Unix/GNU conventions:
//   - 0: Success
//   - 1: General error
//   - 2: CLI usage error (misuse of command line)
//   - 3+: Application-specific errors
const (
	ExitSuccess           = 0  // Import/scan completed successfully
	ExitGeneralError      = 1  // Unknown or unclassified error
	ExitUsageError        = 2  // CLI usage error (missing args, invalid flags)
	ExitPanic             = 3  // Internal panic (unexpected crash)
	ExitConfigError       = 10 // Invalid configuration or parameters
	ExitResourceError     = 11 // FIFO or temp-directory creation/removal failed
	ExitSchemaError       = 12 // Table creation via the loader failed
	ExitTransferExhausted = 13 // Every chunk size down to the minimum failed
	ExitLoaderError       = 14 // Loader invocation or termination failed
	ExitApprovalDenied    = 15 // User denied overwrite approval
)

const (
	// DefaultChunkExponent is the starting power-of-two chunk size for a
	// transfer session: 2^24 = 16 MiB.
	DefaultChunkExponent = 24

	// MinChunkExponent is the exponent below which a transfer session gives
	// up. An attempt at 2^1 bytes per write is the last one made.
	MinChunkExponent = 1

	// DefaultLoaderBinary is the external bulk-load tool resolved on PATH.
	DefaultLoaderBinary = "sqlite3"

	// DefaultMaxSampleRows caps how many CSV records the schema scanner
	// reads per member. Zero means scan the whole member.
	DefaultMaxSampleRows = 0

	// DefaultReportFraction is how often the schema scanner fires its
	// progress callback, as a fraction of the member's total bytes.
	DefaultReportFraction = 0.01

	// DefaultForceApprovalCountdown is the countdown duration before a
	// forced overwrite approval proceeds.
	DefaultForceApprovalCountdown = 5 * time.Second

	// DefaultTerminateTimeout bounds how long Terminate waits for the
	// loader process to exit after the quit command before killing it.
	DefaultTerminateTimeout = 30 * time.Second

	// MaxDiagnosticPreviewLength is the maximum number of captured loader
	// stderr bytes included in error messages.
	MaxDiagnosticPreviewLength = 400
)
