package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/Kevin-Prichard/csv2sql/internal/archive"
	"github.com/Kevin-Prichard/csv2sql/internal/config"
	"github.com/Kevin-Prichard/csv2sql/internal/fifo"
	"github.com/Kevin-Prichard/csv2sql/internal/importer"
	"github.com/Kevin-Prichard/csv2sql/internal/loader"
	"github.com/Kevin-Prichard/csv2sql/internal/logging"
	"github.com/Kevin-Prichard/csv2sql/internal/schema"
	"github.com/Kevin-Prichard/csv2sql/internal/transfer"
	"github.com/Kevin-Prichard/csv2sql/internal/tui"
	"github.com/Kevin-Prichard/csv2sql/internal/ui"
	"github.com/Kevin-Prichard/csv2sql/pkg/csv2sql"
)

var importCmd = &cobra.Command{
	Use:   "import <archive.zip>",
	Short: "Import an archive's CSV members into a SQLite database",
	Long: `Import extracts each CSV member of the ZIP archive, infers its table
schema from a row sample, and bulk-loads it through the sqlite3 tool.

The import command, per member:
1. Scans a bounded sample of rows and renders a CREATE TABLE statement
2. Runs sqlite3 once to create the table
3. Starts a long-lived sqlite3 bound to a fresh named pipe
4. Streams the member into the pipe, shrinking the chunk size and
   restarting from the beginning on a broken pipe, until it fits
5. Sends sqlite3 an explicit .quit and removes the pipe

Defaults may come from csv2sql.yaml in the working directory or from
environment variables (CSV2SQL_DB, CSV2SQL_FILTER, CSV2SQL_LOADER).
Flags override both.

Examples:
  # Import every CSV member
  csv2sql import data.zip -d warehouse.db

  # Only members matching a pattern, sampling 1000 rows per schema
  csv2sql import data.zip -d warehouse.db -f 'orders.*' -n 1000

  # Recreate the database file without prompting
  csv2sql import data.zip -d warehouse.db --overwrite --force`,
	Args: cobra.MaximumNArgs(1),
	RunE: runImport,
}

type importFlagValues struct {
	database      string
	filter        string
	maxRows       int
	loaderBinary  string
	chunkExponent int
	overwrite     bool
	force         bool
	timeout       time.Duration
}

var importFlags importFlagValues

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().StringVarP(&importFlags.database, "db", "d", "",
		"Target SQLite database file (required)\n"+
			"Precedence: --db > $CSV2SQL_DB > csv2sql.yaml")
	importCmd.Flags().StringVarP(&importFlags.filter, "filter", "f", "",
		"Case-insensitive regex selecting archive member names\n"+
			"Example: -f 'orders.*'")
	importCmd.Flags().IntVarP(&importFlags.maxRows, "max-rows", "n", 0,
		"Rows sampled per member for schema inference (0 = whole member)")
	importCmd.Flags().StringVar(&importFlags.loaderBinary, "loader", "",
		"Bulk-load binary, a name on PATH or an absolute path (default sqlite3)")
	importCmd.Flags().IntVar(&importFlags.chunkExponent, "chunk-exponent", 0,
		"Starting power-of-two transfer chunk size (default 24 = 16 MiB)\n"+
			"Each broken-pipe failure halves the chunk and restarts the member")
	importCmd.Flags().BoolVar(&importFlags.overwrite, "overwrite", false,
		"Delete an existing database file first\n"+
			"Requires interactive confirmation unless --force is used")
	importCmd.Flags().BoolVar(&importFlags.force, "force", false,
		"Skip the interactive approval prompt for --overwrite\n"+
			"Use for CI/CD pipelines")
	importCmd.Flags().DurationVar(&importFlags.timeout, "timeout", 0,
		"Global timeout for the whole run (0 = none)\n"+
			"Examples: 30s, 5m, 1h30m")
}

// buildImportConfig layers flags over environment variables over
// csv2sql.yaml over built-in defaults.
// Extracted for testability and separation of concerns.
func buildImportConfig(cmd *cobra.Command, archivePath string, verbose bool) (csv2sql.ImportConfig, error) {
	_ = godotenv.Load()

	projectCfg, err := config.Load("")
	if err != nil && !errors.Is(err, config.ErrConfigNotFound) {
		return csv2sql.ImportConfig{}, fmt.Errorf("failed to load %s: %v: %w",
			config.ConfigFileName, err, csv2sql.ErrInvalidConfig)
	}

	cfg := csv2sql.ImportConfig{
		ArchivePath:   archivePath,
		DatabasePath:  importFlags.database,
		NameFilter:    importFlags.filter,
		MaxSampleRows: importFlags.maxRows,
		LoaderBinary:  importFlags.loaderBinary,
		ChunkExponent: importFlags.chunkExponent,
		Overwrite:     importFlags.overwrite,
		Force:         importFlags.force,
		Timeout:       importFlags.timeout,
		Verbose:       verbose,
	}

	if cfg.DatabasePath == "" {
		cfg.DatabasePath = os.Getenv("CSV2SQL_DB")
	}
	if cfg.NameFilter == "" {
		cfg.NameFilter = os.Getenv("CSV2SQL_FILTER")
	}
	if cfg.LoaderBinary == "" {
		cfg.LoaderBinary = os.Getenv("CSV2SQL_LOADER")
	}
	if cfg.ChunkExponent == 0 {
		if v := os.Getenv("CSV2SQL_CHUNK_EXPONENT"); v != "" {
			p, err := strconv.Atoi(v)
			if err != nil {
				return csv2sql.ImportConfig{}, fmt.Errorf("invalid CSV2SQL_CHUNK_EXPONENT %q: %w", v, csv2sql.ErrInvalidConfig)
			}
			cfg.ChunkExponent = p
		}
	}

	if projectCfg != nil {
		if cfg.DatabasePath == "" {
			cfg.DatabasePath = projectCfg.Database
		}
		if cfg.NameFilter == "" {
			cfg.NameFilter = projectCfg.Filter
		}
		if cfg.MaxSampleRows == 0 {
			cfg.MaxSampleRows = projectCfg.MaxRows
		}
		if cfg.LoaderBinary == "" {
			cfg.LoaderBinary = projectCfg.Loader
		}
		if cfg.ChunkExponent == 0 {
			cfg.ChunkExponent = projectCfg.ChunkExponent
		}
		if cfg.Timeout == 0 && projectCfg.Timeout != "" && !cmd.Flags().Changed("timeout") {
			parsed, parseErr := time.ParseDuration(projectCfg.Timeout)
			if parseErr != nil {
				return csv2sql.ImportConfig{}, fmt.Errorf("invalid timeout in %s: %v: %w",
					config.ConfigFileName, parseErr, csv2sql.ErrInvalidConfig)
			}
			cfg.Timeout = parsed
		}
	}

	if cfg.LoaderBinary == "" {
		cfg.LoaderBinary = csv2sql.DefaultLoaderBinary
	}
	if cfg.ChunkExponent == 0 {
		cfg.ChunkExponent = csv2sql.DefaultChunkExponent
	}

	if err := cfg.Validate(); err != nil {
		return csv2sql.ImportConfig{}, err
	}
	return cfg, nil
}

func runImport(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		// No archive given: usage, not an error.
		return cmd.Help()
	}
	verbose := getVerboseFlag(cmd)

	cfg, err := buildImportConfig(cmd, args[0], verbose)
	if err != nil {
		return err
	}

	logger := logging.NewConsoleLogger(verbose)

	// Setup context with optional timeout and signal handling for
	// graceful shutdown.
	ctx := context.Background()
	var cancel context.CancelFunc
	if cfg.Timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
	} else {
		ctx, cancel = context.WithCancel(ctx)
	}
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\n[INTERRUPT] Received interrupt signal, cancelling import...")
		cancel()
	}()

	if err := handleOverwrite(ctx, cfg, logger); err != nil {
		return err
	}

	controller, err := loader.NewController(cfg.LoaderBinary, logger)
	if err != nil {
		return err
	}
	channels := fifo.NewManager(logger)
	session := transfer.NewSession(
		transfer.NewPipeClassifier(),
		transfer.NewChunkBackoff(transfer.WithStartExponent(cfg.ChunkExponent)),
		logger,
	)

	walker, err := archive.Open(cfg.ArchivePath, cfg.NameFilter)
	if err != nil {
		return err
	}
	defer walker.Close()

	members := walker.Members()
	if len(members) == 0 {
		logger.Info("no CSV members in %s match the filter", cfg.ArchivePath)
		return nil
	}

	display := tui.NewDisplay()
	var imported int
	for _, member := range members {
		display.Begin(member.Name())

		scanner := schema.NewScanner(logger,
			schema.WithMaxRows(cfg.MaxSampleRows),
			schema.WithProgress(display.Update),
		)
		tableSchema, err := scanner.Scan(member, member.TableName())
		if err != nil {
			display.End(err)
			return err
		}

		memberSession := session.
			WithProgress(display.Update).
			WithOnRetry(func(attempt, exponent int, err error) {
				display.Retry(exponent)
			})
		service := importer.NewService(channels, controller, memberSession, logger)

		result, err := service.ImportTable(ctx, importer.Job{
			Source:   member,
			Schema:   tableSchema,
			Database: cfg.DatabasePath,
		})
		display.End(err)
		if err != nil {
			return err
		}

		imported++
		logger.Info("imported %q: %d bytes in %d attempt(s), chunk 2^%d, sha256 %s, %s",
			result.Table, result.Bytes, result.Attempts, result.ChunkExponent,
			result.Checksum[:12], result.Duration.Round(time.Millisecond))
	}

	logger.Info("imported %d table(s) into %s", imported, cfg.DatabasePath)
	return nil
}

// handleOverwrite deletes an existing database file after approval when
// --overwrite is set. Without --overwrite an existing file is appended to,
// which matches the loader's own CREATE TABLE IF NOT EXISTS semantics.
func handleOverwrite(ctx context.Context, cfg csv2sql.ImportConfig, logger csv2sql.Logger) error {
	if !cfg.Overwrite {
		return nil
	}
	if _, err := os.Stat(cfg.DatabasePath); os.IsNotExist(err) {
		return nil
	}

	var approver csv2sql.Approver
	if cfg.Force {
		approver = ui.NewForcedApprover(cfg.Verbose)
	} else {
		approver = ui.NewInteractiveApprover(cfg.Verbose)
	}

	approved, err := approver.RequestApproval(ctx, cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("overwrite approval: %w", err)
	}
	if !approved {
		return fmt.Errorf("overwrite of %s: %w", cfg.DatabasePath, csv2sql.ErrApprovalDenied)
	}

	if err := os.Remove(cfg.DatabasePath); err != nil {
		return fmt.Errorf("failed to remove %s: %v: %w", cfg.DatabasePath, err, csv2sql.ErrResource)
	}
	logger.Verbose("removed existing database %s", cfg.DatabasePath)
	return nil
}
