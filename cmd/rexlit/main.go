// Package main implements rexlit, the thin CLI wrapper around the RexLit
// e-discovery core engine. It parses flags, resolves configuration, and
// calls into the internal packages; it carries no business logic of its
// own — every decision here is a call to internal/gate, internal/ingest,
// internal/index, internal/bates, internal/redaction, or internal/rules.
//
// # File Index
//
//   - main.go             - entry point, rootCmd, global flags, settings resolution
//   - cmd_ingest.go        - `rexlit ingest <root>`
//   - cmd_index.go         - `rexlit index build|search`
//   - cmd_audit.go         - `rexlit audit show|verify`
//   - cmd_bates.go         - `rexlit bates plan|apply`
//   - cmd_redaction.go     - `rexlit redaction plan|apply`
//   - cmd_rules.go         - `rexlit rules calc`
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rexlit/rexlit/internal/audit"
	"github.com/rexlit/rexlit/internal/gate"
	"github.com/rexlit/rexlit/internal/rexerr"
	"github.com/rexlit/rexlit/internal/rexlog"
)

// engineVersion is stamped into every audit entry's versions map and
// every manifest/plan record's producer field.
const engineVersion = "0.1.0"

var (
	flagRoot        string
	flagConfig      string
	flagWorkers     int
	flagBatchSize   int
	flagCommitEvery int
	flagOnline      bool
	flagDenseDim    int
	flagAuditPath   string
	flagLogLevel    string
	flagVerbose     bool

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "rexlit",
	Short: "RexLit - offline-first e-discovery toolkit",
	Long: `RexLit transforms a tree of legal documents into a searchable,
Bates-numbered, legally defensible production set: boundary-safe ingest,
a tamper-evident audit ledger, deterministic lexical (and optional dense)
indexing, two-phase Bates numbering, plan/apply redaction, and a
jurisdictional deadline calculator.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := flagLogLevel
		if flagVerbose {
			level = "debug"
		}
		var err error
		logger, err = rexlog.NewLevel(level)
		if err != nil {
			return err
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagRoot, "root", "", "RexLit data root (REXLIT_HOME)")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to a YAML config file")
	rootCmd.PersistentFlags().IntVar(&flagWorkers, "workers", 0, "parallel index build workers (0 = auto)")
	rootCmd.PersistentFlags().IntVar(&flagBatchSize, "batch-size", 0, "documents per index build batch")
	rootCmd.PersistentFlags().IntVar(&flagCommitEvery, "commit-every", 0, "index commit boundary, in documents")
	rootCmd.PersistentFlags().BoolVar(&flagOnline, "online", false, "permit network access for embedding calls")
	rootCmd.PersistentFlags().IntVar(&flagDenseDim, "dim", 0, "dense embedding dimension")
	rootCmd.PersistentFlags().StringVar(&flagAuditPath, "audit-log", "", "path to the audit ledger, relative to root unless absolute")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "shorthand for --log-level debug")

	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(auditCmd)
	rootCmd.AddCommand(batesCmd)
	rootCmd.AddCommand(redactionCmd)
	rootCmd.AddCommand(rulesCmd)
}

// resolveSettings builds gate.Settings from the global flags following the
// CLI -> env -> config file -> defaults precedence (internal/gate.Resolve
// applies file then env then CLI, so the highest-precedence layer is
// supplied last here).
func resolveSettings() (gate.Settings, error) {
	fileCfg, err := gate.LoadConfigFile(flagConfig)
	if err != nil {
		return gate.Settings{}, err
	}

	cli := gate.CLIOverrides{}
	if flagRoot != "" {
		cli.RootDir = &flagRoot
	}
	if flagWorkers != 0 {
		cli.Workers = &flagWorkers
	}
	if flagBatchSize != 0 {
		cli.BatchSize = &flagBatchSize
	}
	if flagCommitEvery != 0 {
		cli.CommitEvery = &flagCommitEvery
	}
	if rootCmd.PersistentFlags().Changed("online") {
		cli.Online = &flagOnline
	}
	if flagDenseDim != 0 {
		cli.DenseDim = &flagDenseDim
	}
	if rootCmd.PersistentFlags().Changed("log-level") {
		cli.LogLevel = &flagLogLevel
	}

	return gate.Resolve(fileCfg, cli)
}

// auditPath resolves the ledger path for settings: flagAuditPath or
// settings.AuditPath, joined onto settings.RootDir unless already
// absolute.
func auditPath(settings gate.Settings) string {
	p := settings.AuditPath
	if flagAuditPath != "" {
		p = flagAuditPath
	}
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(settings.RootDir, p)
}

// openAudit opens the audit ledger for settings' root, stamped with this
// binary's component versions.
func openAudit(settings gate.Settings) (*audit.Ledger, error) {
	return audit.Open(auditPath(settings), map[string]string{"rexlit": engineVersion})
}

// manifestPath is the conventional manifest.jsonl location under root.
func manifestPath(root string) string { return filepath.Join(root, "manifest.jsonl") }

// lexicalIndexDir and metadataCachePath are the conventional lexical index
// locations under root, per the §6 filesystem layout.
func lexicalIndexDir(root string) string   { return filepath.Join(root, "index", "lexical") }
func metadataCachePath(root string) string { return filepath.Join(root, "index", "metadata_cache.json") }
func denseIndexDir(root string) string     { return filepath.Join(root, "index", "dense") }

func exitWithError(err error) {
	if err == nil {
		return
	}
	fmt.Fprintln(os.Stderr, "rexlit:", err)
	code := 1
	if rerr, ok := err.(*rexerr.Error); ok {
		code = rerr.ExitCode()
	}
	os.Exit(code)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		exitWithError(err)
	}
}
