package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rexlit/rexlit/internal/audit"
	"github.com/rexlit/rexlit/internal/ingest"
)

var ingestIncludeHidden bool
var ingestMaxFileSize int64

var ingestCmd = &cobra.Command{
	Use:   "ingest <root>",
	Short: "Walk a document root, extract text, and write manifest.jsonl",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		docsRoot := args[0]
		if flagRoot == "" {
			flagRoot = docsRoot
		}
		settings, err := resolveSettings()
		if err != nil {
			return err
		}

		ledger, err := openAudit(settings)
		if err != nil {
			return err
		}
		defer ledger.Close()

		records, walkRes, err := ingest.Run(ingest.Options{
			Root:          docsRoot,
			Producer:      "rexlit/" + engineVersion,
			IncludeHidden: ingestIncludeHidden,
			MaxFileSize:   ingestMaxFileSize,
			Audit:         audit.Sink{Ledger: ledger},
			Logger:        logger,
		})
		if err != nil {
			return err
		}

		out := manifestPath(settings.RootDir)
		if err := ingest.WriteManifest(out, records); err != nil {
			return err
		}

		if _, err := ledger.Log("produce", nil, []string{out}, map[string]any{
			"doc_count":  len(records),
			"violations": len(walkRes.Violations),
		}); err != nil {
			logger.Error("audit log failed", zap.Error(err))
		}

		fmt.Fprintf(cmd.OutOrStdout(), "ingested %d document(s), %d boundary violation(s); manifest written to %s\n",
			len(records), len(walkRes.Violations), out)
		return nil
	},
}

func init() {
	ingestCmd.Flags().BoolVar(&ingestIncludeHidden, "include-hidden", false, "include dotfiles and hidden directories")
	ingestCmd.Flags().Int64Var(&ingestMaxFileSize, "max-file-size", 0, "skip files larger than this many bytes (0 = unlimited)")
}
