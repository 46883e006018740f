package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rexlit/rexlit/internal/audit"
	"github.com/rexlit/rexlit/internal/ingest"
	"github.com/rexlit/rexlit/internal/redaction"
)

var redactionCmd = &cobra.Command{
	Use:   "redaction",
	Short: "Plan and apply PII redaction over a document set",
}

var (
	redactionPlanOut string
	redactionPlanIn  string
	redactionForce   bool
	redactionDryRun  bool
	redactionPreview bool
)

var redactionPlanCmd = &cobra.Command{
	Use:   "plan",
	Short: "Detect PII spans and write a hash-bound redaction plan",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := resolveSettings()
		if err != nil {
			return err
		}
		records, err := ingest.ReadManifest(manifestPath(settings.RootDir))
		if err != nil {
			return err
		}

		planner := redaction.Planner{Detector: redaction.RegexDetectorAdapter{}}
		plan, err := planner.Plan(records)
		if err != nil {
			return err
		}

		out, err := json.MarshalIndent(plan, "", "  ")
		if err != nil {
			return err
		}

		dest := redactionPlanOut
		if dest == "" {
			dest = filepath.Join(settings.RootDir, "redaction", "plan.json")
		}
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(dest, out, 0o644); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "plan %s: %d document(s) planned, written to %s\n", plan.PlanID, len(plan.Entries), dest)
		return nil
	},
}

var redactionApplyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Apply a redaction plan, aborting on content drift unless --force",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := resolveSettings()
		if err != nil {
			return err
		}

		src := redactionPlanIn
		if src == "" {
			src = filepath.Join(settings.RootDir, "redaction", "plan.json")
		}
		raw, err := os.ReadFile(src)
		if err != nil {
			return err
		}
		var plan redaction.Plan
		if err := json.Unmarshal(raw, &plan); err != nil {
			return err
		}

		records, err := ingest.ReadManifest(manifestPath(settings.RootDir))
		if err != nil {
			return err
		}
		current := ingest.RecordsBySHA256(records)

		ledger, err := openAudit(settings)
		if err != nil {
			return err
		}
		defer ledger.Close()

		result, err := redaction.Apply(plan, current, redaction.ApplyOptions{
			Root:   settings.RootDir,
			Force:  redactionForce,
			DryRun: redactionDryRun,
			Audit:  audit.Sink{Ledger: ledger},
		})
		if err != nil {
			return err
		}

		if len(result.Drifted) > 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "warning: %d document(s) drifted since plan was computed\n", len(result.Drifted))
		}
		if result.DryRun {
			fmt.Fprintf(cmd.OutOrStdout(), "dry run: plan %s would redact %d document(s)\n", plan.PlanID, len(plan.Entries))
			return nil
		}

		if redactionPreview {
			renderRedactionPreviews(settings.RootDir, plan)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "plan %s applied: %d document(s) redacted\n", plan.PlanID, len(result.Written))
		return nil
	},
}

// renderRedactionPreviews writes one black-box preview PDF per plan entry
// whose resolved path is a PDF, under <root>/redaction/preview/. Failures
// are logged and skipped rather than failing the apply, since the preview
// is a reviewer convenience, not part of the redaction record.
func renderRedactionPreviews(root string, plan redaction.Plan) {
	previewer := redaction.Previewer{}
	outDir := filepath.Join(root, "redaction", "preview")
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		logger.Warn("creating redaction preview directory failed", zap.Error(err))
		return
	}
	for _, e := range plan.Entries {
		if filepath.Ext(e.Path) != ".pdf" {
			continue
		}
		boxes := redaction.BoxesForEntry(e, redaction.PageLayout{})
		if len(boxes) == 0 {
			continue
		}
		outPath := filepath.Join(outDir, e.SHA256+".pdf")
		if err := previewer.RenderOverlay(e.Path, outPath, boxes); err != nil {
			logger.Warn("rendering redaction preview failed", zap.String("sha256", e.SHA256), zap.Error(err))
		}
	}
}

func init() {
	redactionPlanCmd.Flags().StringVar(&redactionPlanOut, "out", "", "plan output path (default <root>/redaction/plan.json)")

	redactionApplyCmd.Flags().StringVar(&redactionPlanIn, "plan", "", "plan input path (default <root>/redaction/plan.json)")
	redactionApplyCmd.Flags().BoolVar(&redactionForce, "force", false, "apply despite detected content drift")
	redactionApplyCmd.Flags().BoolVar(&redactionDryRun, "dry-run", false, "check drift and report without writing")
	redactionApplyCmd.Flags().BoolVar(&redactionPreview, "preview", false, "also render a black-box PDF preview for reviewer sign-off")

	redactionCmd.AddCommand(redactionPlanCmd)
	redactionCmd.AddCommand(redactionApplyCmd)
}
