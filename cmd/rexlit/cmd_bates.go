package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/rexlit/rexlit/internal/audit"
	"github.com/rexlit/rexlit/internal/bates"
	"github.com/rexlit/rexlit/internal/ingest"
)

var batesCmd = &cobra.Command{
	Use:   "bates",
	Short: "Plan and apply Bates numbering over a document set",
}

var (
	batesPrefix   string
	batesWidth    int
	batesStart    int
	batesPlanOut  string
	batesPlanIn   string
	batesForce    bool
	batesDryRun   bool
)

var batesPlanCmd = &cobra.Command{
	Use:   "plan",
	Short: "Compute a deterministic Bates numbering plan from manifest.jsonl",
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

		planner := bates.Planner{Prefix: batesPrefix, Width: batesWidth, Start: batesStart}
		plan := planner.Plan(records)

		out, err := json.MarshalIndent(plan, "", "  ")
		if err != nil {
			return err
		}

		dest := batesPlanOut
		if dest == "" {
			dest = filepath.Join(settings.RootDir, "bates", batesPrefix+".plan.json")
		}
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(dest, out, 0o644); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "plan %s: %d entries written to %s\n", plan.PlanID, len(plan.Entries), dest)
		return nil
	},
}

var batesApplyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Preflight and apply a previously computed Bates plan",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := resolveSettings()
		if err != nil {
			return err
		}

		src := batesPlanIn
		if src == "" {
			src = filepath.Join(settings.RootDir, "bates", batesPrefix+".plan.json")
		}
		raw, err := os.ReadFile(src)
		if err != nil {
			return err
		}
		var plan bates.Plan
		if err := json.Unmarshal(raw, &plan); err != nil {
			return err
		}

		registry, err := bates.OpenRegistry(settings.RootDir, plan.Prefix)
		if err != nil {
			return err
		}
		defer registry.Close()

		ledger, err := openAudit(settings)
		if err != nil {
			return err
		}
		defer ledger.Close()

		result, err := bates.Apply(plan, registry, bates.ApplyOptions{
			Root:   settings.RootDir,
			Force:  batesForce,
			DryRun: batesDryRun,
			Audit:  audit.Sink{Ledger: ledger},
			Stamper: bates.Stamper{},
		})
		if err != nil {
			return err
		}

		if result.DryRun {
			fmt.Fprintf(cmd.OutOrStdout(), "dry run: plan %s would stamp %d entries\n", plan.PlanID, len(plan.Entries))
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "plan %s applied: %d file(s) stamped\n", plan.PlanID, len(result.Stamped))
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{batesPlanCmd, batesApplyCmd} {
		c.Flags().StringVar(&batesPrefix, "prefix", "", "Bates prefix, e.g. ABC")
	}
	batesPlanCmd.Flags().IntVar(&batesWidth, "width", 6, "zero-pad width")
	batesPlanCmd.Flags().IntVar(&batesStart, "start", 1, "first Bates number")
	batesPlanCmd.Flags().StringVar(&batesPlanOut, "out", "", "plan output path (default <root>/bates/<prefix>.plan.json)")

	batesApplyCmd.Flags().StringVar(&batesPlanIn, "plan", "", "plan input path (default <root>/bates/<prefix>.plan.json)")
	batesApplyCmd.Flags().BoolVar(&batesForce, "force", false, "apply despite a detected range overlap")
	batesApplyCmd.Flags().BoolVar(&batesDryRun, "dry-run", false, "preflight and report without stamping")

	batesCmd.AddCommand(batesPlanCmd)
	batesCmd.AddCommand(batesApplyCmd)
}
