package bates

import (
	"os"
	"path/filepath"
)

// ApplyOptions configures Apply.
type ApplyOptions struct {
	Root        string // document root; stamped copies are written under <root>/bates/stamped
	Force       bool
	DryRun      bool
	Audit       AuditSink
	Stamper     Stamper
	ResolvePath func(sha256, originalPath string) string // maps a manifest path to the file to stamp; defaults to originalPath
}

// ApplyResult summarizes one Apply call.
type ApplyResult struct {
	Plan        Plan
	Stamped     []string // output paths, empty in dry-run mode
	DryRun      bool
	Overlaps    []string
	PageResults map[string]StampResult // document sha256 -> per-page stamp results
}

// Apply runs preflight against registry, then — unless DryRun is set —
// stamps every PDF entry in plan and commits plan's range to registry.
// Non-PDF documents are recorded in the plan and registry (so their Bates
// numbers are reserved) but are not stamped, since Bates footers are a
// PDF/print-production concept.
func Apply(plan Plan, registry *Registry, opts ApplyOptions) (ApplyResult, error) {
	result, err := Preflight(plan, registry)
	if err != nil {
		return ApplyResult{}, err
	}
	if err := RequireClean(result, plan, opts.Force, opts.Audit); err != nil {
		return ApplyResult{}, err
	}

	if opts.DryRun {
		return ApplyResult{Plan: plan, DryRun: true, Overlaps: result.Overlaps}, nil
	}

	stampDir := filepath.Join(opts.Root, "bates", "stamped")
	if err := os.MkdirAll(stampDir, 0o755); err != nil {
		return ApplyResult{}, err
	}
	var stamped []string
	pageResults := make(map[string]StampResult)
	for _, e := range plan.Entries {
		inPath := e.Path
		if opts.ResolvePath != nil {
			inPath = opts.ResolvePath(e.SHA256, e.Path)
		}
		if filepath.Ext(inPath) != ".pdf" {
			continue
		}
		outPath := filepath.Join(stampDir, e.SHA256+".pdf")
		startNum, err := ParseBatesNumber(plan.Prefix, e.Start)
		if err != nil {
			return ApplyResult{}, err
		}
		stampResult, err := opts.Stamper.StampFile(inPath, outPath, startNum, plan.Prefix, plan.Width)
		if err != nil {
			return ApplyResult{}, err
		}
		stamped = append(stamped, outPath)
		pageResults[e.SHA256] = stampResult
	}

	start, end, err := planRange(plan)
	if err != nil {
		return ApplyResult{}, err
	}
	if err := registry.Commit(RegisteredRange{PlanID: plan.PlanID, Prefix: plan.Prefix, StartNum: start, EndNum: end}); err != nil {
		return ApplyResult{}, err
	}

	if opts.Audit != nil {
		ids := make([]string, len(plan.Entries))
		for i, e := range plan.Entries {
			ids[i] = e.SHA256
		}
		_ = opts.Audit.Log("bates_apply", ids, stamped, map[string]any{
			"plan_id": plan.PlanID,
			"prefix":  plan.Prefix,
			"start":   start,
			"end":     end,
		})
	}

	return ApplyResult{Plan: plan, Stamped: stamped, PageResults: pageResults}, nil
}
