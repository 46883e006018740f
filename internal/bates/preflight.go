package bates

import (
	"fmt"
	"sort"

	"github.com/rexlit/rexlit/internal/rexerr"
)

// PreflightResult is the outcome of checking a Plan against a Registry's
// previously committed ranges.
type PreflightResult struct {
	OK       bool
	Overlaps []string // human-readable descriptions of each overlap found
}

// AuditSink mirrors the narrow Log(operation, inputs, outputs, args) shape
// shared across components that write to the audit ledger.
type AuditSink interface {
	Log(operation string, inputs, outputs []string, args map[string]any) error
}

// Preflight checks plan's numeric range against every range already
// committed to registry for overlap and non-monotonic reuse. Overlap
// against a different plan_id is always an error; overlap against the
// same plan_id (re-running an already-applied plan) is allowed.
func Preflight(plan Plan, registry *Registry) (PreflightResult, error) {
	existing, err := registry.Ranges()
	if err != nil {
		return PreflightResult{}, err
	}

	planStart, planEnd, err := planRange(plan)
	if err != nil {
		return PreflightResult{}, err
	}

	var overlaps []string
	for _, rr := range existing {
		if rr.PlanID == plan.PlanID {
			continue
		}
		if planStart <= rr.EndNum && rr.StartNum <= planEnd {
			overlaps = append(overlaps, fmt.Sprintf("plan %s range [%d,%d] overlaps committed plan %s range [%d,%d]",
				plan.PlanID, planStart, planEnd, rr.PlanID, rr.StartNum, rr.EndNum))
		}
	}
	sort.Strings(overlaps)
	return PreflightResult{OK: len(overlaps) == 0, Overlaps: overlaps}, nil
}

// planRange returns the lowest and highest numeric Bates values covered by
// plan's entries.
func planRange(plan Plan) (start, end int, err error) {
	if len(plan.Entries) == 0 {
		return 0, 0, nil
	}
	start, err = ParseBatesNumber(plan.Prefix, plan.Entries[0].Start)
	if err != nil {
		return 0, 0, err
	}
	end = start
	for _, e := range plan.Entries {
		s, err := ParseBatesNumber(plan.Prefix, e.Start)
		if err != nil {
			return 0, 0, err
		}
		en, err := ParseBatesNumber(plan.Prefix, e.End)
		if err != nil {
			return 0, 0, err
		}
		if s < start {
			start = s
		}
		if en > end {
			end = en
		}
	}
	return start, end, nil
}

// RequireClean returns a KindBatesCollision error describing every overlap
// unless force is true, in which case it logs a bates_force_override audit
// entry instead of failing.
func RequireClean(result PreflightResult, plan Plan, force bool, audit AuditSink) error {
	if result.OK {
		return nil
	}
	if !force {
		return rexerr.New(rexerr.KindBatesCollision, "Bates plan overlaps previously committed ranges", map[string]any{
			"plan_id":  plan.PlanID,
			"overlaps": result.Overlaps,
		})
	}
	if audit != nil {
		_ = audit.Log("bates_force_override", []string{plan.PlanID}, nil, map[string]any{
			"overlaps": result.Overlaps,
		})
	}
	return nil
}
