package bates

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/rexlit/rexlit/internal/model"
	"github.com/stretchr/testify/require"
)

func rec(sha, path, family string, pages int) model.ManifestRecord {
	r, err := model.NewManifestRecord(model.Document{
		SHA256:    sha,
		Path:      path,
		FamilyID:  family,
		PageCount: pages,
	}, "test", time.Unix(0, 0))
	if err != nil {
		panic(err)
	}
	return r
}

func TestPlanAssignsSequentialNonOverlappingRanges(t *testing.T) {
	p := &Planner{Prefix: "ACME", Width: 6, Start: 1}
	plan := p.Plan([]model.ManifestRecord{
		rec("b2", "/root/b.pdf", "", 2),
		rec("a1", "/root/a.pdf", "", 1),
	})
	require.Len(t, plan.Entries, 2)
	require.Equal(t, "ACME000001", plan.Entries[0].Start)
	require.Equal(t, "ACME000001", plan.Entries[0].End)
	require.Equal(t, "a1", plan.Entries[0].SHA256)
	require.Equal(t, "ACME000002", plan.Entries[1].Start)
	require.Equal(t, "ACME000003", plan.Entries[1].End)
}

func TestPlanKeepsEmailFamilyContiguous(t *testing.T) {
	p := &Planner{Prefix: "ACME", Width: 4, Start: 1}
	plan := p.Plan([]model.ManifestRecord{
		rec("zzz", "/root/z.eml", "fam1", 1),
		rec("aaa", "/root/a.eml", "fam1", 1),
		rec("mmm", "/root/m.txt", "", 1),
	})
	// fam1 members sort before the non-family doc keyed by its own sha256
	// only if "fam1" < "mmm" lexically, which it is.
	require.Equal(t, "aaa", plan.Entries[0].SHA256)
	require.Equal(t, "zzz", plan.Entries[1].SHA256)
	require.Equal(t, "mmm", plan.Entries[2].SHA256)
}

func TestPlanIDIsPureFunctionOfInputs(t *testing.T) {
	p := &Planner{Prefix: "ACME", Width: 6, Start: 1}
	records := []model.ManifestRecord{rec("a1", "/root/a.pdf", "", 1)}
	plan1 := p.Plan(records)
	plan2 := p.Plan(records)
	require.Equal(t, plan1.PlanID, plan2.PlanID)
}

// TestApplyIsMonotonicAndDetectsCollision exercises plan -> preflight ->
// apply against a registry, then a second non-overlapping plan, then a
// deliberately colliding plan to confirm Preflight rejects it.
func TestApplyIsMonotonicAndDetectsCollision(t *testing.T) {
	root := t.TempDir()
	registry, err := OpenRegistry(root, "ACME")
	require.NoError(t, err)
	defer registry.Close()

	p1 := &Planner{Prefix: "ACME", Width: 6, Start: 1}
	plan1 := p1.Plan([]model.ManifestRecord{rec("a1", filepath.Join(root, "a.txt"), "", 1)})

	res1, err := Apply(plan1, registry, ApplyOptions{Root: root})
	require.NoError(t, err)
	require.False(t, res1.DryRun)

	p2 := &Planner{Prefix: "ACME", Width: 6, Start: 1}
	plan2 := p2.Plan([]model.ManifestRecord{rec("b2", filepath.Join(root, "b.txt"), "", 1)})
	_, err = Apply(plan2, registry, ApplyOptions{Root: root})
	require.Error(t, err, "expected overlap with plan1's range [1,1]")

	p3 := &Planner{Prefix: "ACME", Width: 6, Start: 2}
	plan3 := p3.Plan([]model.ManifestRecord{rec("c3", filepath.Join(root, "c.txt"), "", 1)})
	res3, err := Apply(plan3, registry, ApplyOptions{Root: root})
	require.NoError(t, err)
	require.False(t, res3.DryRun)
}

func TestDryRunNeverCommitsToRegistry(t *testing.T) {
	root := t.TempDir()
	registry, err := OpenRegistry(root, "ACME")
	require.NoError(t, err)
	defer registry.Close()

	p := &Planner{Prefix: "ACME", Width: 6, Start: 1}
	plan := p.Plan([]model.ManifestRecord{rec("a1", filepath.Join(root, "a.txt"), "", 1)})

	res, err := Apply(plan, registry, ApplyOptions{Root: root, DryRun: true})
	require.NoError(t, err)
	require.True(t, res.DryRun)

	ranges, err := registry.Ranges()
	require.NoError(t, err)
	require.Empty(t, ranges)
}

func TestForceOverrideLogsAuditEntryInsteadOfFailing(t *testing.T) {
	root := t.TempDir()
	registry, err := OpenRegistry(root, "ACME")
	require.NoError(t, err)
	defer registry.Close()

	p1 := &Planner{Prefix: "ACME", Width: 6, Start: 1}
	plan1 := p1.Plan([]model.ManifestRecord{rec("a1", filepath.Join(root, "a.txt"), "", 1)})
	_, err = Apply(plan1, registry, ApplyOptions{Root: root})
	require.NoError(t, err)

	sink := &capturingSink{}
	p2 := &Planner{Prefix: "ACME", Width: 6, Start: 1}
	plan2 := p2.Plan([]model.ManifestRecord{rec("b2", filepath.Join(root, "b.txt"), "", 1)})
	_, err = Apply(plan2, registry, ApplyOptions{Root: root, Force: true, Audit: sink})
	require.NoError(t, err)
	require.Equal(t, []string{"bates_force_override", "bates_apply"}, sink.operations)
}

type capturingSink struct{ operations []string }

func (s *capturingSink) Log(operation string, inputs, outputs []string, args map[string]any) error {
	s.operations = append(s.operations, operation)
	return nil
}
