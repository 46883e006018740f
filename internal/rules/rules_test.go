package rules

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func mustEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngine()
	require.NoError(t, err)
	return e
}

func TestNewEngineLoadsPackagedPacks(t *testing.T) {
	e := mustEngine(t)
	require.Contains(t, e.packs, "TX")
	require.Contains(t, e.packs, "FL")
	require.NotEmpty(t, e.holidays["federal"])
}

// TestTXAnswerDeadlineIsBasePlusDaysOnWeekday reproduces a citation served
// on a Friday whose raw 20-day offset lands on a Thursday, confirming that
// with no weekend or holiday in the way the deadline is exactly the served
// date plus 20 days at the rule's time of day.
func TestTXAnswerDeadlineIsBasePlusDaysOnWeekday(t *testing.T) {
	e := mustEngine(t)
	served := time.Date(2025, time.January, 10, 0, 0, 0, 0, time.UTC) // Friday

	results, err := e.Calculate("TX", "served_petition", served, ServicePersonal, true)
	require.NoError(t, err)
	require.Len(t, results, 1)

	r := results[0]
	require.Equal(t, "answer_due", r.Name)
	require.Equal(t, "Tex. R. Civ. P. 99(b)", r.Cite)

	loc, _ := time.LoadLocation("America/Chicago")
	// Jan 10 + 20 days = Jan 30 2025, a Thursday; no weekend/holiday roll
	// needed, so this also pins down that the happy-path arithmetic is
	// exactly base+days with no accidental drift.
	want := time.Date(2025, time.January, 30, 10, 0, 0, 0, loc)
	require.True(t, r.ResolvedAt.Equal(want), "got %s want %s", r.ResolvedAt, want)
	require.NotEmpty(t, r.Explanation)
}

// TestTXAnswerDeadlineMatchesStatutoryExample reproduces the literal
// scenario of a petition served Wednesday 2025-10-22: 20 days later is
// Tuesday 2025-11-11, which also happens to be a named federal holiday
// (Veterans Day). Since served_petition.answer_due does not skip named
// holidays (only weekends), the deadline must still resolve to that date.
func TestTXAnswerDeadlineMatchesStatutoryExample(t *testing.T) {
	e := mustEngine(t)
	served := time.Date(2025, time.October, 22, 0, 0, 0, 0, time.UTC)

	results, err := e.Calculate("TX", "served_petition", served, ServicePersonal, false)
	require.NoError(t, err)
	require.Len(t, results, 1)

	r := results[0]
	require.Equal(t, "answer_due", r.Name)
	require.Contains(t, r.Cite, "Tex. R. Civ. P. 99(b)")

	loc, _ := time.LoadLocation("America/Chicago")
	want := time.Date(2025, time.November, 11, 10, 0, 0, 0, loc)
	require.True(t, r.ResolvedAt.Equal(want), "got %s want %s", r.ResolvedAt, want)
}

func TestMailServiceAddsThreeDaysBeforeOffset(t *testing.T) {
	e := mustEngine(t)
	served := time.Date(2025, time.June, 3, 0, 0, 0, 0, time.UTC) // Tuesday

	personal, err := e.Calculate("FL", "complaint_served", served, ServicePersonal, false)
	require.NoError(t, err)
	mail, err := e.Calculate("FL", "complaint_served", served, ServiceMail, false)
	require.NoError(t, err)

	require.True(t, mail[0].ResolvedAt.After(personal[0].ResolvedAt))
	require.True(t, mail[0].ResolvedAt.Sub(personal[0].ResolvedAt) >= 3*24*time.Hour)
}

func TestSkipHolidaysAdvancesPastNamedHoliday(t *testing.T) {
	e := mustEngine(t)
	// Served so the raw offset lands exactly on July 4, 2025 (a Friday,
	// a named federal holiday): July 4 - 30 days = June 4, 2025.
	served := time.Date(2025, time.June, 4, 0, 0, 0, 0, time.UTC)

	results, err := e.Calculate("TX", "discovery_requests_served", served, ServicePersonal, false)
	require.NoError(t, err)

	loc, _ := time.LoadLocation("America/Chicago")
	holiday := time.Date(2025, time.July, 4, 0, 0, 0, 0, loc)
	require.False(t, sameDay(results[0].ResolvedAt, holiday), "deadline must not land on a named holiday")
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

func TestCalculateRejectsUnknownJurisdictionAndEvent(t *testing.T) {
	e := mustEngine(t)
	_, err := e.Calculate("NY", "served_petition", time.Now(), ServicePersonal, false)
	require.Error(t, err)

	_, err = e.Calculate("TX", "no_such_event", time.Now(), ServicePersonal, false)
	require.Error(t, err)
}

func TestNewEngineFromDirLoadsOverridePacks(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir+"/ca.yaml", `
state: CA
schema_version: "1"
last_updated: "2025-01-01"
timezone: America/Los_Angeles
holiday_sets: [federal]
events:
  summons_served:
    deadlines:
      - name: answer_due
        cite: "Cal. Civ. Proc. Code 412.20"
        offset:
          days: 30
          skip_weekends: true
          skip_holidays: false
        time_of_day: "17:00:00"
        last_reviewed: "2025-01-01"
        notes: "test pack"
`)
	writeFile(t, dir+"/holidays.yaml", `
federal:
  - "2025-01-01"
`)

	e, err := NewEngineFromDir(dir)
	require.NoError(t, err)

	results, err := e.Calculate("CA", "summons_served", time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC), ServicePersonal, false)
	require.NoError(t, err)
	require.Equal(t, "answer_due", results[0].Name)
}

func TestExportICSProducesOneVEVENTPerDeadline(t *testing.T) {
	e := mustEngine(t)
	results, err := e.Calculate("TX", "served_petition", time.Date(2025, time.January, 10, 0, 0, 0, 0, time.UTC), ServicePersonal, false)
	require.NoError(t, err)

	ics := ExportICS("TX", results)
	require.Contains(t, ics, "BEGIN:VCALENDAR")
	require.Contains(t, ics, "BEGIN:VEVENT")
	require.Contains(t, ics, "CATEGORIES:Legal,Deadline")
	require.Contains(t, ics, "TX: answer_due")
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}
