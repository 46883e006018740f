package rules

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rexlit/rexlit/internal/rexerr"
	"gopkg.in/yaml.v3"
)

// ServiceMethod names how process was served; "mail" adds the 3-day mail
// extension before any other offset arithmetic.
type ServiceMethod string

const (
	ServicePersonal  ServiceMethod = "personal"
	ServiceMail      ServiceMethod = "mail"
	ServiceEService  ServiceMethod = "eservice"
)

// DeadlineResult is one resolved deadline from Calculate.
type DeadlineResult struct {
	Name         string
	Cite         string
	Notes        string
	LastReviewed string
	ResolvedAt   time.Time
	Explanation  string // empty unless Calculate was called with explain=true
}

// Engine resolves jurisdictional deadlines from a fixed set of packs
// loaded once at construction.
type Engine struct {
	packs    map[string]Pack
	holidays map[string]map[string]struct{} // set name -> set of YYYY-MM-DD
}

// NewEngine constructs an Engine from the packaged default rule packs
// (packs/tx.yaml, packs/fl.yaml) and the packaged holiday sets, embedded
// into the binary at build time.
func NewEngine() (*Engine, error) {
	packs, err := loadDefaultPacks()
	if err != nil {
		return nil, rexerr.Wrap(rexerr.KindConfigError, "loading default rule packs", err, nil)
	}
	holidaySets, err := loadDefaultHolidays()
	if err != nil {
		return nil, rexerr.Wrap(rexerr.KindConfigError, "loading default holiday sets", err, nil)
	}
	return &Engine{packs: packs, holidays: toHolidaySets(holidaySets)}, nil
}

// NewEngineFromDir constructs an Engine from an explicit directory of
// override packs (each a *.yaml file plus a holidays.yaml), so new
// jurisdictions can be exercised in tests without recompiling the binary.
func NewEngineFromDir(dir string) (*Engine, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, rexerr.Wrap(rexerr.KindConfigError, "reading rule pack directory", err, map[string]any{"dir": dir})
	}
	packs := make(map[string]Pack)
	holidaySets := make(map[string][]string)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, rexerr.Wrap(rexerr.KindConfigError, "reading rule pack file", err, map[string]any{"file": entry.Name()})
		}
		if entry.Name() == "holidays.yaml" {
			var sets map[string][]string
			if err := yaml.Unmarshal(raw, &sets); err != nil {
				return nil, rexerr.Wrap(rexerr.KindConfigError, "parsing holidays.yaml", err, nil)
			}
			holidaySets = sets
			continue
		}
		p, err := loadPack(raw)
		if err != nil {
			return nil, rexerr.Wrap(rexerr.KindConfigError, "parsing rule pack", err, map[string]any{"file": entry.Name()})
		}
		packs[p.State] = p
	}
	return &Engine{packs: packs, holidays: toHolidaySets(holidaySets)}, nil
}

func toHolidaySets(raw map[string][]string) map[string]map[string]struct{} {
	out := make(map[string]map[string]struct{}, len(raw))
	for name, dates := range raw {
		set := make(map[string]struct{}, len(dates))
		for _, d := range dates {
			set[d] = struct{}{}
		}
		out[name] = set
	}
	return out
}

// Calculate resolves every deadline defined for (jurisdiction, event)
// relative to baseDate, applying the service-method mail extension and
// each deadline's offset rules. All arithmetic happens in the pack's
// declared civil time zone.
func (e *Engine) Calculate(jurisdiction, event string, baseDate time.Time, serviceMethod ServiceMethod, explain bool) ([]DeadlineResult, error) {
	pack, ok := e.packs[jurisdiction]
	if !ok {
		return nil, rexerr.New(rexerr.KindConfigError, "unknown jurisdiction", map[string]any{"jurisdiction": jurisdiction})
	}
	ev, ok := pack.Events[event]
	if !ok {
		return nil, rexerr.New(rexerr.KindConfigError, "unknown event for jurisdiction", map[string]any{"jurisdiction": jurisdiction, "event": event})
	}
	loc, err := time.LoadLocation(pack.Timezone)
	if err != nil {
		return nil, rexerr.Wrap(rexerr.KindConfigError, "loading jurisdiction time zone", err, map[string]any{"timezone": pack.Timezone})
	}

	results := make([]DeadlineResult, 0, len(ev.Deadlines))
	for _, d := range ev.Deadlines {
		resolved, trace, err := e.resolveDeadline(pack, d, baseDate, serviceMethod, loc)
		if err != nil {
			return nil, err
		}
		res := DeadlineResult{
			Name:         d.Name,
			Cite:         d.Cite,
			Notes:        d.Notes,
			LastReviewed: d.LastReviewed,
			ResolvedAt:   resolved,
		}
		if explain {
			res.Explanation = trace
		}
		results = append(results, res)
	}
	return results, nil
}

func (e *Engine) resolveDeadline(pack Pack, d DeadlineDef, baseDate time.Time, service ServiceMethod, loc *time.Location) (time.Time, string, error) {
	date := time.Date(baseDate.Year(), baseDate.Month(), baseDate.Day(), 0, 0, 0, 0, loc)
	var trace strings.Builder
	fmt.Fprintf(&trace, "base %s", date.Format("2006-01-02"))

	if service == ServiceMail {
		date = date.AddDate(0, 0, 3)
		fmt.Fprintf(&trace, " + mail(3d) = %s", date.Format("2006-01-02"))
	}

	date = date.AddDate(0, 0, d.Offset.Days)
	fmt.Fprintf(&trace, " + offset(%dd) = %s", d.Offset.Days, date.Format("2006-01-02"))

	if d.Offset.SkipWeekends || d.Offset.SkipHolidays {
		before := date
		date = e.advancePastNonBusinessDays(date, pack, d.Offset.SkipWeekends, d.Offset.SkipHolidays)
		if !date.Equal(before) {
			fmt.Fprintf(&trace, " -> advanced to business day %s", date.Format("2006-01-02"))
		}
	}

	if d.TimeOfDay != "" {
		h, m, s, err := parseTimeOfDay(d.TimeOfDay)
		if err != nil {
			return time.Time{}, "", rexerr.Wrap(rexerr.KindConfigError, "parsing time_of_day", err, map[string]any{"deadline": d.Name})
		}
		date = time.Date(date.Year(), date.Month(), date.Day(), h, m, s, 0, loc)
		fmt.Fprintf(&trace, "; time set to %02d:%02d:%02d %s", h, m, s, pack.Timezone)
	}

	return date, trace.String(), nil
}

// advancePastNonBusinessDays steps date forward one day at a time until it
// is neither a weekend (when skipWeekends) nor a named holiday (when
// skipHolidays), matching how filing deadlines roll forward in practice.
func (e *Engine) advancePastNonBusinessDays(date time.Time, pack Pack, skipWeekends, skipHolidays bool) time.Time {
	for {
		if skipWeekends && isWeekend(date) {
			date = date.AddDate(0, 0, 1)
			continue
		}
		if skipHolidays && e.isHoliday(date, pack.HolidaySets) {
			date = date.AddDate(0, 0, 1)
			continue
		}
		return date
	}
}

func isWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

func (e *Engine) isHoliday(t time.Time, setNames []string) bool {
	key := t.Format("2006-01-02")
	for _, name := range setNames {
		if set, ok := e.holidays[name]; ok {
			if _, present := set[key]; present {
				return true
			}
		}
	}
	return false
}

func parseTimeOfDay(s string) (h, m, sec int, err error) {
	_, err = fmt.Sscanf(s, "%d:%d:%d", &h, &m, &sec)
	return
}
