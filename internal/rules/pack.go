// Package rules implements the jurisdictional deadline calculator: YAML
// rule packs loaded read-only at construction, date arithmetic performed
// in each jurisdiction's own civil time zone, and iCalendar export of the
// resulting deadlines.
package rules

import (
	"embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed packs/*.yaml
var defaultPacks embed.FS

// Offset is a deadline's arithmetic relative to a base date.
type Offset struct {
	Days         int  `yaml:"days"`
	SkipWeekends bool `yaml:"skip_weekends"`
	SkipHolidays bool `yaml:"skip_holidays"`
}

// DeadlineDef is one named deadline within an event.
type DeadlineDef struct {
	Name         string `yaml:"name"`
	Cite         string `yaml:"cite"`
	Offset       Offset `yaml:"offset"`
	TimeOfDay    string `yaml:"time_of_day"` // "HH:MM:SS" in the pack's timezone
	LastReviewed string `yaml:"last_reviewed"`
	Notes        string `yaml:"notes"`
}

// EventDef groups the deadlines triggered by one procedural event.
type EventDef struct {
	Deadlines []DeadlineDef `yaml:"deadlines"`
}

// Pack is one jurisdiction's rule definitions, loaded read-only at engine
// construction and never mutated at run time.
type Pack struct {
	State        string              `yaml:"state"`
	SchemaVersion string             `yaml:"schema_version"`
	LastUpdated  string              `yaml:"last_updated"`
	Timezone     string              `yaml:"timezone"`
	HolidaySets  []string            `yaml:"holiday_sets"`
	Events       map[string]EventDef `yaml:"events"`
}

func loadPack(data []byte) (Pack, error) {
	var p Pack
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Pack{}, fmt.Errorf("parsing rule pack: %w", err)
	}
	return p, nil
}

// loadDefaultPacks reads every packs/*.yaml embedded in the binary,
// keyed by Pack.State.
func loadDefaultPacks() (map[string]Pack, error) {
	entries, err := defaultPacks.ReadDir("packs")
	if err != nil {
		return nil, err
	}
	packs := make(map[string]Pack)
	for _, entry := range entries {
		if entry.Name() == "holidays.yaml" {
			continue
		}
		raw, err := defaultPacks.ReadFile("packs/" + entry.Name())
		if err != nil {
			return nil, err
		}
		p, err := loadPack(raw)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", entry.Name(), err)
		}
		packs[p.State] = p
	}
	return packs, nil
}

func loadDefaultHolidays() (map[string][]string, error) {
	raw, err := defaultPacks.ReadFile("packs/holidays.yaml")
	if err != nil {
		return nil, err
	}
	var sets map[string][]string
	if err := yaml.Unmarshal(raw, &sets); err != nil {
		return nil, fmt.Errorf("parsing holidays.yaml: %w", err)
	}
	return sets, nil
}
