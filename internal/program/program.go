// Package program serves canned daily workout templates keyed by program type and user level.
package program

import (
	_ "embed"
	"fmt"
	"slices"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Workout is one block of a daily program. Durations are minutes; the *Seconds fields are seconds.
type Workout struct {
	Name        string   `yaml:"name" json:"name"`
	Duration    int      `yaml:"duration" json:"duration"`
	Type        string   `yaml:"type" json:"type,omitempty"`
	Intensity   string   `yaml:"intensity" json:"intensity,omitempty"`
	Intervals   string   `yaml:"intervals" json:"intervals,omitempty"`
	Exercises   []string `yaml:"exercises" json:"exercises,omitempty"`
	Sets        int      `yaml:"sets" json:"sets,omitempty"`
	Reps        int      `yaml:"reps" json:"reps,omitempty"`
	HoldSeconds int      `yaml:"duration_sec" json:"duration_sec,omitempty"`
	Rounds      int      `yaml:"rounds" json:"rounds,omitempty"`
	WorkSeconds int      `yaml:"work" json:"work,omitempty"`
	RestSeconds int      `yaml:"rest" json:"rest,omitempty"`
}

// Program is the template for one program type at one level tier.
type Program struct {
	ProgramName   string    `json:"program_name"`
	Description   string    `json:"description"`
	Workouts      []Workout `json:"workouts"`
	UserLevel     int       `json:"user_level"`
	LevelTier     int       `json:"level_tier"`
	TotalDuration int       `json:"total_duration"`
}

// DefaultType is used for unknown program types.
const DefaultType = "beginner"

//go:embed programs.yaml
var programsYAML []byte

type programEntry struct {
	Key         string            `yaml:"key"`
	Name        string            `yaml:"name"`
	Description string            `yaml:"description"`
	Tiers       map[int][]Workout `yaml:"tiers"`
}

//nolint:gochecknoglobals // parsed once from the embedded table.
var table = sync.OnceValue(func() []programEntry {
	var doc struct {
		Programs []programEntry `yaml:"programs"`
	}
	if err := yaml.Unmarshal(programsYAML, &doc); err != nil {
		panic(fmt.Sprintf("parse embedded programs: %v", err))
	}
	return doc.Programs
})

// Types lists the known program types in a stable order.
func Types() []string {
	entries := table()
	types := make([]string, 0, len(entries))
	for _, e := range entries {
		types = append(types, e.Key)
	}
	return types
}

// Tier buckets a 1-10 user level into tiers 1 (levels up to 3), 2 (4-6) and 3 (7 and above).
func Tier(userLevel int) int {
	switch {
	case userLevel <= 3: //nolint:mnd // tier bucket
		return 1
	case userLevel <= 6: //nolint:mnd // tier bucket
		return 2 //nolint:mnd // tier
	default:
		return 3 //nolint:mnd // tier
	}
}

// Get returns the template for programType at userLevel. Lookup is case-insensitive and unknown types get the
// beginner program. The returned program is a copy the caller may modify.
func Get(programType string, userLevel int) Program {
	entries := table()
	key := strings.ToLower(strings.TrimSpace(programType))
	idx := slices.IndexFunc(entries, func(e programEntry) bool { return e.Key == key })
	if idx == -1 {
		idx = slices.IndexFunc(entries, func(e programEntry) bool { return e.Key == DefaultType })
	}
	entry := entries[idx]

	tier := Tier(userLevel)
	workouts, ok := entry.Tiers[tier]
	if !ok {
		workouts = entry.Tiers[1]
	}

	p := Program{
		ProgramName:   entry.Name,
		Description:   entry.Description,
		Workouts:      make([]Workout, len(workouts)),
		UserLevel:     userLevel,
		LevelTier:     tier,
		TotalDuration: 0,
	}
	for i, w := range workouts {
		w.Exercises = slices.Clone(w.Exercises)
		p.Workouts[i] = w
		p.TotalDuration += w.Duration
	}
	return p
}
