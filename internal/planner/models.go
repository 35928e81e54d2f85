package planner

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/myrjola/wellplan/internal/errors"
)

// Level is an ordinal low/medium/high signal used for stress and energy.
type Level string

const (
	LevelLow    Level = "low"
	LevelMedium Level = "medium"
	LevelHigh   Level = "high"
)

// Normalize returns l, or LevelMedium when l is not a known level.
func (l Level) Normalize() Level {
	switch l {
	case LevelLow, LevelMedium, LevelHigh:
		return l
	default:
		return LevelMedium
	}
}

// Ordinal maps low, medium and high to 0, 1 and 2. Unknown values count as medium.
func (l Level) Ordinal() int {
	switch l.Normalize() {
	case LevelLow:
		return 0
	case LevelHigh:
		return 2 //nolint:mnd // high
	default:
		return 1
	}
}

// ActivityLevel describes how active a user is on a 5-point scale.
type ActivityLevel string

const (
	ActivitySedentary  ActivityLevel = "sedentary"
	ActivityLight      ActivityLevel = "light"
	ActivityModerate   ActivityLevel = "moderate"
	ActivityActive     ActivityLevel = "active"
	ActivityVeryActive ActivityLevel = "very_active"
)

// Ordinal maps the activity level to 1..5. Unknown values count as moderate.
func (a ActivityLevel) Ordinal() int {
	switch a {
	case ActivitySedentary:
		return 1
	case ActivityLight:
		return 2 //nolint:mnd // scale
	case ActivityActive:
		return 4 //nolint:mnd // scale
	case ActivityVeryActive:
		return 5 //nolint:mnd // scale
	default:
		return 3 //nolint:mnd // moderate
	}
}

// UserState is the check-in a decision is made from. It has no identity and is passed by value.
type UserState struct {
	MissedDays int     `json:"missed_days" yaml:"missed_days" validate:"gte=0"`
	Stress     Level   `json:"stress" yaml:"stress"`
	SleepHours float64 `json:"sleep_hours" yaml:"sleep_hours" validate:"gte=0"`
	Energy     Level   `json:"energy" yaml:"energy"`
}

// ErrInvalidDate is returned when a log date is neither YYYY-MM-DD nor RFC 3339.
var ErrInvalidDate = errors.NewSentinel("invalid date")

// Date is the day a log entry was recorded. It decodes from plain YYYY-MM-DD dates, which is how log stores usually
// persist them, and from RFC 3339 timestamps. It encodes as RFC 3339.
type Date struct {
	time.Time
}

// ParseDate parses a YYYY-MM-DD date or an RFC 3339 timestamp.
func ParseDate(s string) (Date, error) {
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return Date{Time: t}, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return Date{}, errors.Wrap(ErrInvalidDate, "parse date", slog.String("value", s))
	}
	return Date{Time: t}, nil
}

// UnmarshalText implements encoding.TextUnmarshaler. YAML decoding goes through it.
func (d *Date) UnmarshalText(text []byte) error {
	parsed, err := ParseDate(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// UnmarshalJSON overrides the RFC 3339 only decoding of the embedded time.Time.
func (d *Date) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return errors.Wrap(err, "unmarshal date")
	}
	return d.UnmarshalText([]byte(s))
}

// ErrEntryImmutable is returned when patching a log entry that is not from today.
var ErrEntryImmutable = errors.NewSentinel("log entry is immutable")

// DailyLogEntry is one day of logged signals. Entries are written by an external store and never changed by the
// planner.
type DailyLogEntry struct {
	Date          Date    `json:"date" yaml:"date" validate:"required"`
	StressLevel   Level   `json:"stress_level" yaml:"stress_level"`
	SleepHours    float64 `json:"sleep_hours" yaml:"sleep_hours" validate:"gte=0"`
	EnergyLevel   Level   `json:"energy_level" yaml:"energy_level"`
	MissedWorkout bool    `json:"missed_workout" yaml:"missed_workout"`

	Mood            string   `json:"mood,omitempty" yaml:"mood,omitempty"`
	WaterIntake     *float64 `json:"water_intake,omitempty" yaml:"water_intake,omitempty"`
	Steps           *int     `json:"steps,omitempty" yaml:"steps,omitempty"`
	Weight          *float64 `json:"weight,omitempty" yaml:"weight,omitempty"`
	WorkoutType     string   `json:"workout_type,omitempty" yaml:"workout_type,omitempty"`
	WorkoutDuration *int     `json:"workout_duration,omitempty" yaml:"workout_duration,omitempty"`
	Notes           string   `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// WithMood returns a copy of the entry with the mood replaced. Only today's entry may be patched.
func (e DailyLogEntry) WithMood(mood string, today time.Time) (DailyLogEntry, error) {
	if e.Date.Format(time.DateOnly) != today.Format(time.DateOnly) {
		return e, errors.Wrap(ErrEntryImmutable, "patch mood")
	}
	e.Mood = mood
	return e, nil
}

// UserProfile is read-only context for prediction and recommendation.
type UserProfile struct {
	Name          string        `json:"name,omitempty" yaml:"name,omitempty"`
	Age           *int          `json:"age,omitempty" yaml:"age,omitempty" validate:"omitempty,gte=0"`
	ActivityLevel ActivityLevel `json:"activity_level,omitempty" yaml:"activity_level,omitempty"`
	Goal          string        `json:"goal,omitempty" yaml:"goal,omitempty"`
}

// GoalStatus classifies workout consistency.
type GoalStatus string

const (
	GoalOnTrack GoalStatus = "on_track"
	GoalAtRisk  GoalStatus = "at_risk"
)

// WellnessState classifies whether the user needs recovery.
type WellnessState string

const (
	WellnessStable   WellnessState = "stable"
	WellnessRecovery WellnessState = "recovery"
)

// Source tells which path produced an estimate.
type Source string

const (
	SourceModel    Source = "model"
	SourceFallback Source = "fallback"
)

// Estimate is a single predicted number together with the path that produced it.
type Estimate struct {
	Value  float64 `json:"value"`
	Source Source  `json:"source"`
	// Reason explains why the fallback was used. Empty when the model produced the value or no model exists.
	Reason string `json:"reason,omitempty"`
}

// Prediction bundles the two predictor outputs. It is produced fresh on each call.
type Prediction struct {
	WorkoutProbability Estimate `json:"workout_probability"`
	PredictedEnergy    Estimate `json:"predicted_energy"`
}

// Priority ranks recommendation cards.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Rank orders priorities: high=3, medium=2, low=1, anything else 0.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 3 //nolint:mnd // high
	case PriorityMedium:
		return 2 //nolint:mnd // medium
	case PriorityLow:
		return 1
	default:
		return 0
	}
}

// Card is one candidate suggestion.
type Card struct {
	Category string   `json:"category"`
	Priority Priority `json:"priority"`
	Action   string   `json:"action"`
	Tips     []string `json:"tips"`
	Icon     string   `json:"icon"`
}

// BundleSource tells whether the recommendation came from the text generator or the rules.
type BundleSource string

const (
	BundleGenerated BundleSource = "ai-generated"
	BundleRuleBased BundleSource = "rule-based"
)

// Insights repeats the predictor outputs inside a recommendation.
type Insights struct {
	WorkoutProbability float64 `json:"workout_probability"`
	PredictedEnergy    float64 `json:"predicted_energy"`
}

// Bundle is the composed recommendation attached to a decision.
type Bundle struct {
	Title               string       `json:"title"`
	MainAction          string       `json:"main_action"`
	Tips                []string     `json:"tips"`
	Priority            Priority     `json:"priority"`
	Icon                string       `json:"icon"`
	PersonalizedMessage string       `json:"personalized_message"`
	AllRecommendations  []Card       `json:"all_recommendations"`
	MLInsights          Insights     `json:"ml_insights"`
	Source              BundleSource `json:"source"`
	// FallbackReason is set when a configured text generator failed and the rules were used instead.
	FallbackReason string `json:"fallback_reason,omitempty"`
}

// PlanDecision is the sole output of the planner. It is created once per call and not modified afterwards.
type PlanDecision struct {
	GoalStatus     GoalStatus    `json:"goal_status"`
	WellnessState  WellnessState `json:"wellness_state"`
	WorkoutPlan    []string      `json:"workout_plan"`
	Recommendation *Bundle       `json:"recommendation,omitempty"`
	Reasoning      []string      `json:"reasoning"`
}
