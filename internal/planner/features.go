package planner

import "github.com/myrjola/wellplan/internal/ptr"

// FeatureVector is the fixed-order numeric encoding of state, history and profile. See FeatureNames for the order.
type FeatureVector []float64

// FeatureNames lists the features in the order ExtractFeatures emits them.
//
//nolint:gochecknoglobals // read-only table.
var FeatureNames = []string{
	"sleep_hours",
	"stress_ordinal",
	"energy_ordinal",
	"missed_days",
	"avg_sleep_hours",
	"avg_stress_ordinal",
	"workout_completion_rate",
	"age",
	"activity_level_ordinal",
}

// FeatureCount is the length of every FeatureVector.
const FeatureCount = 9

// Substitutes used when there is no history or profile.
const (
	defaultAvgSleepHours  = 7.0
	defaultAvgStress      = 1.0
	defaultCompletionRate = 0.5
	defaultAge            = 30
)

// ExtractFeatures builds the feature vector. It is a pure function: missing optional inputs are replaced with
// defaults and nothing fails.
func ExtractFeatures(state UserState, recentLogs []DailyLogEntry, profile *UserProfile) FeatureVector {
	features := make(FeatureVector, 0, FeatureCount)

	features = append(features,
		state.SleepHours,
		float64(state.Stress.Ordinal()),
		float64(state.Energy.Ordinal()),
		float64(state.MissedDays),
	)

	if len(recentLogs) > 0 {
		var sleep, stress, completed float64
		for _, entry := range recentLogs {
			sleep += entry.SleepHours
			stress += float64(entry.StressLevel.Ordinal())
			if !entry.MissedWorkout {
				completed++
			}
		}
		n := float64(len(recentLogs))
		features = append(features, sleep/n, stress/n, completed/n)
	} else {
		features = append(features, defaultAvgSleepHours, defaultAvgStress, defaultCompletionRate)
	}

	age := defaultAge
	activity := ActivityModerate
	if profile != nil {
		age = ptr.Or(profile.Age, defaultAge)
		activity = profile.ActivityLevel
	}
	features = append(features, float64(age), float64(activity.Ordinal()))

	return features
}
