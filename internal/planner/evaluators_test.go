package planner_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/myrjola/wellplan/internal/planner"
)

func TestEvaluateGoal(t *testing.T) {
	for missed := range 10 {
		want := planner.GoalOnTrack
		if missed >= 3 {
			want = planner.GoalAtRisk
		}
		if got := planner.EvaluateGoal(missed); got != want {
			t.Errorf("EvaluateGoal(%d) = %s, want %s", missed, got, want)
		}
	}
	if got := planner.EvaluateGoal(2); got != planner.GoalOnTrack {
		t.Errorf("boundary 2: got %s", got)
	}
	if got := planner.EvaluateGoal(3); got != planner.GoalAtRisk {
		t.Errorf("boundary 3: got %s", got)
	}
}

func TestEvaluateWellness(t *testing.T) {
	tests := []struct {
		name   string
		stress planner.Level
		sleep  float64
		want   planner.WellnessState
	}{
		{name: "high stress", stress: planner.LevelHigh, sleep: 9, want: planner.WellnessRecovery},
		{name: "short sleep", stress: planner.LevelLow, sleep: 4.9, want: planner.WellnessRecovery},
		{name: "threshold is exclusive", stress: planner.LevelMedium, sleep: 5, want: planner.WellnessStable},
		{name: "stable", stress: planner.LevelLow, sleep: 8, want: planner.WellnessStable},
		{name: "unknown stress is medium", stress: "panicked", sleep: 8, want: planner.WellnessStable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := planner.EvaluateWellness(tt.stress, tt.sleep, planner.DefaultRecoverySleepHours)
			if got != tt.want {
				t.Errorf("EvaluateWellness() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestSelectWorkout(t *testing.T) {
	light := []string{"10 min walk", "stretching"}
	moderate := []string{"20 min cardio", "bodyweight workout"}
	tests := []struct {
		goal   planner.GoalStatus
		energy planner.Level
		want   []string
	}{
		{goal: planner.GoalAtRisk, energy: planner.LevelHigh, want: light},
		{goal: planner.GoalOnTrack, energy: planner.LevelLow, want: light},
		{goal: planner.GoalOnTrack, energy: planner.LevelMedium, want: moderate},
		{goal: planner.GoalOnTrack, energy: "unknown", want: moderate},
	}
	for _, tt := range tests {
		if diff := cmp.Diff(tt.want, planner.SelectWorkout(tt.goal, tt.energy)); diff != "" {
			t.Errorf("SelectWorkout(%s, %s) mismatch (-want +got):\n%s", tt.goal, tt.energy, diff)
		}
	}

	// Callers own the returned slices.
	plan := planner.SelectWorkout(planner.GoalOnTrack, planner.LevelHigh)
	plan[0] = "marathon"
	if got := planner.SelectWorkout(planner.GoalOnTrack, planner.LevelHigh)[0]; got != "20 min cardio" {
		t.Errorf("mutating a returned plan leaked into the next call: %q", got)
	}
	routine := planner.RecoveryRoutine()
	routine[1] = "sprints"
	if diff := cmp.Diff([]string{"breathing", "light walk"}, planner.RecoveryRoutine()); diff != "" {
		t.Errorf("RecoveryRoutine() mismatch (-want +got):\n%s", diff)
	}
}
