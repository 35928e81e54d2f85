package program_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/myrjola/wellplan/internal/program"
)

func TestTypes(t *testing.T) {
	want := []string{"beginner", "strength", "cardio", "wellness", "hiit", "yoga"}
	if diff := cmp.Diff(want, program.Types()); diff != "" {
		t.Errorf("Types() mismatch (-want +got):\n%s", diff)
	}
}

func TestTier(t *testing.T) {
	tests := []struct {
		level int
		want  int
	}{
		{level: 0, want: 1},
		{level: 1, want: 1},
		{level: 3, want: 1},
		{level: 4, want: 2},
		{level: 6, want: 2},
		{level: 7, want: 3},
		{level: 10, want: 3},
		{level: 42, want: 3},
	}
	for _, tt := range tests {
		if got := program.Tier(tt.level); got != tt.want {
			t.Errorf("Tier(%d) = %d, want %d", tt.level, got, tt.want)
		}
	}
}

func TestGet(t *testing.T) {
	t.Run("hiit level 5 is tier 2", func(t *testing.T) {
		got := program.Get("hiit", 5)
		want := program.Program{
			ProgramName: "HIIT Program",
			Description: "High-intensity interval training for maximum efficiency and fat burning.",
			Workouts: []program.Workout{
				{
					Name:        "Dynamic Warm-up",
					Duration:    10,
					Exercises:   []string{"Jumping jacks", "Burpees", "Mountain climbers"},
					RestSeconds: 15,
				},
				{
					Name:        "HIIT Circuit",
					Duration:    25,
					Exercises:   []string{"Burpees", "Mountain climbers", "Jump squats", "Push-ups", "Plank"},
					Rounds:      5,
					WorkSeconds: 45,
					RestSeconds: 45,
				},
				{Name: "Active Rest", Duration: 3, Type: "rest"},
				{Name: "Cool-down & Stretch", Duration: 10},
			},
			UserLevel:     5,
			LevelTier:     2,
			TotalDuration: 48,
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("Get() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("unknown type defaults to beginner", func(t *testing.T) {
		got := program.Get("unknown_type", 1)
		if got.ProgramName != "Beginner Program" || got.LevelTier != 1 {
			t.Errorf("got %q tier %d, want Beginner Program tier 1", got.ProgramName, got.LevelTier)
		}
		if got.Workouts[0].Name != "Full Body Warm-up" {
			t.Errorf("first workout = %q, want Full Body Warm-up", got.Workouts[0].Name)
		}
		if got.TotalDuration != 40 {
			t.Errorf("TotalDuration = %d, want 40", got.TotalDuration)
		}
	})

	t.Run("lookup ignores case", func(t *testing.T) {
		if got := program.Get("YOGA", 8); got.ProgramName != "Yoga Program" || got.LevelTier != 3 {
			t.Errorf("got %q tier %d, want Yoga Program tier 3", got.ProgramName, got.LevelTier)
		}
	})

	t.Run("every type and tier has workouts", func(t *testing.T) {
		for _, typ := range program.Types() {
			for _, level := range []int{1, 5, 9} {
				p := program.Get(typ, level)
				if len(p.Workouts) == 0 || p.TotalDuration <= 0 {
					t.Errorf("%s level %d: empty template %+v", typ, level, p)
				}
			}
		}
	})

	t.Run("returned program is a copy", func(t *testing.T) {
		p := program.Get("beginner", 1)
		p.Workouts[0].Exercises[0] = "Cartwheels"
		p.Workouts[1].Name = "Changed"
		again := program.Get("beginner", 1)
		if again.Workouts[0].Exercises[0] != "Arm circles" || again.Workouts[1].Name != "Bodyweight Squats" {
			t.Errorf("modifying a returned program changed the table: %+v", again.Workouts[:2])
		}
	})
}
