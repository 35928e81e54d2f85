package planner

// AtRiskMissedDays is the number of missed workouts from which the goal is at risk.
const AtRiskMissedDays = 3

// EvaluateGoal classifies workout consistency from the missed workout count.
func EvaluateGoal(missedDays int) GoalStatus {
	if missedDays >= AtRiskMissedDays {
		return GoalAtRisk
	}
	return GoalOnTrack
}

// EvaluateWellness returns WellnessRecovery when stress is high or sleep is below recoverySleepHours.
func EvaluateWellness(stress Level, sleepHours, recoverySleepHours float64) WellnessState {
	if stress.Normalize() == LevelHigh || sleepHours < recoverySleepHours {
		return WellnessRecovery
	}
	return WellnessStable
}

// SelectWorkout maps goal status and current energy to a workout plan. The caller owns the returned slice.
func SelectWorkout(goal GoalStatus, energy Level) []string {
	if goal == GoalAtRisk || energy.Normalize() == LevelLow {
		return []string{"10 min walk", "stretching"}
	}
	return []string{"20 min cardio", "bodyweight workout"}
}

// RecoveryRoutine is the fixed plan used instead of SelectWorkout when the user needs recovery.
func RecoveryRoutine() []string {
	return []string{"breathing", "light walk"}
}
