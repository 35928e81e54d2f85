// Package planner decides a next-day fitness plan from a user's check-in, recent log history and profile.
//
// The pipeline runs goal evaluation, wellness evaluation and workout selection, and attaches a recommendation when
// history was supplied. Every step degrades to a deterministic fallback instead of failing, so [Planner.Decide]
// always returns a usable [PlanDecision].
package planner

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/myrjola/wellplan/internal/logging"
)

// Planner sequences the evaluators, selector, predictor and composer. It holds no per-call state and is safe for
// concurrent use.
type Planner struct {
	predictor *Predictor
	composer  *Composer
	opts      Options
	logger    *slog.Logger
}

// New creates a planner. A nil predictor uses the fallback heuristics and a nil composer uses only the rules.
func New(predictor *Predictor, composer *Composer, opts Options, logger *slog.Logger) *Planner {
	if logger == nil {
		logger = logging.Discard()
	}
	opts = opts.withDefaults()
	if predictor == nil {
		predictor = NewPredictor(nil, nil, logger)
	}
	if composer == nil {
		composer = NewComposer(nil, opts, logger)
	}
	return &Planner{
		predictor: predictor,
		composer:  composer,
		opts:      opts,
		logger:    logger,
	}
}

// Decide produces the plan decision.
//
// recentLogs is chronological. A nil slice means no history was supplied and the recommendation is omitted; an empty
// slice counts as supplied. Only the newest RecentWindow entries are used.
func (p *Planner) Decide(
	ctx context.Context, state UserState, recentLogs []DailyLogEntry, profile *UserProfile) PlanDecision {
	var reasoning []string

	goal := EvaluateGoal(state.MissedDays)
	if goal == GoalAtRisk {
		reasoning = append(reasoning, fmt.Sprintf("%d missed workouts, goal at risk", state.MissedDays))
	} else {
		reasoning = append(reasoning, "Workout goal on track")
	}

	wellness := EvaluateWellness(state.Stress, state.SleepHours, *p.opts.RecoverySleepHours)
	switch {
	case state.Stress.Normalize() == LevelHigh:
		reasoning = append(reasoning, "High stress detected")
	case wellness == WellnessRecovery:
		reasoning = append(reasoning, "Low sleep detected")
	default:
		reasoning = append(reasoning, "Sufficient sleep and manageable stress")
	}

	var plan []string
	switch {
	case wellness == WellnessRecovery:
		plan = RecoveryRoutine()
		reasoning = append(reasoning, "Recovery needed, using recovery routine")
	case goal == GoalAtRisk:
		plan = SelectWorkout(goal, state.Energy)
		reasoning = append(reasoning, "Previous plan missed, reducing difficulty")
	case state.Energy.Normalize() == LevelLow:
		plan = SelectWorkout(goal, state.Energy)
		reasoning = append(reasoning, "Low energy, reducing difficulty")
	default:
		plan = SelectWorkout(goal, state.Energy)
		reasoning = append(reasoning, "Moderate workout selected")
	}

	decision := PlanDecision{
		GoalStatus:     goal,
		WellnessState:  wellness,
		WorkoutPlan:    plan,
		Recommendation: nil,
		Reasoning:      reasoning,
	}

	if recentLogs == nil {
		decision.Reasoning = append(decision.Reasoning, "No log history supplied, recommendation omitted")
		p.logDecision(ctx, decision)
		return decision
	}

	recent := recentLogs
	if len(recent) > p.opts.RecentWindow {
		recent = recent[len(recent)-p.opts.RecentWindow:]
	}

	prediction := p.predictor.Predict(ctx, state, recent, profile)
	decision.Reasoning = append(decision.Reasoning,
		estimateReason("Workout probability", prediction.WorkoutProbability),
		estimateReason("Predicted energy", prediction.PredictedEnergy),
	)

	bundle := p.composer.Compose(ctx, state, recent, profile, prediction)
	decision.Recommendation = &bundle
	if bundle.FallbackReason != "" {
		decision.Reasoning = append(decision.Reasoning, "Text generation failed, rule-based recommendation used")
	} else {
		decision.Reasoning = append(decision.Reasoning, "Recommendation source: "+string(bundle.Source))
	}

	p.logDecision(ctx, decision)
	return decision
}

func estimateReason(label string, e Estimate) string {
	return label + " " + strconv.FormatFloat(e.Value, 'f', 2, 64) + " from " + string(e.Source) //nolint:mnd // 2 decimals
}

func (p *Planner) logDecision(ctx context.Context, d PlanDecision) {
	attrs := []slog.Attr{
		slog.String("goal_status", string(d.GoalStatus)),
		slog.String("wellness_state", string(d.WellnessState)),
		slog.Any("workout_plan", d.WorkoutPlan),
	}
	if d.Recommendation != nil {
		attrs = append(attrs,
			slog.String("recommendation_source", string(d.Recommendation.Source)),
			slog.String("headline", d.Recommendation.Title),
		)
	}
	p.logger.LogAttrs(ctx, slog.LevelInfo, "plan decided", attrs...)
}
