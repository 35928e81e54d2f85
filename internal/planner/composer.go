package planner

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/myrjola/wellplan/internal/errors"
	"github.com/myrjola/wellplan/internal/logging"
)

// TextGenerator produces free text from a prompt. Configured reports whether a credential is present; an
// unconfigured generator is skipped without calling Generate.
type TextGenerator interface {
	Configured() bool
	Generate(ctx context.Context, prompt string, maxTokens int, temperature float64) (string, error)
}

var errEmptyGeneration = errors.NewSentinel("generated text is empty")

// Rule thresholds.
const (
	lowSleepHours         = 6.0
	lowAverageSleepHours  = 6.5
	highStressFraction    = 0.4
	lowCompletionRate     = 0.6
	lowWorkoutProbability = 0.5
	lowPredictedEnergy    = 5.0
	minWeightEntries      = 3
	generatedTitle        = "AI-Powered Recommendation"
	generatedIcon         = "brain"
	generatedCardCategory = "AI Recommendation"
	generatedCardTip      = "Generated by LLM with ML insights"
	generatedPatternTip   = "Based on your patterns and ML analysis"
)

// Composer turns predictions and recent history into a recommendation bundle.
type Composer struct {
	generator TextGenerator
	opts      Options
	logger    *slog.Logger
}

// NewComposer creates a composer. generator may be nil, in which case only the rules are used.
func NewComposer(generator TextGenerator, opts Options, logger *slog.Logger) *Composer {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Composer{
		generator: generator,
		opts:      opts.withDefaults(),
		logger:    logger,
	}
}

// Compose builds the recommendation. It tries the text generator once and falls back to the rules on any failure.
func (c *Composer) Compose(
	ctx context.Context,
	state UserState,
	recentLogs []DailyLogEntry,
	profile *UserProfile,
	prediction Prediction,
) Bundle {
	if c.generator == nil || c.opts.DisableGeneratedText || !c.generator.Configured() {
		c.logger.LogAttrs(ctx, slog.LevelDebug, "text generation not configured, using rules")
		return c.ruleBased(state, recentLogs, profile, prediction)
	}

	text, err := c.generate(ctx, BuildPrompt(state, recentLogs, profile, prediction))
	if err != nil {
		c.logger.LogAttrs(ctx, slog.LevelWarn, "text generation failed, using rules", errors.SlogError(err))
		bundle := c.ruleBased(state, recentLogs, profile, prediction)
		bundle.FallbackReason = err.Error()
		return bundle
	}
	c.logger.LogAttrs(ctx, slog.LevelDebug, "using generated recommendation", slog.Int("length", len(text)))
	return generatedBundle(text, state, prediction)
}

func (c *Composer) generate(ctx context.Context, prompt string) (text string, err error) {
	ctx, cancel := context.WithTimeout(ctx, c.opts.GenerationTimeout)
	defer cancel()
	defer func() {
		if excp := recover(); excp != nil {
			err = errors.DecoratePanic(excp)
		}
	}()
	start := time.Now()
	text, err = c.generator.Generate(ctx, prompt, c.opts.MaxTokens, *c.opts.Temperature)
	if err != nil {
		return "", errors.Wrap(err, "generate recommendation", slog.Duration("elapsed", time.Since(start)))
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", errors.Wrap(errEmptyGeneration, "generate recommendation")
	}
	return text, nil
}

func generatedBundle(text string, state UserState, prediction Prediction) Bundle {
	priority := PriorityMedium
	if state.MissedDays >= AtRiskMissedDays || state.SleepHours < lowSleepHours {
		priority = PriorityHigh
	}
	return Bundle{
		Title:      generatedTitle,
		MainAction: text,
		Tips: []string{
			fmt.Sprintf("ML Prediction: %s chance of completing workout tomorrow",
				percent(prediction.WorkoutProbability.Value, 0)),
			fmt.Sprintf("Predicted Energy Level: %.1f/10", prediction.PredictedEnergy.Value),
			generatedPatternTip,
		},
		Priority:            priority,
		Icon:                generatedIcon,
		PersonalizedMessage: text,
		AllRecommendations: []Card{{
			Category: generatedCardCategory,
			Priority: PriorityHigh,
			Action:   text,
			Tips:     []string{generatedCardTip},
			Icon:     generatedIcon,
		}},
		MLInsights:     insights(prediction),
		Source:         BundleGenerated,
		FallbackReason: "",
	}
}

// patterns are aggregates over the recent logs used by the rules.
type patterns struct {
	hasLogs            bool
	avgSleep           float64
	highStressFraction float64
	completionRate     float64
	completed          int
	weightEntries      int
}

func analyzePatterns(recentLogs []DailyLogEntry) patterns {
	p := patterns{
		hasLogs:            len(recentLogs) > 0,
		avgSleep:           defaultAvgSleepHours,
		highStressFraction: 0,
		completionRate:     0,
		completed:          0,
		weightEntries:      0,
	}
	if !p.hasLogs {
		return p
	}
	var sleep float64
	var highStress int
	for _, entry := range recentLogs {
		sleep += entry.SleepHours
		if entry.StressLevel.Normalize() == LevelHigh {
			highStress++
		}
		if !entry.MissedWorkout {
			p.completed++
		}
		if entry.Weight != nil && *entry.Weight != 0 {
			p.weightEntries++
		}
	}
	n := float64(len(recentLogs))
	p.avgSleep = sleep / n
	p.highStressFraction = float64(highStress) / n
	p.completionRate = float64(p.completed) / n
	return p
}

// RuleCards evaluates the recommendation rules in their fixed order. At least one card is always returned.
func RuleCards(state UserState, recentLogs []DailyLogEntry, profile *UserProfile, prediction Prediction) []Card {
	var (
		pat      = analyzePatterns(recentLogs)
		prob     = prediction.WorkoutProbability.Value
		energy   = prediction.PredictedEnergy.Value
		stress   = state.Stress.Normalize()
		cards    []Card
		schedule = "Schedule your workout at a specific time"
		startLow = "Start with just 15-20 minutes if motivation is low"
		enjoy    = "Choose activities you enjoy"
	)

	if prob < lowWorkoutProbability {
		cards = append(cards, Card{
			Category: "Workout Motivation",
			Priority: PriorityHigh,
			Action:   fmt.Sprintf("ML predicts %s completion chance. Let's boost this!", percent(prob, 0)),
			Tips: []string{
				schedule,
				startLow,
				enjoy,
				fmt.Sprintf("Your predicted energy tomorrow: %.1f/10", energy),
			},
			Icon: "dumbbell",
		})
	}

	if state.SleepHours < lowSleepHours || pat.avgSleep < lowAverageSleepHours {
		cards = append(cards, Card{
			Category: "Sleep Improvement",
			Priority: PriorityHigh,
			Action:   "Aim for 7-9 hours of quality sleep tonight",
			Tips: []string{
				"Create a bedtime routine 1 hour before sleep",
				"Avoid screens and blue light 30 minutes before bed",
				"Keep your bedroom cool and dark",
				"Try meditation or deep breathing exercises",
			},
			Icon: "bed",
		})
	}

	if stress == LevelHigh || pat.highStressFraction > highStressFraction {
		cards = append(cards, Card{
			Category: "Stress Management",
			Priority: PriorityHigh,
			Action:   "Focus on stress reduction activities tomorrow",
			Tips: []string{
				"Start your day with 10 minutes of meditation",
				"Take 3-5 minute breaks every hour for deep breathing",
				"Consider a gentle yoga or stretching session",
				"Spend time in nature or go for a peaceful walk",
			},
			Icon: "heartbeat",
		})
	}

	if state.MissedDays >= AtRiskMissedDays || (pat.hasLogs && pat.completionRate < lowCompletionRate) {
		cards = append(cards, Card{
			Category: "Workout Consistency",
			Priority: PriorityMedium,
			Action:   "Commit to completing your workout tomorrow",
			Tips: []string{
				schedule,
				startLow,
				enjoy,
				"Find an accountability partner or use the app's reminders",
			},
			Icon: "dumbbell",
		})
	}

	if state.Energy.Normalize() == LevelLow || energy < lowPredictedEnergy {
		cards = append(cards, Card{
			Category: "Energy Boost",
			Priority: PriorityMedium,
			Action: fmt.Sprintf("ML predicts energy at %.1f/10. "+
				"Focus on activities that naturally boost your energy", energy),
			Tips: []string{
				"Take a brisk 10-minute walk in the morning sunlight",
				"Stay hydrated - aim for 8-10 glasses of water",
				"Eat small, balanced meals throughout the day",
				"Listen to uplifting music or podcasts",
			},
			Icon: "battery-half",
		})
	}

	if profile != nil && isWeightGoal(profile.Goal) && pat.weightEntries >= minWeightEntries {
		cards = append(cards, Card{
			Category: "Goal Progress",
			Priority: PriorityLow,
			Action:   "Continue tracking your progress",
			Tips: []string{
				"Maintain a calorie deficit through balanced nutrition",
				"Combine cardio and strength training",
				"Track your meals to ensure you're on target",
				"Be patient - sustainable weight loss takes time",
			},
			Icon: "target",
		})
	}

	if len(cards) == 0 {
		cards = append(cards, Card{
			Category: "Maintain Momentum",
			Priority: PriorityLow,
			Action:   "Keep up the excellent work! Continue your current routine",
			Tips: []string{
				"Maintain your current sleep schedule",
				"Keep your workout routine consistent",
				"Stay hydrated and eat balanced meals",
				"Consider trying a new exercise to keep things interesting",
			},
			Icon: "trophy",
		})
	}

	return cards
}

func isWeightGoal(goal string) bool {
	goal = strings.ToLower(goal)
	return strings.Contains(goal, "weight") || strings.Contains(goal, "lose")
}

// Headline returns the index of the card with the highest priority rank. Among equal ranks the earliest card wins.
// It returns -1 for an empty slice.
func Headline(cards []Card) int {
	best := -1
	for i, card := range cards {
		if best == -1 || card.Priority.Rank() > cards[best].Priority.Rank() {
			best = i
		}
	}
	return best
}

// PersonalizedMessage picks the one-line message. It is chosen independently of the headline card, so the two may
// describe different concerns.
func PersonalizedMessage(state UserState, recentLogs []DailyLogEntry, prediction Prediction) string {
	pat := analyzePatterns(recentLogs)
	energy := prediction.PredictedEnergy.Value
	switch {
	case state.Stress.Normalize() == LevelHigh ||
		(pat.highStressFraction > highStressFraction && state.SleepHours < lowSleepHours):
		return "Your check-in shows you're experiencing high stress and low sleep. " +
			"Here's what we recommend doing next to improve your wellness."
	case state.SleepHours < lowSleepHours || pat.avgSleep < lowAverageSleepHours:
		return "Your sleep patterns need attention. Based on your latest check-in, " +
			"here's what you should focus on next to improve your rest and recovery."
	case state.MissedDays >= AtRiskMissedDays:
		return "We noticed you've missed several workouts. " +
			"Here's what we recommend doing next to get back on track with your fitness goals."
	case state.Energy.Normalize() == LevelLow || energy < lowPredictedEnergy:
		return fmt.Sprintf("Your energy levels are low (ML predicts %.1f/10 tomorrow). "+
			"Based on your latest check-in analysis, "+
			"here's what you should do next to boost your energy naturally.", energy)
	default:
		return "Great progress! Based on your latest check-in analysis, " +
			"here's what we recommend doing next to continue improving your health and fitness."
	}
}

func (c *Composer) ruleBased(
	state UserState, recentLogs []DailyLogEntry, profile *UserProfile, prediction Prediction) Bundle {
	cards := RuleCards(state, recentLogs, profile, prediction)
	headline := cards[Headline(cards)]
	return Bundle{
		Title:               headline.Category,
		MainAction:          headline.Action,
		Tips:                headline.Tips,
		Priority:            headline.Priority,
		Icon:                headline.Icon,
		PersonalizedMessage: PersonalizedMessage(state, recentLogs, prediction),
		AllRecommendations:  cards,
		MLInsights:          insights(prediction),
		Source:              BundleRuleBased,
		FallbackReason:      "",
	}
}

func insights(prediction Prediction) Insights {
	return Insights{
		WorkoutProbability: prediction.WorkoutProbability.Value,
		PredictedEnergy:    prediction.PredictedEnergy.Value,
	}
}

// BuildPrompt renders the user prompt sent to the text generator.
func BuildPrompt(state UserState, recentLogs []DailyLogEntry, profile *UserProfile, prediction Prediction) string {
	var b strings.Builder

	age, activity, goal := "N/A", "N/A", "N/A"
	if profile != nil {
		if profile.Age != nil {
			age = strconv.Itoa(*profile.Age)
		}
		if profile.ActivityLevel != "" {
			activity = string(profile.ActivityLevel)
		}
		if profile.Goal != "" {
			goal = profile.Goal
		}
	}

	fmt.Fprintf(&b, "User Profile:\n- Age: %s\n- Activity Level: %s\n- Goal: %s\n\n", age, activity, goal)
	fmt.Fprintf(&b, "Current State:\n- Stress Level: %s\n- Sleep Hours: %s\n- Energy Level: %s\n"+
		"- Missed Workouts (last 30 days): %d\n\n",
		state.Stress.Normalize(), strconv.FormatFloat(state.SleepHours, 'f', -1, 64),
		state.Energy.Normalize(), state.MissedDays)
	fmt.Fprintf(&b, "ML Predictions:\n- Workout Completion Probability: %s\n"+
		"- Predicted Tomorrow's Energy: %.1f/10\n\n",
		percent(prediction.WorkoutProbability.Value, 1), prediction.PredictedEnergy.Value)
	fmt.Fprintf(&b, "Recent Patterns (last %d days):\n", len(recentLogs))

	if pat := analyzePatterns(recentLogs); pat.hasLogs {
		fmt.Fprintf(&b, "- Average Sleep: %.1f hours\n", pat.avgSleep)
		fmt.Fprintf(&b, "- Workouts Completed: %d/%d\n", pat.completed, len(recentLogs))
	}

	b.WriteString(`
Based on this information, provide a personalized fitness and wellness recommendation for tomorrow.
Include:
1. A specific action to take
2. 3-4 practical tips
3. Priority level (high/medium/low)
4. A motivational message

Format your response as a brief, actionable recommendation.`)

	return b.String()
}

func percent(v float64, decimals int) string {
	return strconv.FormatFloat(v*100, 'f', decimals, 64) + "%" //nolint:mnd // percent
}
