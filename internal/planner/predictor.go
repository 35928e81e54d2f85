package planner

import (
	"context"
	"log/slog"
	"math"

	"github.com/myrjola/wellplan/internal/errors"
	"github.com/myrjola/wellplan/internal/logging"
)

// ModelKind names the target a fitted model predicts.
type ModelKind string

const (
	// ModelWorkoutCompletion outputs the probability of completing tomorrow's workout.
	ModelWorkoutCompletion ModelKind = "workout_completion"
	// ModelEnergy outputs tomorrow's energy on a 0-10 scale.
	ModelEnergy ModelKind = "energy"
)

var (
	// ErrModelNotFound is returned by a ModelStore when no model of the requested kind has been fitted.
	ErrModelNotFound = errors.NewSentinel("model not found")
	// ErrShapeMismatch is returned by a Model when the feature vector does not have the shape it was fitted on.
	ErrShapeMismatch = errors.NewSentinel("feature vector shape mismatch")
	errNotFinite     = errors.NewSentinel("model output is not a finite number")
)

// Model is a fitted statistical model. Implementations must be safe for concurrent use.
type Model interface {
	Predict(features FeatureVector) (float64, error)
}

// ModelStore loads fitted models.
type ModelStore interface {
	LoadModel(ctx context.Context, kind ModelKind) (Model, error)
}

// Fallback heuristic constants.
const (
	fallbackBaseTenths     = 7
	fallbackGoodSleepHours = 7.0
	fallbackMaxMissedDays  = 2
	maxEnergy              = 10.0
)

// Predictor estimates workout completion probability and next day energy.
//
// A Predictor is immutable after construction and safe for concurrent use. Either model may be nil, in which case the
// closed-form fallback is used for that target.
type Predictor struct {
	workout Model
	energy  Model
	logger  *slog.Logger
}

// NewPredictor creates a predictor from already loaded models. A nil logger discards logs.
func NewPredictor(workout, energy Model, logger *slog.Logger) *Predictor {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Predictor{
		workout: workout,
		energy:  energy,
		logger:  logger,
	}
}

// LoadPredictor loads both models from store. A missing model is normal and leaves that target on the fallback.
// Other load failures are logged and also leave the target on the fallback, so LoadPredictor never fails.
func LoadPredictor(ctx context.Context, store ModelStore, logger *slog.Logger) *Predictor {
	if logger == nil {
		logger = logging.Discard()
	}
	if store == nil {
		return NewPredictor(nil, nil, logger)
	}
	load := func(kind ModelKind) Model {
		m, err := store.LoadModel(ctx, kind)
		switch {
		case err == nil:
			logger.LogAttrs(ctx, slog.LevelDebug, "loaded model", slog.String("kind", string(kind)))
			return m
		case errors.Is(err, ErrModelNotFound):
			logger.LogAttrs(ctx, slog.LevelDebug, "no fitted model", slog.String("kind", string(kind)))
		default:
			logger.LogAttrs(ctx, slog.LevelWarn, "load model failed",
				slog.String("kind", string(kind)), errors.SlogError(err))
		}
		return nil
	}
	return NewPredictor(load(ModelWorkoutCompletion), load(ModelEnergy), logger)
}

// Predict estimates both targets.
func (p *Predictor) Predict(
	ctx context.Context, state UserState, recentLogs []DailyLogEntry, profile *UserProfile) Prediction {
	features := ExtractFeatures(state, recentLogs, profile)
	return Prediction{
		WorkoutProbability: p.estimate(ctx, ModelWorkoutCompletion, p.workout, features, 1,
			func() float64 { return FallbackWorkoutProbability(state) }),
		PredictedEnergy: p.estimate(ctx, ModelEnergy, p.energy, features, maxEnergy,
			func() float64 { return FallbackEnergy(state) }),
	}
}

// PredictWorkoutProbability returns the probability in [0,1] of completing tomorrow's workout.
func (p *Predictor) PredictWorkoutProbability(
	ctx context.Context, state UserState, recentLogs []DailyLogEntry, profile *UserProfile) Estimate {
	features := ExtractFeatures(state, recentLogs, profile)
	return p.estimate(ctx, ModelWorkoutCompletion, p.workout, features, 1,
		func() float64 { return FallbackWorkoutProbability(state) })
}

// PredictEnergy returns tomorrow's energy in [0,10].
func (p *Predictor) PredictEnergy(
	ctx context.Context, state UserState, recentLogs []DailyLogEntry, profile *UserProfile) Estimate {
	features := ExtractFeatures(state, recentLogs, profile)
	return p.estimate(ctx, ModelEnergy, p.energy, features, maxEnergy,
		func() float64 { return FallbackEnergy(state) })
}

// Train is reserved for fitting models from history. It does nothing; fitted parameters are imported through the
// model store instead.
func (p *Predictor) Train(_ context.Context, _ []DailyLogEntry) error {
	return nil
}

func (p *Predictor) estimate(
	ctx context.Context,
	kind ModelKind,
	model Model,
	features FeatureVector,
	upper float64,
	fallback func() float64,
) Estimate {
	if model == nil {
		return Estimate{Value: clamp(fallback(), 0, upper), Source: SourceFallback, Reason: ""}
	}
	v, err := safePredict(model, features)
	if err != nil {
		p.logger.LogAttrs(ctx, slog.LevelWarn, "model prediction failed, using fallback",
			slog.String("kind", string(kind)), errors.SlogError(err))
		return Estimate{Value: clamp(fallback(), 0, upper), Source: SourceFallback, Reason: err.Error()}
	}
	return Estimate{Value: clamp(v, 0, upper), Source: SourceModel, Reason: ""}
}

// safePredict turns panics and non-finite outputs into errors.
func safePredict(model Model, features FeatureVector) (v float64, err error) {
	defer func() {
		if excp := recover(); excp != nil {
			err = errors.DecoratePanic(excp)
		}
	}()
	if v, err = model.Predict(features); err != nil {
		return 0, errors.Wrap(err, "model predict")
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errors.Wrap(errNotFinite, "model predict", slog.Float64("value", v))
	}
	return v, nil
}

// FallbackWorkoutProbability is the closed-form workout probability used when no model is usable.
// The sum is kept in tenths so that the maximum is exactly 1.
func FallbackWorkoutProbability(state UserState) float64 {
	tenths := fallbackBaseTenths
	if state.SleepHours >= fallbackGoodSleepHours {
		tenths++
	}
	if state.Stress.Normalize() == LevelLow {
		tenths++
	}
	if state.MissedDays < fallbackMaxMissedDays {
		tenths++
	}
	return math.Min(1, float64(tenths)/10) //nolint:mnd // tenths
}

// FallbackEnergy is the closed-form energy estimate used when no model is usable.
func FallbackEnergy(state UserState) float64 {
	//nolint:mnd // (sleep/10)*5 + (2-stress)*2.5
	energy := (state.SleepHours/10)*5 + float64(2-state.Stress.Ordinal())*2.5
	return clamp(energy, 0, maxEnergy)
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}
