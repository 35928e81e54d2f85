// Package modelstore persists fitted linear model parameters in SQLite and serves them to the predictor.
package modelstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"math"
	"time"

	"github.com/myrjola/wellplan/internal/errors"
	"github.com/myrjola/wellplan/internal/planner"
	"github.com/myrjola/wellplan/internal/sqlite"
)

var (
	// ErrUnknownKind is returned when saving a model of a kind the predictor does not use.
	ErrUnknownKind = errors.NewSentinel("unknown model kind")
	// ErrInvalidModel is returned when saving a model with no or non-finite parameters.
	ErrInvalidModel = errors.NewSentinel("invalid model parameters")
)

// Fitted holds the parameters of one fitted model.
type Fitted struct {
	Kind      planner.ModelKind `json:"kind" yaml:"kind" validate:"required,oneof=workout_completion energy"`
	Weights   []float64         `json:"weights" yaml:"weights" validate:"required"`
	Intercept float64           `json:"intercept" yaml:"intercept"`
	TrainedAt time.Time         `json:"trained_at" yaml:"trained_at"`
	Note      string            `json:"note,omitempty" yaml:"note,omitempty"`
}

// Model returns the predictor model for the fitted parameters.
func (f Fitted) Model() LinearModel {
	return LinearModel{
		Weights:   f.Weights,
		Intercept: f.Intercept,
		Logistic:  f.Kind == planner.ModelWorkoutCompletion,
	}
}

// LinearModel is a linear predictor. With Logistic set the linear score is passed through the logistic function so
// the output is a probability.
type LinearModel struct {
	Weights   []float64
	Intercept float64
	Logistic  bool
}

// Predict implements [planner.Model].
func (m LinearModel) Predict(features planner.FeatureVector) (float64, error) {
	if len(features) != len(m.Weights) {
		return 0, errors.Wrap(planner.ErrShapeMismatch, "linear model",
			slog.Int("features", len(features)), slog.Int("weights", len(m.Weights)))
	}
	score := m.Intercept
	for i, w := range m.Weights {
		score += w * features[i]
	}
	if m.Logistic {
		return 1 / (1 + math.Exp(-score)), nil
	}
	return score, nil
}

// Store reads and writes fitted models.
type Store struct {
	db *sqlite.Database
}

// New creates a store on an open database.
func New(db *sqlite.Database) *Store {
	return &Store{db: db}
}

// LoadModel implements [planner.ModelStore]. It returns [planner.ErrModelNotFound] when the kind has not been saved.
func (s *Store) LoadModel(ctx context.Context, kind planner.ModelKind) (planner.Model, error) {
	row := s.db.ReadOnly.QueryRowContext(ctx,
		`SELECT kind, weights, intercept, trained_at, note FROM models WHERE kind = ?`, string(kind))
	fitted, err := scanFitted(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.Wrap(planner.ErrModelNotFound, "load model", slog.String("kind", string(kind)))
	}
	if err != nil {
		return nil, errors.Wrap(err, "load model", slog.String("kind", string(kind)))
	}
	return fitted.Model(), nil
}

// SaveModel inserts or replaces the model of f.Kind.
func (s *Store) SaveModel(ctx context.Context, f Fitted) error {
	if f.Kind != planner.ModelWorkoutCompletion && f.Kind != planner.ModelEnergy {
		return errors.Wrap(ErrUnknownKind, "save model", slog.String("kind", string(f.Kind)))
	}
	if len(f.Weights) == 0 || !finite(f.Intercept) {
		return errors.Wrap(ErrInvalidModel, "save model", slog.String("kind", string(f.Kind)))
	}
	for _, w := range f.Weights {
		if !finite(w) {
			return errors.Wrap(ErrInvalidModel, "save model", slog.String("kind", string(f.Kind)))
		}
	}
	weights, err := json.Marshal(f.Weights)
	if err != nil {
		return errors.Wrap(err, "marshal weights")
	}
	if f.TrainedAt.IsZero() {
		f.TrainedAt = time.Now()
	}

	if _, err = s.db.ReadWrite.ExecContext(ctx, `
		INSERT INTO models (kind, weights, intercept, trained_at, note)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (kind) DO UPDATE SET weights    = excluded.weights,
		                                 intercept  = excluded.intercept,
		                                 trained_at = excluded.trained_at,
		                                 note       = excluded.note`,
		string(f.Kind), string(weights), f.Intercept, f.TrainedAt.UTC().Format(time.RFC3339), f.Note,
	); err != nil {
		return errors.Wrap(err, "upsert model", slog.String("kind", string(f.Kind)))
	}
	return nil
}

// List returns all saved models ordered by kind.
func (s *Store) List(ctx context.Context) ([]Fitted, error) {
	rows, err := s.db.ReadOnly.QueryContext(ctx,
		`SELECT kind, weights, intercept, trained_at, note FROM models ORDER BY kind`)
	if err != nil {
		return nil, errors.Wrap(err, "query models")
	}
	defer rows.Close()

	var models []Fitted
	for rows.Next() {
		var f Fitted
		if f, err = scanFitted(rows); err != nil {
			return nil, errors.Wrap(err, "scan model")
		}
		models = append(models, f)
	}
	if err = rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate models")
	}
	return models, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanFitted(row scanner) (Fitted, error) {
	var (
		f         Fitted
		kind      string
		weights   string
		trainedAt string
	)
	if err := row.Scan(&kind, &weights, &f.Intercept, &trainedAt, &f.Note); err != nil {
		return Fitted{}, err //nolint:wrapcheck // callers check for sql.ErrNoRows and wrap
	}
	f.Kind = planner.ModelKind(kind)
	if err := json.Unmarshal([]byte(weights), &f.Weights); err != nil {
		return Fitted{}, errors.Wrap(err, "unmarshal weights", slog.String("kind", kind))
	}
	var err error
	if f.TrainedAt, err = time.Parse(time.RFC3339, trainedAt); err != nil {
		return Fitted{}, errors.Wrap(err, "parse trained_at", slog.String("kind", kind))
	}
	return f, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
