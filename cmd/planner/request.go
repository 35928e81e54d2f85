package main

import (
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/myrjola/wellplan/internal/errors"
	"github.com/myrjola/wellplan/internal/planner"
)

// request is one check-in to decide on. A missing recent_logs key means no history is known and no recommendation
// is made. An empty list means history is known to be empty.
type request struct {
	UserID     string                  `yaml:"user_id"`
	State      planner.UserState       `yaml:"state"`
	RecentLogs []planner.DailyLogEntry `yaml:"recent_logs" validate:"omitempty,dive"`
	Profile    *planner.UserProfile    `yaml:"profile"`
}

//nolint:gochecknoglobals // validator caches struct metadata and is safe for concurrent use.
var structValidator = sync.OnceValue(func() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
})

func validate(v any) error {
	if err := structValidator().Struct(v); err != nil {
		return errors.Wrap(err, "validate")
	}
	return nil
}

// decodeFile decodes a YAML or JSON document from path, or from stdin when path is "-". Unknown keys are rejected.
func decodeFile(path string, stdin io.Reader, v any) error {
	r := stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return errors.Wrap(err, "open file", slog.String("path", path))
		}
		defer f.Close()
		r = f
	}

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(v); err != nil {
		return errors.Wrap(err, "decode file", slog.String("path", path))
	}
	return nil
}
