package main

import (
	"context"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"

	"github.com/myrjola/wellplan/internal/envstruct"
	"github.com/myrjola/wellplan/internal/errors"
	"github.com/myrjola/wellplan/internal/logging"
	"github.com/myrjola/wellplan/internal/modelstore"
	"github.com/myrjola/wellplan/internal/planner"
	"github.com/myrjola/wellplan/internal/ptr"
	"github.com/myrjola/wellplan/internal/sqlite"
	"github.com/myrjola/wellplan/internal/textgen"
)

type config struct {
	// OpenAIAPIKey enables generated recommendation text. Without it the rule-based recommendations are used.
	OpenAIAPIKey string `env:"OPENAI_API_KEY" envDefault:""`
	// OpenAIModel is the chat completion model.
	OpenAIModel string `env:"WELLPLAN_OPENAI_MODEL" envDefault:"gpt-4o-mini"`
	// OpenAIBaseURL overrides the API endpoint. Empty uses the SDK default.
	OpenAIBaseURL string `env:"WELLPLAN_OPENAI_BASE_URL" envDefault:""`
	// GenerationTimeout bounds a single text generation call.
	GenerationTimeout time.Duration `env:"WELLPLAN_GENERATION_TIMEOUT" envDefault:"8s"`
	// RecoverySleepHours is the sleep below which the user gets a recovery routine.
	RecoverySleepHours float64 `env:"WELLPLAN_RECOVERY_SLEEP_HOURS" envDefault:"5"`
	// SqliteURL is the model store. Empty means no fitted models and the predictor uses its fallback formulas.
	SqliteURL string `env:"WELLPLAN_SQLITE_URL" envDefault:""`
	LogLevel  string `env:"WELLPLAN_LOG_LEVEL" envDefault:"info"`
}

type application struct {
	cfg       config
	logger    *slog.Logger
	lookupEnv func(string) (string, bool)
	stdout    io.Writer
	stderr    io.Writer
}

var errNoModelStore = errors.NewSentinel("WELLPLAN_SQLITE_URL is not set")

// configure populates the config and logger. It runs before every command.
func (app *application) configure() error {
	if err := envstruct.Populate(&app.cfg, app.lookupEnv); err != nil {
		return errors.Wrap(err, "populate config")
	}
	level, err := logging.ParseLevel(app.cfg.LogLevel)
	if err != nil {
		return errors.Wrap(err, "parse log level")
	}
	app.logger = logging.NewLogger(app.stderr, level)
	return nil
}

func (app *application) planOptions() planner.Options {
	return planner.Options{ //nolint:exhaustruct // the remaining options use their defaults.
		RecoverySleepHours: ptr.Ref(app.cfg.RecoverySleepHours),
		GenerationTimeout:  app.cfg.GenerationTimeout,
	}
}

// openStore opens the model store. The returned close function is never nil.
func (app *application) openStore(ctx context.Context) (*modelstore.Store, func(), error) {
	if app.cfg.SqliteURL == "" {
		return nil, func() {}, errNoModelStore
	}
	db, err := sqlite.NewDatabase(ctx, app.cfg.SqliteURL, app.logger)
	if err != nil {
		return nil, func() {}, errors.Wrap(err, "open db", slog.String("url", app.cfg.SqliteURL))
	}
	closeDB := func() {
		if err = db.Close(); err != nil {
			app.logger.LogAttrs(ctx, slog.LevelWarn, "failed to close db", errors.SlogError(err))
		}
	}
	return modelstore.New(db), closeDB, nil
}

// newPlanner wires the planner with its collaborators. Without a model store the predictor runs in fallback mode.
func (app *application) newPlanner(ctx context.Context) (*planner.Planner, func(), error) {
	var (
		store   planner.ModelStore
		closeDB = func() {}
	)
	if app.cfg.SqliteURL != "" {
		s, closeStore, err := app.openStore(ctx)
		if err != nil {
			return nil, closeDB, err
		}
		store, closeDB = s, closeStore
	}

	opts := app.planOptions()
	generator := textgen.New(textgen.Config{ //nolint:exhaustruct // default system prompt and HTTP client.
		APIKey:         app.cfg.OpenAIAPIKey,
		Model:          app.cfg.OpenAIModel,
		BaseURL:        app.cfg.OpenAIBaseURL,
		RequestTimeout: app.cfg.GenerationTimeout,
	}, app.logger)

	return planner.New(
		planner.LoadPredictor(ctx, store, app.logger),
		planner.NewComposer(generator, opts, app.logger),
		opts,
		app.logger,
	), closeDB, nil
}

func run(ctx context.Context, args []string, lookupEnv func(string) (string, bool), stdout, stderr io.Writer) error {
	app := &application{
		cfg:       config{}, //nolint:exhaustruct // populated in configure.
		logger:    logging.Discard(),
		lookupEnv: lookupEnv,
		stdout:    stdout,
		stderr:    stderr,
	}
	cmd := app.rootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	return cmd.ExecuteContext(ctx) //nolint:wrapcheck // returned to main as is.
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	// The .env file is optional.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logging.NewLogger(os.Stderr, slog.LevelInfo).LogAttrs(ctx, slog.LevelError, "failed to load .env", errors.SlogError(err))
		os.Exit(1) //nolint:gocritic // cancel has nothing to release yet.
	}

	if err := run(ctx, os.Args[1:], os.LookupEnv, os.Stdout, os.Stderr); err != nil {
		logging.NewLogger(os.Stderr, slog.LevelInfo).LogAttrs(ctx, slog.LevelError, "command failed", errors.SlogError(err))
		cancel()
		os.Exit(1)
	}
}
