package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/myrjola/wellplan/internal/contexthelpers"
	"github.com/myrjola/wellplan/internal/errors"
	"github.com/myrjola/wellplan/internal/logging"
	"github.com/myrjola/wellplan/internal/modelstore"
	"github.com/myrjola/wellplan/internal/planner"
	"github.com/myrjola/wellplan/internal/program"
)

const defaultBatchConcurrency = 4

func (app *application) rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "planner",
		Short:         "Daily workout and wellness planner",
		Long:          "Decide today's workout plan and recommendations from a check-in and recent daily logs.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return app.configure()
		},
	}
	cmd.AddCommand(app.decideCmd(), app.batchCmd(), app.programCmd(), app.modelCmd())
	return cmd
}

func (app *application) decideCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "decide",
		Short: "Decide the plan for one check-in",
		Long:  "Read a request with state, optional recent_logs and optional profile, and print the plan decision as JSON.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var req request
			if err := decodeFile(file, cmd.InOrStdin(), &req); err != nil {
				return err
			}
			if err := validate(req); err != nil {
				return err
			}

			p, closeDB, err := app.newPlanner(cmd.Context())
			defer closeDB()
			if err != nil {
				return err
			}
			return app.writeJSON(app.decide(cmd.Context(), p, req))
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "-", "request file in YAML or JSON, - for stdin")
	return cmd
}

func (app *application) batchCmd() *cobra.Command {
	var (
		file        string
		concurrency int
	)
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Decide plans for a list of check-ins",
		Long:  "Read a list of requests and print the plan decisions as a JSON array in request order.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if concurrency < 1 {
				return fmt.Errorf("concurrency must be positive, got %d", concurrency)
			}
			var reqs []request
			if err := decodeFile(file, cmd.InOrStdin(), &reqs); err != nil {
				return err
			}
			for i, req := range reqs {
				if err := validate(req); err != nil {
					return errors.Wrap(err, "batch request", slog.Int("index", i))
				}
			}

			p, closeDB, err := app.newPlanner(cmd.Context())
			defer closeDB()
			if err != nil {
				return err
			}

			decisions := make([]planner.PlanDecision, len(reqs))
			g, ctx := errgroup.WithContext(cmd.Context())
			g.SetLimit(concurrency)
			for i, req := range reqs {
				g.Go(func() error {
					decisions[i] = app.decide(ctx, p, req)
					return nil
				})
			}
			if err = g.Wait(); err != nil {
				return errors.Wrap(err, "decide batch")
			}
			return app.writeJSON(decisions)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "-", "file with a list of requests in YAML or JSON, - for stdin")
	cmd.Flags().IntVar(&concurrency, "concurrency", defaultBatchConcurrency, "maximum number of decisions made at once")
	return cmd
}

// decide makes one decision with a request id and the user id attached to the context for logging.
func (app *application) decide(ctx context.Context, p *planner.Planner, req request) planner.PlanDecision {
	requestID := uuid.NewString()
	ctx = contexthelpers.WithRequestID(ctx, requestID)
	ctx = logging.WithAttrs(ctx, slog.String("request_id", requestID))
	if req.UserID != "" {
		ctx = logging.WithAttrs(ctx, slog.String("user_id", req.UserID))
	}
	return p.Decide(ctx, req.State, req.RecentLogs, req.Profile)
}

func (app *application) programCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "program TYPE LEVEL",
		Short: "Print a workout program template",
		Long: fmt.Sprintf("Print the workout program for a program type and a user level. Known types: %v. "+
			"Unknown types get the %s program.", program.Types(), program.DefaultType),
		Args: cobra.ExactArgs(2), //nolint:mnd // type and level
		RunE: func(_ *cobra.Command, args []string) error {
			level, err := strconv.Atoi(args[1])
			if err != nil {
				return errors.Wrap(err, "parse level", slog.String("level", args[1]))
			}
			return app.writeJSON(program.Get(args[0], level))
		},
	}
}

func (app *application) modelCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "model",
		Short: "Manage fitted prediction models",
	}
	cmd.AddCommand(app.modelImportCmd(), app.modelListCmd())
	return cmd
}

func (app *application) modelImportCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import fitted models into the model store",
		Long:  "Read a list of fitted models and save them. A model replaces any saved model of the same kind.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var models []modelstore.Fitted
			if err := decodeFile(file, cmd.InOrStdin(), &models); err != nil {
				return err
			}
			for i, m := range models {
				if err := validate(m); err != nil {
					return errors.Wrap(err, "model", slog.Int("index", i))
				}
			}

			store, closeDB, err := app.openStore(cmd.Context())
			defer closeDB()
			if err != nil {
				return err
			}
			for _, m := range models {
				if err = store.SaveModel(cmd.Context(), m); err != nil {
					return errors.Wrap(err, "save model")
				}
				app.logger.LogAttrs(cmd.Context(), slog.LevelInfo, "imported model",
					slog.String("kind", string(m.Kind)), slog.Int("weights", len(m.Weights)))
			}
			_, err = fmt.Fprintf(app.stdout, "imported %d models\n", len(models))
			return err //nolint:wrapcheck // write to stdout
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "-", "file with a list of fitted models in YAML or JSON, - for stdin")
	return cmd
}

func (app *application) modelListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the saved models",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, closeDB, err := app.openStore(cmd.Context())
			defer closeDB()
			if err != nil {
				return err
			}
			models, err := store.List(cmd.Context())
			if err != nil {
				return errors.Wrap(err, "list models")
			}
			if models == nil {
				models = []modelstore.Fitted{}
			}
			return app.writeJSON(models)
		},
	}
}

func (app *application) writeJSON(v any) error {
	enc := json.NewEncoder(app.stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return errors.Wrap(err, "encode output")
	}
	return nil
}
