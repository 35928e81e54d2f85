package sqlite

import (
	"context"
	"log/slog"
	"time"

	"github.com/myrjola/wellplan/internal/errors"
)

// optimize runs one of the optimize pragmas. The process is short-lived, so it runs on open and close instead of on
// a timer. See https://www.sqlite.org/pragma.html#pragma_optimize.
func (db *Database) optimize(ctx context.Context, pragma string) {
	start := time.Now()
	if _, err := db.ReadWrite.ExecContext(ctx, pragma); err != nil {
		err = errors.Wrap(err, "optimize database", slog.String("pragma", pragma))
		db.logger.LogAttrs(ctx, slog.LevelError, "failed to optimize database", errors.SlogError(err))
		return
	}
	db.logger.LogAttrs(ctx, slog.LevelDebug, "optimized database",
		slog.String("pragma", pragma), slog.Duration("duration", time.Since(start)))
}
