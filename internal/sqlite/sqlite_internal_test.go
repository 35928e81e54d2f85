package sqlite

import (
	"path/filepath"
	"testing"

	"github.com/myrjola/wellplan/internal/testhelpers"
)

func TestNewDatabase(t *testing.T) {
	tests := []struct {
		name string
		url  func(t *testing.T) string
	}{
		{name: "in memory", url: func(*testing.T) string { return ":memory:" }},
		{name: "file", url: func(t *testing.T) string { return filepath.Join(t.TempDir(), "wellplan.sqlite3") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := t.Context()
			logger := testhelpers.NewLogger(testhelpers.NewWriter(t))
			db, err := NewDatabase(ctx, tt.url(t), logger)
			if err != nil {
				t.Fatalf("NewDatabase() error = %v", err)
			}
			defer func() {
				if err = db.Close(); err != nil {
					t.Errorf("Close() error = %v", err)
				}
			}()

			if _, err = db.ReadWrite.ExecContext(ctx,
				`INSERT INTO models (kind, weights, intercept, trained_at) VALUES ('energy', '[1,2]', 0.5, '2026-10-01T00:00:00Z')`,
			); err != nil {
				t.Fatalf("insert model: %v", err)
			}

			var count int
			if err = db.ReadOnly.QueryRowContext(ctx, "SELECT COUNT(*) FROM models").Scan(&count); err != nil {
				t.Fatalf("count models: %v", err)
			}
			if count != 1 {
				t.Errorf("read-only connection sees %d models, want 1", count)
			}

			if _, err = db.ReadOnly.ExecContext(ctx, "DELETE FROM models"); err == nil {
				t.Error("read-only connection accepted a write")
			}
		})
	}
}

func TestNewDatabase_schemaConstraints(t *testing.T) {
	ctx := t.Context()
	db, err := NewDatabase(ctx, ":memory:", testhelpers.NewLogger(testhelpers.NewWriter(t)))
	if err != nil {
		t.Fatalf("NewDatabase() error = %v", err)
	}
	defer db.Close()

	bad := []string{
		`INSERT INTO models (kind, weights, intercept, trained_at) VALUES ('mood', '[1]', 0, '2026-10-01T00:00:00Z')`,
		`INSERT INTO models (kind, weights, intercept, trained_at) VALUES ('energy', '{"a":1}', 0, '2026-10-01T00:00:00Z')`,
		`INSERT INTO models (kind, weights, intercept, trained_at) VALUES ('energy', 'not json', 0, '2026-10-01T00:00:00Z')`,
		`INSERT INTO models (kind, weights, intercept, trained_at) VALUES ('energy', '[1]', 0, 'yesterday')`,
	}
	for _, query := range bad {
		if _, err = db.ReadWrite.ExecContext(ctx, query); err == nil {
			t.Errorf("expected constraint violation for %s", query)
		}
	}
}

func TestNewDatabase_reopenKeepsData(t *testing.T) {
	ctx := t.Context()
	url := filepath.Join(t.TempDir(), "wellplan.sqlite3")
	logger := testhelpers.NewLogger(testhelpers.NewWriter(t))

	db, err := NewDatabase(ctx, url, logger)
	if err != nil {
		t.Fatalf("NewDatabase() error = %v", err)
	}
	if _, err = db.ReadWrite.ExecContext(ctx,
		`INSERT INTO models (kind, weights, intercept, trained_at) VALUES ('energy', '[1]', 0, '2026-10-01T00:00:00Z')`,
	); err != nil {
		t.Fatalf("insert model: %v", err)
	}
	if err = db.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if db, err = NewDatabase(ctx, url, logger); err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer db.Close()
	var kind string
	if err = db.ReadOnly.QueryRowContext(ctx, "SELECT kind FROM models").Scan(&kind); err != nil {
		t.Fatalf("select after reopen: %v", err)
	}
	if kind != "energy" {
		t.Errorf("kind = %q, want energy", kind)
	}
}
