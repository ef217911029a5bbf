package migration

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/pressly/goose/v3"
	"go.uber.org/fx"
	"go.uber.org/zap"

	migrations "github.com/Additional-Code/bistro/db/migrations"
	"github.com/Additional-Code/bistro/internal/config"
	"github.com/Additional-Code/bistro/internal/database"
)

// Module provides the Migrator.
var Module = fx.Provide(New)

// Migrator applies the schema with goose, either from a directory on disk or
// from the migrations compiled into the binary.
type Migrator struct {
	db     *sql.DB
	fsys   fs.FS
	dir    string
	logger *zap.Logger
}

// Status describes one known migration.
type Status struct {
	Version int64
	Source  string
	Applied bool
}

// New constructs a goose-backed migrator for the configured driver.
func New(cfg config.Config, conns *database.Connections, logger *zap.Logger) (*Migrator, error) {
	dialect, err := gooseDialect(cfg.Database.Driver)
	if err != nil {
		return nil, err
	}
	if err := goose.SetDialect(dialect); err != nil {
		return nil, err
	}

	m := &Migrator{db: conns.Writer.DB, logger: logger}
	if cfg.Database.MigrationsDir == "" {
		m.fsys, m.dir = migrations.FS, migrations.Dir(dialect)
	} else {
		m.dir = cfg.Database.MigrationsDir
	}
	return m, nil
}

// Up applies all pending migrations.
func (m *Migrator) Up(ctx context.Context) error {
	err := m.run(func() error { return goose.UpContext(ctx, m.db, m.dir) })
	if isNoMigrationErr(err) {
		m.logger.Info("no migrations to apply")
		return nil
	}
	if err != nil {
		return err
	}

	m.logger.Info("migrations applied", zap.String("source", m.source()))
	return nil
}

// Down rolls back migrations. Steps <=0 defaults to 1; all=true rolls everything back.
func (m *Migrator) Down(ctx context.Context, steps int, all bool) error {
	if steps <= 0 {
		steps = 1
	}

	err := m.run(func() error {
		if all {
			return goose.DownToContext(ctx, m.db, m.dir, 0)
		}
		for i := 0; i < steps; i++ {
			if err := goose.DownContext(ctx, m.db, m.dir); err != nil {
				return err
			}
		}
		return nil
	})
	if isNoMigrationErr(err) {
		m.logger.Info("no migrations to rollback")
		return nil
	}
	if err != nil {
		return err
	}

	if all {
		m.logger.Info("migrations rolled back", zap.String("mode", "all"))
	} else {
		m.logger.Info("migrations rolled back", zap.Int("steps", steps))
	}
	return nil
}

// Version reports the currently applied schema version.
func (m *Migrator) Version(ctx context.Context) (int64, error) {
	return goose.GetDBVersionContext(ctx, m.db)
}

// Status lists every known migration and whether it has been applied.
func (m *Migrator) Status(ctx context.Context) ([]Status, error) {
	current, err := m.Version(ctx)
	if err != nil {
		return nil, err
	}

	var known goose.Migrations
	err = m.run(func() error {
		var collectErr error
		known, collectErr = goose.CollectMigrations(m.dir, 0, goose.MaxVersion)
		return collectErr
	})
	if err != nil && !isNoMigrationErr(err) {
		return nil, err
	}

	out := make([]Status, 0, len(known))
	for _, mig := range known {
		out = append(out, Status{Version: mig.Version, Source: mig.Source, Applied: mig.Version <= current})
	}
	return out, nil
}

// run executes op with goose pointed at this migrator's file system.
func (m *Migrator) run(op func() error) error {
	goose.SetBaseFS(m.fsys)
	defer goose.SetBaseFS(nil)
	return op()
}

func (m *Migrator) source() string {
	if m.fsys != nil {
		return "embedded"
	}
	return m.dir
}

func gooseDialect(driver string) (string, error) {
	switch driver {
	case "postgres", "pg":
		return "postgres", nil
	case "mysql":
		return "mysql", nil
	case "sqlite", "sqlite3":
		return "sqlite3", nil
	default:
		return "", fmt.Errorf("unsupported goose dialect for driver %s", driver)
	}
}

func isNoMigrationErr(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, goose.ErrNoNextVersion) || errors.Is(err, goose.ErrNoCurrentVersion) || errors.Is(err, goose.ErrNoMigrationFiles) {
		return true
	}
	return strings.Contains(err.Error(), "no migrations")
}
