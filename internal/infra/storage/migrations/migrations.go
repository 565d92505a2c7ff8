package migrations

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/m04kA/SMC-FacilityBookingService/pkg/dbmetrics"
)

//go:embed *.sql
var fs embed.FS

var ErrMigrate = errors.New("migrations: failed to apply")

// Files имена миграций в порядке применения
func Files() ([]string, error) {
	entries, err := fs.ReadDir(".")
	if err != nil {
		return nil, err
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		files = append(files, e.Name())
	}
	sort.Strings(files)
	return files, nil
}

// Up применяет ещё не применённые миграции, возвращает их имена
func Up(ctx context.Context, db dbmetrics.DBExecutor) ([]string, error) {
	files, err := Files()
	if err != nil {
		return nil, fmt.Errorf("%w: read embedded files: %v", ErrMigrate, err)
	}

	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (version TEXT PRIMARY KEY)`); err != nil {
		return nil, fmt.Errorf("%w: create schema_migrations: %v", ErrMigrate, err)
	}

	var applied []string
	for _, f := range files {
		var exists bool
		if err := db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version=$1)`, f).Scan(&exists); err != nil {
			return applied, fmt.Errorf("%w: check %s: %v", ErrMigrate, f, err)
		}
		if exists {
			continue
		}

		b, err := fs.ReadFile(f)
		if err != nil {
			return applied, fmt.Errorf("%w: read %s: %v", ErrMigrate, f, err)
		}

		if _, err := db.ExecContext(ctx, string(b)); err != nil {
			return applied, fmt.Errorf("%w: apply %s: %v", ErrMigrate, f, err)
		}
		if _, err := db.ExecContext(ctx, `INSERT INTO schema_migrations(version) VALUES ($1)`, f); err != nil {
			return applied, fmt.Errorf("%w: record %s: %v", ErrMigrate, f, err)
		}
		applied = append(applied, f)
	}

	return applied, nil
}
