package migrations

import (
	"context"
	"fmt"
	"io/fs"
	"slices"
	"strings"

	dispatch "github.com/goliatone/go-webhook-dispatch"
)

const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite"

	migrationsDir = "data/sql/migrations"
)

// WebhookMigrations lists the schema steps every dialect must ship, in
// apply order.
var WebhookMigrations = []string{
	"00001_webhooks",
	"00002_webhook_events",
}

// Source is the migration tree for one dialect.
type Source struct {
	Dialect string
	FS      fs.FS
}

type RegisterFunc func(ctx context.Context, dialect string, fsys fs.FS) error

type Option func(*registration)

type registration struct {
	root     fs.FS
	dialects []string
}

// WithDialects limits registration to the given dialects.
func WithDialects(dialects ...string) Option {
	return func(r *registration) {
		next := make([]string, 0, len(dialects))
		for _, dialect := range dialects {
			dialect = strings.TrimSpace(strings.ToLower(dialect))
			if dialect == "" || slices.Contains(next, dialect) {
				continue
			}
			next = append(next, dialect)
		}
		if len(next) > 0 {
			r.dialects = next
		}
	}
}

// WithRoot reads migrations from root instead of the embedded tree.
func WithRoot(root fs.FS) Option {
	return func(r *registration) {
		if root != nil {
			r.root = root
		}
	}
}

// Sources returns the postgres tree at data/sql/migrations and the sqlite
// tree below it, after checking both carry every webhook migration pair.
func Sources(root fs.FS) ([]Source, error) {
	if root == nil {
		root = dispatch.GetMigrationsFS()
	}
	postgresFS, err := fs.Sub(root, migrationsDir)
	if err != nil {
		return nil, fmt.Errorf("migrations: resolve %s: %w", migrationsDir, err)
	}
	sqliteFS, err := fs.Sub(postgresFS, DialectSQLite)
	if err != nil {
		return nil, fmt.Errorf("migrations: resolve sqlite tree: %w", err)
	}
	sources := []Source{
		{Dialect: DialectPostgres, FS: postgresFS},
		{Dialect: DialectSQLite, FS: sqliteFS},
	}
	for _, source := range sources {
		for _, name := range WebhookMigrations {
			for _, suffix := range []string{".up.sql", ".down.sql"} {
				if _, statErr := fs.Stat(source.FS, name+suffix); statErr != nil {
					return nil, fmt.Errorf("migrations: %s is missing %s%s: %w", source.Dialect, name, suffix, statErr)
				}
			}
		}
	}
	return sources, nil
}

// Register hands each selected dialect tree to registerFn and returns the
// dialects it registered.
func Register(ctx context.Context, registerFn RegisterFunc, opts ...Option) ([]string, error) {
	if registerFn == nil {
		return nil, fmt.Errorf("migrations: register function is required")
	}
	reg := registration{dialects: []string{DialectPostgres, DialectSQLite}}
	for _, opt := range opts {
		if opt != nil {
			opt(&reg)
		}
	}

	sources, err := Sources(reg.root)
	if err != nil {
		return nil, err
	}
	registered := make([]string, 0, len(reg.dialects))
	for _, dialect := range reg.dialects {
		idx := slices.IndexFunc(sources, func(source Source) bool { return source.Dialect == dialect })
		if idx < 0 {
			return registered, fmt.Errorf("migrations: unsupported dialect %q", dialect)
		}
		if err := registerFn(ctx, dialect, sources[idx].FS); err != nil {
			return registered, fmt.Errorf("migrations: register %s: %w", dialect, err)
		}
		registered = append(registered, dialect)
	}
	return registered, nil
}
