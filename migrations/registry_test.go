package migrations

import (
	"context"
	"database/sql"
	"io/fs"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	_ "github.com/mattn/go-sqlite3"

	dispatch "github.com/goliatone/go-webhook-dispatch"
)

func TestSources_ReturnsPostgresAndSQLite(t *testing.T) {
	sources, err := Sources(nil)
	if err != nil {
		t.Fatalf("sources: %v", err)
	}
	if len(sources) != 2 {
		t.Fatalf("expected 2 sources, got %d", len(sources))
	}
	if sources[0].Dialect != DialectPostgres || sources[1].Dialect != DialectSQLite {
		t.Fatalf("unexpected dialect order %q, %q", sources[0].Dialect, sources[1].Dialect)
	}
	for _, source := range sources {
		matches, globErr := fs.Glob(source.FS, "*.up.sql")
		if globErr != nil {
			t.Fatalf("glob %s: %v", source.Dialect, globErr)
		}
		if len(matches) != len(WebhookMigrations) {
			t.Fatalf("expected %d %s up migrations, got %v", len(WebhookMigrations), source.Dialect, matches)
		}
	}
}

func TestSources_RejectsTreeMissingAPair(t *testing.T) {
	root := fstest.MapFS{
		"data/sql/migrations/00001_webhooks.up.sql":          {Data: []byte("SELECT 1;")},
		"data/sql/migrations/00001_webhooks.down.sql":        {Data: []byte("SELECT 1;")},
		"data/sql/migrations/sqlite/00001_webhooks.up.sql":   {Data: []byte("SELECT 1;")},
		"data/sql/migrations/sqlite/00001_webhooks.down.sql": {Data: []byte("SELECT 1;")},
	}
	if _, err := Sources(root); err == nil || !strings.Contains(err.Error(), "00002_webhook_events") {
		t.Fatalf("expected missing webhook_events migration error, got %v", err)
	}
}

func TestRegister_SelectsDialects(t *testing.T) {
	var calls []string
	registered, err := Register(context.Background(), func(_ context.Context, dialect string, fsys fs.FS) error {
		if _, statErr := fs.Stat(fsys, "00001_webhooks.up.sql"); statErr != nil {
			return statErr
		}
		calls = append(calls, dialect)
		return nil
	}, WithDialects(" SQLite ", "sqlite"))
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if len(calls) != 1 || calls[0] != DialectSQLite {
		t.Fatalf("expected a single sqlite registration, got %v", calls)
	}
	if len(registered) != 1 || registered[0] != DialectSQLite {
		t.Fatalf("unexpected registered dialects %v", registered)
	}

	all, err := Register(context.Background(), func(context.Context, string, fs.FS) error { return nil })
	if err != nil {
		t.Fatalf("register all: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected both dialects by default, got %v", all)
	}
}

func TestRegister_RejectsBadInput(t *testing.T) {
	if _, err := Register(context.Background(), nil); err == nil {
		t.Fatalf("expected register function error")
	}
	noop := func(context.Context, string, fs.FS) error { return nil }
	if _, err := Register(context.Background(), noop, WithDialects("mysql")); err == nil {
		t.Fatalf("expected unsupported dialect error")
	}
	registered, err := Register(context.Background(), noop, WithDialects(" "), WithRoot(nil))
	if err != nil {
		t.Fatalf("expected blank overrides to be ignored, got %v", err)
	}
	if len(registered) != 2 {
		t.Fatalf("expected defaults to survive blank overrides, got %v", registered)
	}
}

func TestWebhookMigrationPairs_ExistForBothDialects(t *testing.T) {
	root := dispatch.GetMigrationsFS()
	names := []string{"00001_webhooks", "00002_webhook_events"}
	for _, name := range names {
		for _, prefix := range []string{"data/sql/migrations/", "data/sql/migrations/sqlite/"} {
			for _, suffix := range []string{".up.sql", ".down.sql"} {
				migrationPath := prefix + name + suffix
				content, err := fs.ReadFile(root, migrationPath)
				if err != nil {
					t.Fatalf("read migration %s: %v", migrationPath, err)
				}
				if strings.TrimSpace(string(content)) == "" {
					t.Fatalf("expected migration %s to have SQL content", migrationPath)
				}
			}
		}
	}
}

func TestSQLiteWebhookMigrations_ApplyAndRollback(t *testing.T) {
	db, err := sql.Open("sqlite3", "file:migrations-webhooks?mode=memory&cache=shared&_foreign_keys=on")
	if err != nil {
		t.Fatalf("open sqlite db: %v", err)
	}
	defer func() { _ = db.Close() }()
	db.SetMaxOpenConns(1)

	sqliteMigrations, err := fs.Sub(dispatch.GetMigrationsFS(), "data/sql/migrations/sqlite")
	if err != nil {
		t.Fatalf("resolve sqlite migrations: %v", err)
	}
	ctx := context.Background()
	for _, migration := range []string{"00001_webhooks.up.sql", "00002_webhook_events.up.sql"} {
		if err := execSQLMigration(ctx, db, sqliteMigrations, migration); err != nil {
			t.Fatalf("apply migration %s: %v", migration, err)
		}
	}

	if _, err := db.ExecContext(ctx,
		`INSERT INTO webhooks (id, user_id, url, event_types) VALUES (?, ?, ?, ?)`,
		"wh_1", "usr_1", "https://hooks.example/a", "PaymentCreated",
	); err != nil {
		t.Fatalf("insert webhook: %v", err)
	}
	var active int
	if err := db.QueryRowContext(ctx, `SELECT is_active FROM webhooks WHERE id = ?`, "wh_1").Scan(&active); err != nil {
		t.Fatalf("select webhook: %v", err)
	}
	if active != 1 {
		t.Fatalf("expected webhooks to default to active, got %d", active)
	}

	insertEvent := `INSERT INTO webhook_events (id, webhook_id, request_id, event_type, payload, occurred_at) VALUES (?, ?, ?, ?, ?, ?)`
	if _, err := db.ExecContext(ctx, insertEvent, "ev_1", "wh_1", "req_1", "PaymentCreated", "{}", "2026-01-01T00:00:00Z"); err != nil {
		t.Fatalf("insert webhook event: %v", err)
	}
	if _, err := db.ExecContext(ctx, insertEvent, "ev_2", "wh_1", "req_1", "PaymentCreated", "{}", "2026-01-01T00:00:00Z"); err == nil {
		t.Fatalf("expected request id uniqueness violation")
	}
	if _, err := db.ExecContext(ctx, insertEvent, "ev_3", "wh_missing", "req_3", "PaymentCreated", "{}", "2026-01-01T00:00:00Z"); err == nil {
		t.Fatalf("expected foreign key violation for unknown webhook")
	}

	for _, migration := range []string{"00002_webhook_events.down.sql", "00001_webhooks.down.sql"} {
		if err := execSQLMigration(ctx, db, sqliteMigrations, migration); err != nil {
			t.Fatalf("rollback migration %s: %v", migration, err)
		}
	}
	var count int
	if err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name IN ('webhooks', 'webhook_events')`,
	).Scan(&count); err != nil {
		t.Fatalf("count tables: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected tables to be dropped, got %d", count)
	}
}

func execSQLMigration(ctx context.Context, db *sql.DB, fsys fs.FS, filename string) error {
	content, err := fs.ReadFile(fsys, filepath.Clean(filename))
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, string(content))
	return err
}
