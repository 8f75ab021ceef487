package sqlitemigrate

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"
	_ "modernc.org/sqlite"
)

func openDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "migrate.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func count(t *testing.T, db *sql.DB, query string) int {
	t.Helper()
	var n int
	if err := db.QueryRow(query).Scan(&n); err != nil {
		t.Fatalf("query %q: %v", query, err)
	}
	return n
}

func TestApplyRunsInOrderOnce(t *testing.T) {
	db := openDB(t)
	migrations := fstest.MapFS{
		"002_seed.sql":   {Data: []byte("-- +migrate Up\nINSERT INTO items(id) VALUES ('a');\n-- +migrate Down\nDELETE FROM items;")},
		"001_create.sql": {Data: []byte("-- +migrate Up\nCREATE TABLE items(id TEXT PRIMARY KEY);")},
		"README.md":      {Data: []byte("ignored")},
	}

	applied, err := Apply(context.Background(), db, migrations, "")
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if diff := cmp.Diff([]string{"001_create.sql", "002_seed.sql"}, applied); diff != "" {
		t.Fatalf("applied mismatch (-want +got):\n%s", diff)
	}

	applied, err = Apply(context.Background(), db, migrations, "")
	if err != nil {
		t.Fatalf("re-apply: %v", err)
	}
	if len(applied) != 0 {
		t.Fatalf("re-apply ran %v", applied)
	}
	if n := count(t, db, "SELECT COUNT(*) FROM items"); n != 1 {
		t.Fatalf("items = %d, want 1", n)
	}
	if n := count(t, db, "SELECT COUNT(*) FROM schema_migrations"); n != 2 {
		t.Fatalf("migration rows = %d, want 2", n)
	}
}

func TestApplyWithRoot(t *testing.T) {
	db := openDB(t)
	migrations := fstest.MapFS{
		"sql/001_create.sql": {Data: []byte("CREATE TABLE things(id INTEGER);")},
	}
	applied, err := Apply(context.Background(), db, migrations, "sql")
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if diff := cmp.Diff([]string{"sql/001_create.sql"}, applied); diff != "" {
		t.Fatalf("applied mismatch (-want +got):\n%s", diff)
	}
}

func TestApplyFailureRollsBack(t *testing.T) {
	db := openDB(t)
	migrations := fstest.MapFS{
		"001_bad.sql": {Data: []byte("CREATE TABLE ok(id INTEGER); THIS IS NOT SQL;")},
	}
	if _, err := Apply(context.Background(), db, migrations, ""); err == nil {
		t.Fatal("expected migration error")
	}
	if n := count(t, db, "SELECT COUNT(*) FROM schema_migrations"); n != 0 {
		t.Fatalf("migration rows = %d, want 0", n)
	}
}

func TestApplyRequiresDB(t *testing.T) {
	if _, err := Apply(context.Background(), nil, fstest.MapFS{}, ""); err == nil {
		t.Fatal("expected error for nil db")
	}
}

func TestExtractUpMigration(t *testing.T) {
	tests := map[string]string{
		"CREATE TABLE a(id);":                          "CREATE TABLE a(id);",
		"-- +migrate Up\nUP;":                          "\nUP;",
		"-- +migrate Up\nUP;\n-- +migrate Down\nDOWN;": "\nUP;\n",
	}
	for input, want := range tests {
		if got := ExtractUpMigration(input); got != want {
			t.Fatalf("ExtractUpMigration(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestIsAlreadyExistsError(t *testing.T) {
	if !IsAlreadyExistsError(errors.New("table items already exists")) {
		t.Fatal("expected already exists match")
	}
	if !IsAlreadyExistsError(errors.New("duplicate column name: x")) {
		t.Fatal("expected duplicate column match")
	}
	if IsAlreadyExistsError(errors.New("syntax error")) {
		t.Fatal("unexpected match")
	}
}
