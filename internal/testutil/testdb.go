// Package testutil provisions throwaway Postgres schemas for store-backed tests.
package testutil

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"hexa-arcade/internal/config"
	"hexa-arcade/internal/store"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const initMigration = "000001_init.up.sql"

var schemaNamePattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// OpenTestStore opens a Store bound to a fresh schema with the init migration applied.
// The test is skipped when TEST_POSTGRES_DSN is not set; the schema is dropped on cleanup.
func OpenTestStore(t *testing.T) *store.Store {
	t.Helper()
	cfg, err := config.LoadTest()
	if err != nil {
		t.Skipf("skip test db: %v", err)
	}
	ctx := context.Background()
	schema := "t_" + strings.ToLower(store.NewID())
	if !schemaNamePattern.MatchString(schema) {
		t.Fatalf("schema %q does not match required pattern", schema)
	}
	ident := pgx.Identifier{schema}.Sanitize()

	admin, err := pgxpool.New(ctx, cfg.TestPostgresDSN)
	if err != nil {
		t.Fatalf("open admin pool: %v", err)
	}
	if _, err := admin.Exec(ctx, "CREATE SCHEMA "+ident); err != nil {
		admin.Close()
		t.Fatalf("create schema: %v", err)
	}
	t.Cleanup(func() {
		_, _ = admin.Exec(context.Background(), "DROP SCHEMA "+ident+" CASCADE")
		admin.Close()
	})

	st, err := store.New(searchPathDSN(cfg.TestPostgresDSN, schema))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(st.Close)

	ddl, err := readMigration()
	if err != nil {
		t.Fatalf("read migration: %v", err)
	}
	if _, err := st.Pool.Exec(ctx, ddl); err != nil {
		t.Fatalf("apply migration: %v", err)
	}
	return st
}

// readMigration walks up from the working directory until it finds migrations/.
func readMigration() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		b, err := os.ReadFile(filepath.Join(dir, "migrations", initMigration))
		if err == nil {
			return string(b), nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("%s not found", initMigration)
		}
		dir = parent
	}
}

func searchPathDSN(dsn, schema string) string {
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "search_path=" + url.QueryEscape(schema)
}
