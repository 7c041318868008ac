package persistence

import (
	"io/fs"
	"strings"
	"testing"
)

func TestMigrationURL(t *testing.T) {
	cases := map[string]string{
		"postgres://u:p@db:5432/helpdesk?sslmode=disable": "pgx5://u:p@db:5432/helpdesk?sslmode=disable",
		"postgresql://u@db/helpdesk":                      "pgx5://u@db/helpdesk",
		"pgx5://u@db/helpdesk":                            "pgx5://u@db/helpdesk",
	}
	for in, want := range cases {
		got, err := MigrationURL(in)
		if err != nil {
			t.Fatalf("%s: %v", in, err)
		}
		if got != want {
			t.Fatalf("%s: got %q want %q", in, got, want)
		}
	}
	if _, err := MigrationURL("host=db user=u dbname=helpdesk"); err == nil {
		t.Fatalf("keyword DSN should be rejected")
	}
}

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	entries, err := fs.ReadDir(migrationFiles, "migrations")
	if err != nil {
		t.Fatalf("read embedded migrations: %v", err)
	}
	ups, downs := map[string]bool{}, map[string]bool{}
	for _, e := range entries {
		name := e.Name()
		switch {
		case strings.HasSuffix(name, ".up.sql"):
			ups[strings.TrimSuffix(name, ".up.sql")] = true
		case strings.HasSuffix(name, ".down.sql"):
			downs[strings.TrimSuffix(name, ".down.sql")] = true
		}
	}
	if len(ups) == 0 {
		t.Fatalf("no migrations embedded")
	}
	for version := range ups {
		if !downs[version] {
			t.Fatalf("migration %s has no down file", version)
		}
	}
}

func TestSchemaDeclaresReferencePolicies(t *testing.T) {
	raw, err := fs.ReadFile(migrationFiles, "migrations/000001_init.up.sql")
	if err != nil {
		t.Fatalf("read init migration: %v", err)
	}
	schema := string(raw)
	for _, fragment := range []string{
		"owner_id BIGINT REFERENCES users(id) ON DELETE SET NULL",
		"assigned_to_id BIGINT REFERENCES users(id) ON DELETE SET NULL",
		"waiting_for_id BIGINT REFERENCES users(id) ON DELETE SET NULL",
		"ticket_id BIGINT NOT NULL REFERENCES tickets(id) ON DELETE CASCADE",
	} {
		if !strings.Contains(schema, fragment) {
			t.Fatalf("schema missing %q", fragment)
		}
	}
}
