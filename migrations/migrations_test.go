package migrations

import (
	"io/fs"
	"strings"
	"testing"
)

func TestPostgresMigrations_Embedded(t *testing.T) {
	entries, err := fs.ReadDir(PostgresMigrations, "postgres")
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	if len(entries) == 0 {
		t.Fatal("expected at least one migration")
	}

	for _, e := range entries {
		data, err := fs.ReadFile(PostgresMigrations, "postgres/"+e.Name())
		if err != nil {
			t.Fatalf("ReadFile(%s) error = %v", e.Name(), err)
		}
		body := string(data)
		if !strings.Contains(body, "-- +goose Up") || !strings.Contains(body, "-- +goose Down") {
			t.Errorf("%s is missing goose annotations", e.Name())
		}
	}
}
