package endpoint

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

// setupTestDB creates an in-memory SQLite database with the endpoints table.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	schema := `
		CREATE TABLE endpoints (
			id TEXT PRIMARY KEY,
			owner_id TEXT NOT NULL,
			name TEXT NOT NULL,
			data_push_endpoint TEXT NOT NULL,
			auth_endpoint TEXT NOT NULL,
			username TEXT NOT NULL,
			password TEXT NOT NULL,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		) STRICT;
		CREATE INDEX idx_endpoints_owner_id ON endpoints(owner_id);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		t.Fatalf("failed to create test schema: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

func storedEndpoint(id, name string) *Endpoint {
	e := testEndpoint(name)
	e.ID = id
	return e
}

func TestSQLiteRepository_CreateAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteRepository(db)
	ctx := context.Background()

	e := storedEndpoint("ep-1", "Sink A")
	if err := repo.Create(ctx, e); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if e.CreatedAt.IsZero() || e.UpdatedAt.IsZero() {
		t.Error("timestamps not set on create")
	}

	got, err := repo.GetByID(ctx, "ep-1")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Name != "Sink A" || got.Username != "collector" || got.DataPushEndpoint != "https://collect.example.com/ingest" {
		t.Errorf("round-trip mismatch: %+v", got)
	}

	t.Run("duplicate id returns ErrEndpointExists", func(t *testing.T) {
		dup := storedEndpoint("ep-1", "Other")
		if err := repo.Create(ctx, dup); !errors.Is(err, ErrEndpointExists) {
			t.Errorf("Create() error = %v, want ErrEndpointExists", err)
		}
	})

	t.Run("unknown id returns ErrEndpointNotFound", func(t *testing.T) {
		if _, err := repo.GetByID(ctx, "ep-404"); !errors.Is(err, ErrEndpointNotFound) {
			t.Errorf("GetByID() error = %v, want ErrEndpointNotFound", err)
		}
	})
}

func TestSQLiteRepository_List(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteRepository(db)
	ctx := context.Background()

	for _, id := range []string{"ep-3", "ep-1", "ep-2"} {
		if err := repo.Create(ctx, storedEndpoint(id, "Sink "+id)); err != nil {
			t.Fatalf("Create(%s) error = %v", id, err)
		}
	}

	endpoints, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(endpoints) != 3 {
		t.Fatalf("List() len = %d, want 3", len(endpoints))
	}
}

func TestSQLiteRepository_Update(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteRepository(db)
	ctx := context.Background()

	e := storedEndpoint("ep-1", "Original")
	if err := repo.Create(ctx, e); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	e.Name = "Renamed"
	e.AuthEndpoint = "https://auth2.example.com/token"
	if err := repo.Update(ctx, e); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	got, err := repo.GetByID(ctx, "ep-1")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Name != "Renamed" || got.AuthEndpoint != "https://auth2.example.com/token" {
		t.Errorf("update not persisted: %+v", got)
	}

	t.Run("unknown id returns ErrEndpointNotFound", func(t *testing.T) {
		ghost := storedEndpoint("ep-404", "Ghost")
		if err := repo.Update(ctx, ghost); !errors.Is(err, ErrEndpointNotFound) {
			t.Errorf("Update() error = %v, want ErrEndpointNotFound", err)
		}
	})
}

func TestSQLiteRepository_Delete(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteRepository(db)
	ctx := context.Background()

	if err := repo.Create(ctx, storedEndpoint("ep-1", "Victim")); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if err := repo.Delete(ctx, "ep-1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := repo.GetByID(ctx, "ep-1"); !errors.Is(err, ErrEndpointNotFound) {
		t.Errorf("GetByID() after delete error = %v, want ErrEndpointNotFound", err)
	}

	t.Run("unknown id returns ErrEndpointNotFound", func(t *testing.T) {
		if err := repo.Delete(ctx, "ep-404"); !errors.Is(err, ErrEndpointNotFound) {
			t.Errorf("Delete() error = %v, want ErrEndpointNotFound", err)
		}
	})
}
