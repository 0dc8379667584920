package audit

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// setupTestDB creates an in-memory SQLite database with the audit_logs table.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	schema := `
		CREATE TABLE audit_logs (
			id TEXT PRIMARY KEY,
			action TEXT NOT NULL,
			entity_type TEXT NOT NULL,
			entity_id TEXT,
			owner_id TEXT,
			source TEXT NOT NULL,
			details TEXT,
			created_at TEXT NOT NULL
		) STRICT;
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

func TestSQLiteRepository_CreateAndList(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteRepository(db)
	ctx := context.Background()

	entry := &AuditLog{
		Action:     ActionAttach,
		EntityType: "device",
		EntityID:   "IOT-DEV-001",
		OwnerID:    "op-1",
		Source:     "api",
		Details:    map[string]any{"pipeline_id": "pl-1"},
	}
	if err := repo.Create(ctx, entry); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if entry.ID == "" {
		t.Error("ID not generated on create")
	}
	if entry.CreatedAt.IsZero() {
		t.Error("CreatedAt not set on create")
	}

	result, err := repo.List(ctx, Filter{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if result.Total != 1 || len(result.Logs) != 1 {
		t.Fatalf("List() total = %d, logs = %d, want 1/1", result.Total, len(result.Logs))
	}

	got := result.Logs[0]
	if got.Action != ActionAttach || got.EntityID != "IOT-DEV-001" || got.OwnerID != "op-1" {
		t.Errorf("round-trip mismatch: %+v", got)
	}
	if got.Details["pipeline_id"] != "pl-1" {
		t.Errorf("details not preserved: %v", got.Details)
	}
}

func TestSQLiteRepository_ListFilters(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteRepository(db)
	ctx := context.Background()

	base := time.Now().UTC()
	entries := []*AuditLog{
		{Action: ActionCreate, EntityType: "device", EntityID: "d-1", Source: "api", CreatedAt: base.Add(-3 * time.Second)},
		{Action: ActionCreate, EntityType: "pipeline", EntityID: "p-1", Source: "api", CreatedAt: base.Add(-2 * time.Second)},
		{Action: ActionDelete, EntityType: "device", EntityID: "d-1", Source: "api", CreatedAt: base.Add(-1 * time.Second)},
	}
	for _, e := range entries {
		if err := repo.Create(ctx, e); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	t.Run("by action", func(t *testing.T) {
		result, err := repo.List(ctx, Filter{Action: ActionCreate})
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if result.Total != 2 {
			t.Errorf("total = %d, want 2", result.Total)
		}
	})

	t.Run("by entity", func(t *testing.T) {
		result, err := repo.List(ctx, Filter{EntityType: "device", EntityID: "d-1"})
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if result.Total != 2 {
			t.Errorf("total = %d, want 2", result.Total)
		}
		// Most recent first
		if result.Logs[0].Action != ActionDelete {
			t.Errorf("first action = %s, want %s", result.Logs[0].Action, ActionDelete)
		}
	})

	t.Run("limit and offset", func(t *testing.T) {
		result, err := repo.List(ctx, Filter{Limit: 2, Offset: 2})
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if result.Total != 3 || len(result.Logs) != 1 {
			t.Errorf("total = %d, logs = %d, want 3/1", result.Total, len(result.Logs))
		}
	})

	t.Run("no matches returns empty slice", func(t *testing.T) {
		result, err := repo.List(ctx, Filter{Action: ActionMove})
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if result.Logs == nil || len(result.Logs) != 0 {
			t.Errorf("logs = %v, want empty slice", result.Logs)
		}
	})
}
