package endpoint

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// MockRepository is a test implementation of Repository.
type MockRepository struct {
	mu        sync.Mutex
	endpoints map[string]*Endpoint
	// For testing error paths
	createErr error
	updateErr error
	deleteErr error
}

func NewMockRepository() *MockRepository {
	return &MockRepository{
		endpoints: make(map[string]*Endpoint),
	}
}

func (m *MockRepository) GetByID(_ context.Context, id string) (*Endpoint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if e, ok := m.endpoints[id]; ok {
		cp := *e
		return &cp, nil
	}
	return nil, ErrEndpointNotFound
}

func (m *MockRepository) List(_ context.Context) ([]Endpoint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	endpoints := make([]Endpoint, 0, len(m.endpoints))
	for _, e := range m.endpoints {
		endpoints = append(endpoints, *e)
	}
	return endpoints, nil
}

func (m *MockRepository) Create(_ context.Context, e *Endpoint) error {
	if m.createErr != nil {
		return m.createErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.endpoints[e.ID]; exists {
		return ErrEndpointExists
	}
	cp := *e
	m.endpoints[e.ID] = &cp
	return nil
}

func (m *MockRepository) Update(_ context.Context, e *Endpoint) error {
	if m.updateErr != nil {
		return m.updateErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.endpoints[e.ID]; !exists {
		return ErrEndpointNotFound
	}
	cp := *e
	m.endpoints[e.ID] = &cp
	return nil
}

func (m *MockRepository) Delete(_ context.Context, id string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.endpoints[id]; !exists {
		return ErrEndpointNotFound
	}
	delete(m.endpoints, id)
	return nil
}

// testEndpoint creates an endpoint for testing. The id is left blank
// because the registry assigns it on create.
func testEndpoint(name string) *Endpoint {
	return &Endpoint{
		OwnerID:          "op-1",
		Name:             name,
		DataPushEndpoint: "https://collect.example.com/ingest",
		AuthEndpoint:     "https://auth.example.com/token",
		Username:         "collector",
		Password:         "s3cret",
	}
}

func strPtr(s string) *string { return &s }

func TestRegistry_Load(t *testing.T) {
	repo := NewMockRepository()
	repo.endpoints["ep-1"] = &Endpoint{ID: "ep-1", OwnerID: "op-1", Name: "A"}
	repo.endpoints["ep-2"] = &Endpoint{ID: "ep-2", OwnerID: "op-1", Name: "B"}

	registry := NewRegistry(repo)
	if err := registry.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if registry.Count() != 2 {
		t.Errorf("Count() = %d, want 2", registry.Count())
	}
}

func TestRegistry_Create(t *testing.T) {
	repo := NewMockRepository()
	registry := NewRegistry(repo)
	ctx := context.Background()

	t.Run("assigns id and persists", func(t *testing.T) {
		e := testEndpoint("Sink A")
		if err := registry.Create(ctx, e); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if e.ID == "" {
			t.Fatal("Create() left ID empty")
		}

		got, err := registry.Get(ctx, e.ID)
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if got.Name != "Sink A" {
			t.Errorf("Name = %q, want %q", got.Name, "Sink A")
		}
	})

	t.Run("overwrites caller-supplied id", func(t *testing.T) {
		e := testEndpoint("Sink B")
		e.ID = "chosen-by-caller"
		if err := registry.Create(ctx, e); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if e.ID == "chosen-by-caller" {
			t.Error("Create() kept caller-supplied id")
		}
	})

	t.Run("validates before persisting", func(t *testing.T) {
		tests := []struct {
			name   string
			mutate func(*Endpoint)
			want   error
		}{
			{"missing owner", func(e *Endpoint) { e.OwnerID = "" }, ErrInvalidOwner},
			{"empty name", func(e *Endpoint) { e.Name = "" }, ErrInvalidName},
			{"relative push url", func(e *Endpoint) { e.DataPushEndpoint = "/ingest" }, ErrInvalidURL},
			{"bad auth scheme", func(e *Endpoint) { e.AuthEndpoint = "ftp://auth.example.com" }, ErrInvalidURL},
			{"missing username", func(e *Endpoint) { e.Username = "" }, ErrInvalidCredentials},
			{"missing password", func(e *Endpoint) { e.Password = "" }, ErrInvalidCredentials},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				e := testEndpoint("Valid")
				tt.mutate(e)
				err := registry.Create(ctx, e)
				if !errors.Is(err, tt.want) {
					t.Errorf("Create() error = %v, want %v", err, tt.want)
				}
			})
		}
	})
}

func TestRegistry_Update(t *testing.T) {
	repo := NewMockRepository()
	registry := NewRegistry(repo)
	ctx := context.Background()

	e := testEndpoint("Original")
	if err := registry.Create(ctx, e); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	t.Run("merges only supplied fields", func(t *testing.T) {
		got, err := registry.Update(ctx, e.ID, Update{Name: strPtr("Renamed")})
		if err != nil {
			t.Fatalf("Update() error = %v", err)
		}
		if got.Name != "Renamed" {
			t.Errorf("Name = %q, want %q", got.Name, "Renamed")
		}
		if got.DataPushEndpoint != "https://collect.example.com/ingest" {
			t.Errorf("DataPushEndpoint = %q, want unchanged", got.DataPushEndpoint)
		}
		if got.Password != "s3cret" {
			t.Errorf("Password = %q, want unchanged", got.Password)
		}
	})

	t.Run("rejects invalid merged state", func(t *testing.T) {
		_, err := registry.Update(ctx, e.ID, Update{AuthEndpoint: strPtr("not a url")})
		if !errors.Is(err, ErrInvalidURL) {
			t.Errorf("Update() error = %v, want ErrInvalidURL", err)
		}
	})

	t.Run("returns ErrEndpointNotFound for unknown id", func(t *testing.T) {
		_, err := registry.Update(ctx, "missing", Update{Name: strPtr("Ghost")})
		if !errors.Is(err, ErrEndpointNotFound) {
			t.Errorf("Update() error = %v, want ErrEndpointNotFound", err)
		}
	})
}

func TestRegistry_Delete(t *testing.T) {
	repo := NewMockRepository()
	registry := NewRegistry(repo)
	ctx := context.Background()

	e := testEndpoint("Victim")
	if err := registry.Create(ctx, e); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	t.Run("removes from cache and repo", func(t *testing.T) {
		if err := registry.Delete(ctx, e.ID); err != nil {
			t.Fatalf("Delete() error = %v", err)
		}
		if _, err := registry.Get(ctx, e.ID); !errors.Is(err, ErrEndpointNotFound) {
			t.Errorf("Get() error = %v, want ErrEndpointNotFound", err)
		}
	})

	t.Run("returns ErrEndpointNotFound for unknown id", func(t *testing.T) {
		err := registry.Delete(ctx, "missing")
		if !errors.Is(err, ErrEndpointNotFound) {
			t.Errorf("Delete() error = %v, want ErrEndpointNotFound", err)
		}
	})
}

func TestRegistry_ListByOwner(t *testing.T) {
	repo := NewMockRepository()
	registry := NewRegistry(repo)
	ctx := context.Background()

	mine := testEndpoint("Mine")
	theirs := testEndpoint("Theirs")
	theirs.OwnerID = "op-2"

	for _, e := range []*Endpoint{mine, theirs} {
		if err := registry.Create(ctx, e); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	got := registry.ListByOwner(ctx, "op-1")
	if len(got) != 1 || got[0].Name != "Mine" {
		t.Errorf("ListByOwner() = %v, want the op-1 endpoint only", got)
	}
}

func TestRegistry_Watch(t *testing.T) {
	repo := NewMockRepository()
	registry := NewRegistry(repo)
	ctx := context.Background()

	events, cancel := registry.Watch(4)
	defer cancel()

	e := testEndpoint("Watched")
	if err := registry.Create(ctx, e); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	select {
	case ev := <-events:
		if ev.Entity.ID != e.ID {
			t.Errorf("event entity = %q, want %q", ev.Entity.ID, e.ID)
		}
	case <-time.After(time.Second):
		t.Fatal("no change event delivered")
	}
}
