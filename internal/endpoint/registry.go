package endpoint

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/inletworks/inlet-core/internal/store"
)

// Logger defines the logging interface used by the Registry.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Registry provides endpoint management with caching and thread safety.
// It wraps a Repository and keeps an in-memory store for fast, ordered
// lookups and change notification.
type Registry struct {
	repo   Repository
	cache  *store.Store[Endpoint]
	logger Logger
}

// NewRegistry creates a new endpoint registry.
func NewRegistry(repo Repository) *Registry {
	return &Registry{
		repo:   repo,
		cache:  store.New[Endpoint](),
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	r.logger = logger
}

// Load reads all endpoints from the repository into the cache.
// This should be called once on application startup.
func (r *Registry) Load(ctx context.Context) error {
	endpoints, err := r.repo.List(ctx)
	if err != nil {
		return fmt.Errorf("loading endpoints: %w", err)
	}

	for _, e := range endpoints {
		if insErr := r.cache.Insert(e); insErr != nil {
			return fmt.Errorf("caching endpoint %s: %w", e.ID, insErr)
		}
	}

	r.logger.Info("endpoint registry loaded", "count", len(endpoints))
	return nil
}

// Get retrieves an endpoint by id.
// Returns ErrEndpointNotFound if the endpoint does not exist.
func (r *Registry) Get(ctx context.Context, id string) (*Endpoint, error) {
	e, err := r.cache.Get(id)
	if err == nil {
		return &e, nil
	}

	// Fall back to the repository (covers reads before Load completes).
	ep, err := r.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return ep, nil
}

// List retrieves all endpoints in creation order.
func (r *Registry) List(_ context.Context) []Endpoint {
	return r.cache.List()
}

// ListByOwner retrieves all endpoints registered by the given owner.
func (r *Registry) ListByOwner(_ context.Context, ownerID string) []Endpoint {
	return r.cache.Find(func(e Endpoint) bool { return e.OwnerID == ownerID })
}

// Count returns the number of known endpoints.
func (r *Registry) Count() int {
	return r.cache.Len()
}

// Create validates and persists a new endpoint. The id is assigned here;
// any value supplied by the caller is overwritten.
func (r *Registry) Create(ctx context.Context, e *Endpoint) error {
	e.ID = uuid.NewString()

	if err := Validate(e); err != nil {
		return err
	}

	if err := r.repo.Create(ctx, e); err != nil {
		return err
	}

	if err := r.cache.Insert(*e); err != nil {
		if errors.Is(err, store.ErrExists) {
			r.logger.Warn("endpoint cache out of sync on create", "id", e.ID)
			return r.cache.Replace(*e)
		}
		return err
	}

	r.logger.Info("endpoint created", "id", e.ID, "owner", e.OwnerID)
	return nil
}

// Update merges the supplied fields into an existing endpoint and
// persists the result.
func (r *Registry) Update(ctx context.Context, id string, upd Update) (*Endpoint, error) {
	existing, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if upd.Name != nil {
		existing.Name = *upd.Name
	}
	if upd.DataPushEndpoint != nil {
		existing.DataPushEndpoint = *upd.DataPushEndpoint
	}
	if upd.AuthEndpoint != nil {
		existing.AuthEndpoint = *upd.AuthEndpoint
	}
	if upd.Username != nil {
		existing.Username = *upd.Username
	}
	if upd.Password != nil {
		existing.Password = *upd.Password
	}

	if err := Validate(existing); err != nil {
		return nil, err
	}

	if err := r.repo.Update(ctx, existing); err != nil {
		return nil, err
	}
	if err := r.cache.Replace(*existing); err != nil {
		return nil, err
	}

	r.logger.Info("endpoint updated", "id", id)
	return existing, nil
}

// Delete removes an endpoint. The caller (the assignment coordinator) is
// responsible for scrubbing pipeline memberships first.
func (r *Registry) Delete(ctx context.Context, id string) error {
	if err := r.repo.Delete(ctx, id); err != nil {
		return err
	}

	if err := r.cache.Remove(id); err != nil && !errors.Is(err, store.ErrNotFound) {
		return err
	}

	r.logger.Info("endpoint deleted", "id", id)
	return nil
}

// Watch returns a change-notification stream for the endpoint registry.
// The cancel function must be called when the subscriber is done.
func (r *Registry) Watch(buffer int) (<-chan store.Event[Endpoint], func()) {
	return r.cache.Watch(buffer)
}
