package device

import (
	"context"
	"errors"
	"fmt"

	"github.com/inletworks/inlet-core/internal/store"
)

// Logger defines the logging interface used by the Registry.
// This allows different logging implementations to be used.
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

// Registry provides device management with caching and thread safety.
// It wraps a Repository and keeps an in-memory store for fast, ordered
// lookups and change notification.
//
// The store is populated on startup via Load() and kept in sync by the
// CRUD operations. All public methods are thread-safe.
type Registry struct {
	repo   Repository
	cache  *store.Store[Device]
	logger Logger
}

// NewRegistry creates a new device registry.
// The repository is used for persistence; the registry adds the cache.
func NewRegistry(repo Repository) *Registry {
	return &Registry{
		repo:   repo,
		cache:  store.New[Device](),
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	r.logger = logger
}

// Load reads all devices from the repository into the cache.
// This should be called once on application startup.
func (r *Registry) Load(ctx context.Context) error {
	devices, err := r.repo.List(ctx)
	if err != nil {
		return fmt.Errorf("loading devices: %w", err)
	}

	for _, d := range devices {
		if insErr := r.cache.Insert(d); insErr != nil {
			return fmt.Errorf("caching device %s: %w", d.ID, insErr)
		}
	}

	r.logger.Info("device registry loaded", "count", len(devices))
	return nil
}

// IsGloballyUnique reports whether no device anywhere in the system,
// regardless of owner, currently has the given id. This is advisory for
// UI pre-checks; Create re-validates at commit time.
func (r *Registry) IsGloballyUnique(id string) bool {
	return !r.cache.Has(id)
}

// Get retrieves a device by id.
// Returns ErrDeviceNotFound if the device does not exist.
func (r *Registry) Get(ctx context.Context, id string) (*Device, error) {
	d, err := r.cache.Get(id)
	if err == nil {
		return &d, nil
	}

	// Fall back to the repository (covers reads before Load completes).
	dev, err := r.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return dev, nil
}

// List retrieves all devices in creation order.
func (r *Registry) List(_ context.Context) []Device {
	return r.cache.List()
}

// ListByOwner retrieves all devices registered by the given owner.
func (r *Registry) ListByOwner(_ context.Context, ownerID string) []Device {
	return r.cache.Find(func(d Device) bool { return d.OwnerID == ownerID })
}

// Count returns the number of known devices.
func (r *Registry) Count() int {
	return r.cache.Len()
}

// Create validates and persists a new device.
//
// Global uniqueness of the operator-chosen id is enforced at the moment
// of commit: the database PRIMARY KEY rejects a concurrent claim of the
// same id even when both callers pre-checked IsGloballyUnique and saw it
// free. On collision the loser gets ErrDeviceExists.
func (r *Registry) Create(ctx context.Context, d *Device) error {
	if err := Validate(d); err != nil {
		return err
	}

	if err := r.repo.Create(ctx, d); err != nil {
		return err
	}

	if err := r.cache.Insert(*d); err != nil {
		// The repository accepted the row, so the cache must too; an
		// existing entry means the cache drifted from the database.
		if errors.Is(err, store.ErrExists) {
			r.logger.Warn("device cache out of sync on create", "id", d.ID)
			return r.cache.Replace(*d)
		}
		return err
	}

	r.logger.Info("device created", "id", d.ID, "owner", d.OwnerID)
	return nil
}

// Update merges the supplied fields into an existing device and persists
// the result. Only name and location are mutable.
func (r *Registry) Update(ctx context.Context, id string, upd Update) (*Device, error) {
	existing, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if upd.Name != nil {
		existing.Name = *upd.Name
	}
	if upd.Location != nil {
		existing.Location = *upd.Location
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

	r.logger.Info("device updated", "id", id)
	return existing, nil
}

// Delete removes a device. The caller (the assignment coordinator) is
// responsible for scrubbing pipeline memberships first.
func (r *Registry) Delete(ctx context.Context, id string) error {
	if err := r.repo.Delete(ctx, id); err != nil {
		return err
	}

	if err := r.cache.Remove(id); err != nil && !errors.Is(err, store.ErrNotFound) {
		return err
	}

	r.logger.Info("device deleted", "id", id)
	return nil
}

// Watch returns a change-notification stream for the device registry.
// The cancel function must be called when the subscriber is done.
func (r *Registry) Watch(buffer int) (<-chan store.Event[Device], func()) {
	return r.cache.Watch(buffer)
}
