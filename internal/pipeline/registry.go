package pipeline

import (
	"context"
	"errors"
	"fmt"
	"slices"

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

// Registry provides pipeline management with caching and thread safety.
//
// The membership mutators here are mechanical: they write the junction
// row and refresh the cache, nothing more. Capacity, exclusivity and
// emptiness rules live in the assignment coordinator, which serialises
// access per pipeline and per device before calling down.
type Registry struct {
	repo   Repository
	cache  *store.Store[Pipeline]
	logger Logger
}

// NewRegistry creates a new pipeline registry.
func NewRegistry(repo Repository) *Registry {
	return &Registry{
		repo:   repo,
		cache:  store.New[Pipeline](),
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	r.logger = logger
}

// Load reads all pipelines from the repository into the cache.
// This should be called once on application startup.
func (r *Registry) Load(ctx context.Context) error {
	pipelines, err := r.repo.List(ctx)
	if err != nil {
		return fmt.Errorf("loading pipelines: %w", err)
	}

	for _, p := range pipelines {
		if insErr := r.cache.Insert(p); insErr != nil {
			return fmt.Errorf("caching pipeline %s: %w", p.ID, insErr)
		}
	}

	r.logger.Info("pipeline registry loaded", "count", len(pipelines))
	return nil
}

// Get retrieves a pipeline by id.
// Returns ErrPipelineNotFound if the pipeline does not exist.
func (r *Registry) Get(ctx context.Context, id string) (*Pipeline, error) {
	p, err := r.cache.Get(id)
	if err == nil {
		return &p, nil
	}

	pl, err := r.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return pl, nil
}

// List retrieves all pipelines in creation order.
func (r *Registry) List(_ context.Context) []Pipeline {
	return r.cache.List()
}

// ListByOwner retrieves all pipelines created by the given owner.
func (r *Registry) ListByOwner(_ context.Context, ownerID string) []Pipeline {
	return r.cache.Find(func(p Pipeline) bool { return p.OwnerID == ownerID })
}

// Count returns the number of known pipelines.
func (r *Registry) Count() int {
	return r.cache.Len()
}

// EndpointCount returns how many endpoints a pipeline currently holds.
func (r *Registry) EndpointCount(ctx context.Context, id string) (int, error) {
	p, err := r.Get(ctx, id)
	if err != nil {
		return 0, err
	}
	return len(p.EndpointIDs), nil
}

// DeviceCount returns how many devices a pipeline currently holds.
func (r *Registry) DeviceCount(ctx context.Context, id string) (int, error) {
	p, err := r.Get(ctx, id)
	if err != nil {
		return 0, err
	}
	return len(p.DeviceIDs), nil
}

// PipelineWithDevice returns the pipeline holding the given device, or
// nil when the device is unattached.
func (r *Registry) PipelineWithDevice(_ context.Context, deviceID string) *Pipeline {
	matches := r.cache.Find(func(p Pipeline) bool {
		return slices.Contains(p.DeviceIDs, deviceID)
	})
	if len(matches) == 0 {
		return nil
	}
	return &matches[0]
}

// PipelinesWithEndpoint returns every pipeline referencing the endpoint.
func (r *Registry) PipelinesWithEndpoint(_ context.Context, endpointID string) []Pipeline {
	return r.cache.Find(func(p Pipeline) bool {
		return slices.Contains(p.EndpointIDs, endpointID)
	})
}

// Create validates and persists a new pipeline. The id is assigned
// here; a new pipeline starts with no memberships.
func (r *Registry) Create(ctx context.Context, p *Pipeline) error {
	p.ID = uuid.NewString()
	p.EndpointIDs = nil
	p.DeviceIDs = nil
	if p.Status == "" {
		p.Status = StatusActive
	}
	if p.ExecutionMode == "" {
		p.ExecutionMode = ModeStreaming
	}

	if err := Validate(p); err != nil {
		return err
	}

	if err := r.repo.Create(ctx, p); err != nil {
		return err
	}

	if err := r.cache.Insert(*p); err != nil {
		if errors.Is(err, store.ErrExists) {
			r.logger.Warn("pipeline cache out of sync on create", "id", p.ID)
			return r.cache.Replace(*p)
		}
		return err
	}

	r.logger.Info("pipeline created", "id", p.ID, "owner", p.OwnerID)
	return nil
}

// Update merges the supplied fields into an existing pipeline and
// persists the result.
func (r *Registry) Update(ctx context.Context, id string, upd Update) (*Pipeline, error) {
	existing, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if upd.Name != nil {
		existing.Name = *upd.Name
	}
	if upd.Description != nil {
		existing.Description = *upd.Description
	}
	if upd.Status != nil {
		existing.Status = *upd.Status
	}
	if upd.ExecutionMode != nil {
		existing.ExecutionMode = *upd.ExecutionMode
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

	r.logger.Info("pipeline updated", "id", id)
	return existing, nil
}

// Delete removes a pipeline. The coordinator refuses while devices are
// attached; endpoint memberships are dropped with the pipeline.
func (r *Registry) Delete(ctx context.Context, id string) error {
	if err := r.repo.Delete(ctx, id); err != nil {
		return err
	}

	if err := r.cache.Remove(id); err != nil && !errors.Is(err, store.ErrNotFound) {
		return err
	}

	r.logger.Info("pipeline deleted", "id", id)
	return nil
}

// AttachEndpoint records an endpoint membership. Idempotent: attaching
// an existing member leaves the pipeline unchanged.
func (r *Registry) AttachEndpoint(ctx context.Context, pipelineID, endpointID string) error {
	if err := r.repo.AttachEndpoint(ctx, pipelineID, endpointID); err != nil {
		return err
	}
	return r.refresh(ctx, pipelineID)
}

// DetachEndpoint removes an endpoint membership.
func (r *Registry) DetachEndpoint(ctx context.Context, pipelineID, endpointID string) error {
	if err := r.repo.DetachEndpoint(ctx, pipelineID, endpointID); err != nil {
		return err
	}
	return r.refresh(ctx, pipelineID)
}

// AttachDevice records a device membership.
func (r *Registry) AttachDevice(ctx context.Context, pipelineID, deviceID string) error {
	if err := r.repo.AttachDevice(ctx, pipelineID, deviceID); err != nil {
		return err
	}
	return r.refresh(ctx, pipelineID)
}

// DetachDevice removes a device membership.
func (r *Registry) DetachDevice(ctx context.Context, pipelineID, deviceID string) error {
	if err := r.repo.DetachDevice(ctx, pipelineID, deviceID); err != nil {
		return err
	}
	return r.refresh(ctx, pipelineID)
}

// DetachDeviceEverywhere scrubs a device from whichever pipeline holds
// it, refreshing the affected cache entry.
func (r *Registry) DetachDeviceEverywhere(ctx context.Context, deviceID string) error {
	holder := r.PipelineWithDevice(ctx, deviceID)

	if err := r.repo.DetachDeviceEverywhere(ctx, deviceID); err != nil {
		return err
	}

	if holder != nil {
		return r.refresh(ctx, holder.ID)
	}
	return nil
}

// DetachEndpointEverywhere scrubs an endpoint from every pipeline that
// references it, refreshing the affected cache entries.
func (r *Registry) DetachEndpointEverywhere(ctx context.Context, endpointID string) error {
	holders := r.PipelinesWithEndpoint(ctx, endpointID)

	if err := r.repo.DetachEndpointEverywhere(ctx, endpointID); err != nil {
		return err
	}

	for _, p := range holders {
		if err := r.refresh(ctx, p.ID); err != nil {
			return err
		}
	}
	return nil
}

// refresh reloads one pipeline from the repository into the cache so
// membership order and updated_at match what was committed.
func (r *Registry) refresh(ctx context.Context, pipelineID string) error {
	p, err := r.repo.GetByID(ctx, pipelineID)
	if err != nil {
		return err
	}
	if err := r.cache.Replace(*p); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return r.cache.Insert(*p)
		}
		return err
	}
	return nil
}

// Watch returns a change-notification stream for the pipeline registry.
// The cancel function must be called when the subscriber is done.
func (r *Registry) Watch(buffer int) (<-chan store.Event[Pipeline], func()) {
	return r.cache.Watch(buffer)
}
