package assignment

import (
	"context"
	"slices"

	"github.com/inletworks/inlet-core/internal/device"
	"github.com/inletworks/inlet-core/internal/endpoint"
	"github.com/inletworks/inlet-core/internal/pipeline"
)

// Devices is the slice of the device registry the coordinator needs.
type Devices interface {
	Get(ctx context.Context, id string) (*device.Device, error)
	Delete(ctx context.Context, id string) error
}

// Endpoints is the slice of the endpoint registry the coordinator needs.
type Endpoints interface {
	Get(ctx context.Context, id string) (*endpoint.Endpoint, error)
	Delete(ctx context.Context, id string) error
}

// Pipelines is the slice of the pipeline registry the coordinator needs.
type Pipelines interface {
	Get(ctx context.Context, id string) (*pipeline.Pipeline, error)
	Delete(ctx context.Context, id string) error
	AttachEndpoint(ctx context.Context, pipelineID, endpointID string) error
	DetachEndpoint(ctx context.Context, pipelineID, endpointID string) error
	AttachDevice(ctx context.Context, pipelineID, deviceID string) error
	DetachDevice(ctx context.Context, pipelineID, deviceID string) error
	DetachDeviceEverywhere(ctx context.Context, deviceID string) error
	DetachEndpointEverywhere(ctx context.Context, endpointID string) error
	PipelineWithDevice(ctx context.Context, deviceID string) *pipeline.Pipeline
	PipelinesWithEndpoint(ctx context.Context, endpointID string) []pipeline.Pipeline
}

// Logger defines the logging interface used by the Coordinator.
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

// Coordinator enforces the cross-registry topology rules. Every rule
// check and its mutation happen under the relevant entity locks, so the
// check cannot go stale before the write lands.
//
// Lock ordering: the device lock is always taken before any pipeline
// lock, and multiple pipeline locks are taken in sorted id order.
type Coordinator struct {
	devices   Devices
	endpoints Endpoints
	pipelines Pipelines

	pipelineLocks *lockTable
	deviceLocks   *lockTable

	logger Logger
}

// NewCoordinator creates a coordinator over the three registries.
func NewCoordinator(devices Devices, endpoints Endpoints, pipelines Pipelines) *Coordinator {
	return &Coordinator{
		devices:       devices,
		endpoints:     endpoints,
		pipelines:     pipelines,
		pipelineLocks: newLockTable(),
		deviceLocks:   newLockTable(),
		logger:        noopLogger{},
	}
}

// SetLogger sets the logger for the coordinator.
func (c *Coordinator) SetLogger(logger Logger) {
	c.logger = logger
}

// AttachEndpoint adds an endpoint to a pipeline. Attaching an endpoint
// that is already a member succeeds without change; the capacity cap is
// checked against current membership under the pipeline lock.
func (c *Coordinator) AttachEndpoint(ctx context.Context, pipelineID, endpointID string) error {
	unlock := c.pipelineLocks.lock(pipelineID)
	defer unlock()

	p, err := c.pipelines.Get(ctx, pipelineID)
	if err != nil {
		return err
	}
	if _, err := c.endpoints.Get(ctx, endpointID); err != nil {
		return err
	}

	if slices.Contains(p.EndpointIDs, endpointID) {
		return nil
	}
	if len(p.EndpointIDs) >= pipeline.MaxEndpoints {
		return ErrEndpointCapacity
	}

	if err := c.pipelines.AttachEndpoint(ctx, pipelineID, endpointID); err != nil {
		return err
	}

	c.logger.Info("endpoint attached", "pipeline", pipelineID, "endpoint", endpointID)
	return nil
}

// DetachEndpoint removes an endpoint from a pipeline. Detaching an
// endpoint that is not a member succeeds without change.
func (c *Coordinator) DetachEndpoint(ctx context.Context, pipelineID, endpointID string) error {
	unlock := c.pipelineLocks.lock(pipelineID)
	defer unlock()

	p, err := c.pipelines.Get(ctx, pipelineID)
	if err != nil {
		return err
	}
	if !slices.Contains(p.EndpointIDs, endpointID) {
		return nil
	}

	if err := c.pipelines.DetachEndpoint(ctx, pipelineID, endpointID); err != nil {
		return err
	}

	c.logger.Info("endpoint detached", "pipeline", pipelineID, "endpoint", endpointID)
	return nil
}

// AttachDevice adds a device to a pipeline. A device already attached
// to the same pipeline is a no-op; one attached anywhere else is
// rejected with the holder's id.
func (c *Coordinator) AttachDevice(ctx context.Context, pipelineID, deviceID string) error {
	unlockDevice := c.deviceLocks.lock(deviceID)
	defer unlockDevice()
	unlockPipeline := c.pipelineLocks.lock(pipelineID)
	defer unlockPipeline()

	if _, err := c.pipelines.Get(ctx, pipelineID); err != nil {
		return err
	}
	if _, err := c.devices.Get(ctx, deviceID); err != nil {
		return err
	}

	if holder := c.pipelines.PipelineWithDevice(ctx, deviceID); holder != nil {
		if holder.ID == pipelineID {
			return nil
		}
		return &AlreadyAttachedError{DeviceID: deviceID, PipelineID: holder.ID}
	}

	if err := c.pipelines.AttachDevice(ctx, pipelineID, deviceID); err != nil {
		return err
	}

	c.logger.Info("device attached", "pipeline", pipelineID, "device", deviceID)
	return nil
}

// DetachDevice removes a device from a pipeline. Detaching a device
// the pipeline does not hold succeeds without change, same as
// DetachEndpoint.
func (c *Coordinator) DetachDevice(ctx context.Context, pipelineID, deviceID string) error {
	unlockDevice := c.deviceLocks.lock(deviceID)
	defer unlockDevice()
	unlockPipeline := c.pipelineLocks.lock(pipelineID)
	defer unlockPipeline()

	p, err := c.pipelines.Get(ctx, pipelineID)
	if err != nil {
		return err
	}
	if !slices.Contains(p.DeviceIDs, deviceID) {
		return nil
	}

	if err := c.pipelines.DetachDevice(ctx, pipelineID, deviceID); err != nil {
		return err
	}

	c.logger.Info("device detached", "pipeline", pipelineID, "device", deviceID)
	return nil
}

// MoveDevice reassigns a device from one pipeline to another as a
// single operation: concurrent observers see the device in the source
// or in the destination, never in both and never in neither.
//
// The move holds the device lock and both pipeline locks throughout.
// If the destination attach fails after the source detach succeeded,
// the device is re-attached to the source; the rollback is retried once
// before the move gives up and reports an inconsistency.
func (c *Coordinator) MoveDevice(ctx context.Context, deviceID, fromID, toID string) error {
	if fromID == toID {
		return ErrSamePipeline
	}

	unlockDevice := c.deviceLocks.lock(deviceID)
	defer unlockDevice()
	unlockPipelines := c.pipelineLocks.lockAll(fromID, toID)
	defer unlockPipelines()

	if _, err := c.devices.Get(ctx, deviceID); err != nil {
		return err
	}
	from, err := c.pipelines.Get(ctx, fromID)
	if err != nil {
		return err
	}
	if _, err := c.pipelines.Get(ctx, toID); err != nil {
		return err
	}
	if !slices.Contains(from.DeviceIDs, deviceID) {
		return ErrNotAttachedToSource
	}

	if err := c.pipelines.DetachDevice(ctx, fromID, deviceID); err != nil {
		return err
	}

	attachErr := c.pipelines.AttachDevice(ctx, toID, deviceID)
	if attachErr == nil {
		c.logger.Info("device moved", "device", deviceID, "from", fromID, "to", toID)
		return nil
	}

	// Roll the device back onto the source. One retry covers transient
	// storage failures; past that the device is dangling and the caller
	// has to reconcile by hand.
	c.logger.Warn("move attach failed, rolling back", "device", deviceID, "to", toID, "error", attachErr)
	rollbackErr := c.pipelines.AttachDevice(ctx, fromID, deviceID)
	if rollbackErr != nil {
		rollbackErr = c.pipelines.AttachDevice(ctx, fromID, deviceID)
	}
	if rollbackErr != nil {
		c.logger.Error("move rollback failed, device dangling",
			"device", deviceID, "from", fromID, "to", toID, "error", rollbackErr)
		return &InconsistencyError{
			DeviceID:       deviceID,
			FromPipelineID: fromID,
			ToPipelineID:   toID,
			Err:            rollbackErr,
		}
	}

	return attachErr
}

// DeletePipeline removes a pipeline, refusing while any device is
// still attached. Endpoint memberships do not block deletion; endpoints
// are shared, so dropping this pipeline's junction rows detaches them
// implicitly without touching the endpoints themselves.
func (c *Coordinator) DeletePipeline(ctx context.Context, pipelineID string) error {
	unlock := c.pipelineLocks.lock(pipelineID)
	defer unlock()

	p, err := c.pipelines.Get(ctx, pipelineID)
	if err != nil {
		return err
	}
	if len(p.DeviceIDs) > 0 {
		return &NotEmptyError{
			PipelineID: pipelineID,
			Devices:    len(p.DeviceIDs),
		}
	}

	if err := c.pipelines.Delete(ctx, pipelineID); err != nil {
		return err
	}

	c.logger.Info("pipeline deleted", "pipeline", pipelineID)
	return nil
}

// DeleteDevice removes a device, first scrubbing it out of whichever
// pipeline holds it so no membership row dangles.
func (c *Coordinator) DeleteDevice(ctx context.Context, deviceID string) error {
	unlockDevice := c.deviceLocks.lock(deviceID)
	defer unlockDevice()

	if _, err := c.devices.Get(ctx, deviceID); err != nil {
		return err
	}

	if holder := c.pipelines.PipelineWithDevice(ctx, deviceID); holder != nil {
		unlockPipeline := c.pipelineLocks.lock(holder.ID)
		err := c.pipelines.DetachDeviceEverywhere(ctx, deviceID)
		unlockPipeline()
		if err != nil {
			return err
		}
	}

	if err := c.devices.Delete(ctx, deviceID); err != nil {
		return err
	}

	c.logger.Info("device deleted", "device", deviceID)
	return nil
}

// DeleteEndpoint removes an endpoint, first scrubbing its memberships
// out of every pipeline referencing it.
func (c *Coordinator) DeleteEndpoint(ctx context.Context, endpointID string) error {
	if _, err := c.endpoints.Get(ctx, endpointID); err != nil {
		return err
	}

	holders := c.pipelines.PipelinesWithEndpoint(ctx, endpointID)
	if len(holders) > 0 {
		ids := make([]string, len(holders))
		for i, p := range holders {
			ids[i] = p.ID
		}
		unlock := c.pipelineLocks.lockAll(ids...)
		err := c.pipelines.DetachEndpointEverywhere(ctx, endpointID)
		unlock()
		if err != nil {
			return err
		}
	}

	if err := c.endpoints.Delete(ctx, endpointID); err != nil {
		return err
	}

	c.logger.Info("endpoint deleted", "endpoint", endpointID)
	return nil
}
