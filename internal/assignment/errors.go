package assignment

import (
	"errors"
	"fmt"
)

// Sentinel errors for topology rule violations, checked with errors.Is().
var (
	// ErrEndpointCapacity is returned when an attach would push a
	// pipeline past its endpoint cap.
	ErrEndpointCapacity = errors.New("assignment: pipeline endpoint capacity reached")

	// ErrDeviceAttached is returned when a device already belongs to a
	// different pipeline.
	ErrDeviceAttached = errors.New("assignment: device already attached to a pipeline")

	// ErrNotAttachedToSource is returned when a move names a source
	// pipeline that does not hold the device.
	ErrNotAttachedToSource = errors.New("assignment: device not attached to source pipeline")

	// ErrSamePipeline is returned when a move names the same pipeline
	// as both source and destination.
	ErrSamePipeline = errors.New("assignment: source and destination are the same pipeline")

	// ErrPipelineNotEmpty is returned when deleting a pipeline that
	// still holds devices. See NotEmptyError for the count.
	ErrPipelineNotEmpty = errors.New("assignment: pipeline still has devices")

	// ErrInconsistentState is returned when a failed move could not be
	// rolled back and the device may be attached nowhere. See
	// InconsistencyError for the details.
	ErrInconsistentState = errors.New("assignment: topology left inconsistent")
)

// AlreadyAttachedError reports which pipeline currently holds a device
// that an attach or move tried to claim.
type AlreadyAttachedError struct {
	DeviceID   string
	PipelineID string
}

func (e *AlreadyAttachedError) Error() string {
	return fmt.Sprintf("assignment: device %s already attached to pipeline %s", e.DeviceID, e.PipelineID)
}

func (e *AlreadyAttachedError) Is(target error) bool {
	return target == ErrDeviceAttached
}

// NotEmptyError reports the device count blocking a pipeline delete.
type NotEmptyError struct {
	PipelineID string
	Devices    int
}

func (e *NotEmptyError) Error() string {
	return fmt.Sprintf("assignment: pipeline %s still has %d devices", e.PipelineID, e.Devices)
}

func (e *NotEmptyError) Is(target error) bool {
	return target == ErrPipelineNotEmpty
}

// InconsistencyError reports a move whose rollback failed: the device
// was detached from the source but could be attached neither to the
// destination nor back to the source.
type InconsistencyError struct {
	DeviceID       string
	FromPipelineID string
	ToPipelineID   string
	Err            error
}

func (e *InconsistencyError) Error() string {
	return fmt.Sprintf("assignment: device %s detached from %s but not attached anywhere (move to %s): %v",
		e.DeviceID, e.FromPipelineID, e.ToPipelineID, e.Err)
}

func (e *InconsistencyError) Is(target error) bool {
	return target == ErrInconsistentState
}

func (e *InconsistencyError) Unwrap() error {
	return e.Err
}
