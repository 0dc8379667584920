package pipeline

import "errors"

// Domain errors for the pipeline package, checked with errors.Is().
var (
	// ErrPipelineNotFound is returned when a pipeline id does not exist.
	ErrPipelineNotFound = errors.New("pipeline: not found")

	// ErrPipelineExists is returned on an id collision.
	ErrPipelineExists = errors.New("pipeline: already exists")

	// ErrInvalidName is returned when the name is empty or too long.
	ErrInvalidName = errors.New("pipeline: invalid name")

	// ErrInvalidStatus is returned for an unknown status value.
	ErrInvalidStatus = errors.New("pipeline: invalid status")

	// ErrInvalidMode is returned for an unknown execution mode.
	ErrInvalidMode = errors.New("pipeline: invalid execution mode")

	// ErrInvalidOwner is returned when the owner id is missing.
	ErrInvalidOwner = errors.New("pipeline: owner is required")

	// ErrDeviceAlreadyAssigned is surfaced by the repository when the
	// UNIQUE constraint on pipeline device rows rejects an attach. The
	// coordinator normally catches this earlier under its locks.
	ErrDeviceAlreadyAssigned = errors.New("pipeline: device already assigned to a pipeline")
)
