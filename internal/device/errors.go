package device

import "errors"

// Domain errors for the device package.
//
// These errors can be checked using errors.Is():
//
//	if errors.Is(err, device.ErrDeviceNotFound) {
//	    // handle not found case
//	}
var (
	// ErrDeviceNotFound is returned when a device id does not exist.
	ErrDeviceNotFound = errors.New("device: not found")

	// ErrDeviceExists is returned when a device id is already claimed,
	// by any owner. Device ids are operator-chosen, so this is the
	// commit-time uniqueness check rather than a rare key collision.
	ErrDeviceExists = errors.New("device: id already claimed")

	// ErrInvalidID is returned when a device id is empty or malformed.
	ErrInvalidID = errors.New("device: invalid id")

	// ErrInvalidName is returned when a device name is empty or too long.
	ErrInvalidName = errors.New("device: invalid name")

	// ErrInvalidLocation is returned when a location is empty or too long.
	ErrInvalidLocation = errors.New("device: invalid location")

	// ErrInvalidKey is returned when the device key is missing on create.
	ErrInvalidKey = errors.New("device: invalid device key")

	// ErrInvalidOwner is returned when the owner id is missing; a device
	// with no owner cannot exist.
	ErrInvalidOwner = errors.New("device: owner is required")
)
