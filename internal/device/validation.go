package device

import "fmt"

// Validation limits.
const (
	maxIDLength       = 64
	maxNameLength     = 128
	maxLocationLength = 128
)

// Validate checks a device for creation. All fields are required; the id
// must follow the operator-facing convention of a short token made of
// letters, digits, dots, dashes and underscores (e.g. "IOT-DEV-001").
func Validate(d *Device) error {
	if err := ValidateID(d.ID); err != nil {
		return err
	}
	if d.OwnerID == "" {
		return ErrInvalidOwner
	}
	if d.Name == "" || len(d.Name) > maxNameLength {
		return fmt.Errorf("%w: must be 1-%d characters", ErrInvalidName, maxNameLength)
	}
	if d.Location == "" || len(d.Location) > maxLocationLength {
		return fmt.Errorf("%w: must be 1-%d characters", ErrInvalidLocation, maxLocationLength)
	}
	if d.DeviceKey == "" {
		return ErrInvalidKey
	}
	return nil
}

// ValidateID checks the shape of an operator-chosen device id.
func ValidateID(id string) error {
	if id == "" {
		return fmt.Errorf("%w: must not be empty", ErrInvalidID)
	}
	if len(id) > maxIDLength {
		return fmt.Errorf("%w: must be at most %d characters", ErrInvalidID, maxIDLength)
	}
	for _, r := range id {
		if !isIDRune(r) {
			return fmt.Errorf("%w: %q contains %q", ErrInvalidID, id, r)
		}
	}
	return nil
}

func isIDRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z':
		return true
	case r >= 'A' && r <= 'Z':
		return true
	case r >= '0' && r <= '9':
		return true
	case r == '-' || r == '_' || r == '.':
		return true
	}
	return false
}
