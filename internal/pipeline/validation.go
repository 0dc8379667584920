package pipeline

import "fmt"

const (
	maxNameLength        = 128
	maxDescriptionLength = 512
)

// Validate checks a pipeline for creation or update.
func Validate(p *Pipeline) error {
	if p.OwnerID == "" {
		return ErrInvalidOwner
	}
	if p.Name == "" || len(p.Name) > maxNameLength {
		return fmt.Errorf("%w: must be 1-%d characters", ErrInvalidName, maxNameLength)
	}
	if len(p.Description) > maxDescriptionLength {
		return fmt.Errorf("%w: description exceeds %d characters", ErrInvalidName, maxDescriptionLength)
	}
	if !ValidStatus(p.Status) {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, p.Status)
	}
	if !ValidExecutionMode(p.ExecutionMode) {
		return fmt.Errorf("%w: %q", ErrInvalidMode, p.ExecutionMode)
	}
	return nil
}
