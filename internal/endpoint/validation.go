package endpoint

import (
	"fmt"
	"net/url"
)

const maxNameLength = 128

// Validate checks an endpoint for creation. All fields are required and
// both URLs must be absolute http or https.
func Validate(e *Endpoint) error {
	if e.OwnerID == "" {
		return ErrInvalidOwner
	}
	if e.Name == "" || len(e.Name) > maxNameLength {
		return fmt.Errorf("%w: must be 1-%d characters", ErrInvalidName, maxNameLength)
	}
	if err := validateURL("data_push_endpoint", e.DataPushEndpoint); err != nil {
		return err
	}
	if err := validateURL("auth_endpoint", e.AuthEndpoint); err != nil {
		return err
	}
	if e.Username == "" || e.Password == "" {
		return ErrInvalidCredentials
	}
	return nil
}

// validateURL checks that raw is an absolute http/https URL with a host.
func validateURL(field, raw string) error {
	if raw == "" {
		return fmt.Errorf("%w: %s is required", ErrInvalidURL, field)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidURL, field, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: %s must use http or https", ErrInvalidURL, field)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: %s must be absolute", ErrInvalidURL, field)
	}
	return nil
}
