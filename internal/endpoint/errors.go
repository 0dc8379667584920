package endpoint

import "errors"

// Domain errors for the endpoint package, checked with errors.Is().
var (
	// ErrEndpointNotFound is returned when an endpoint id does not exist.
	ErrEndpointNotFound = errors.New("endpoint: not found")

	// ErrEndpointExists is returned on an id collision; with uuid ids this
	// indicates a programming error rather than an operator race.
	ErrEndpointExists = errors.New("endpoint: already exists")

	// ErrInvalidName is returned when the name is empty or too long.
	ErrInvalidName = errors.New("endpoint: invalid name")

	// ErrInvalidURL is returned when a push or auth URL is not an
	// absolute http/https URL.
	ErrInvalidURL = errors.New("endpoint: invalid url")

	// ErrInvalidCredentials is returned when username or password is
	// missing on create.
	ErrInvalidCredentials = errors.New("endpoint: credentials are required")

	// ErrInvalidOwner is returned when the owner id is missing.
	ErrInvalidOwner = errors.New("endpoint: owner is required")
)
