package endpoint

import "time"

// Endpoint represents a remote push target with credentials.
type Endpoint struct {
	// ID is server-assigned at creation time and immutable.
	ID string `json:"id"`

	// OwnerID identifies the creating account; immutable after creation.
	OwnerID string `json:"owner_id"`

	Name             string `json:"name"`
	DataPushEndpoint string `json:"data_push_endpoint"`
	AuthEndpoint     string `json:"auth_endpoint"`
	Username         string `json:"username"`
	Password         string `json:"password"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Key returns the endpoint id, satisfying the store entity contract.
func (e Endpoint) Key() string { return e.ID }

// Clone returns an independent copy.
func (e Endpoint) Clone() Endpoint { return e }

// Update carries the mutable fields; nil pointers mean "leave unchanged".
// Everything except id and owner may change.
type Update struct {
	Name             *string `json:"name,omitempty"`
	DataPushEndpoint *string `json:"data_push_endpoint,omitempty"`
	AuthEndpoint     *string `json:"auth_endpoint,omitempty"`
	Username         *string `json:"username,omitempty"`
	Password         *string `json:"password,omitempty"`
}
