package device

import "time"

// Device represents an IoT source registered with the platform.
// The schema lives in migrations/20260830_090000_initial_schema.up.sql.
type Device struct {
	// ID is operator-chosen at creation time and immutable afterwards.
	// It is globally unique across all owners.
	ID string `json:"id"`

	// OwnerID identifies the account that registered the device. It is
	// supplied by the session layer, treated as opaque, and immutable.
	OwnerID string `json:"owner_id"`

	Name     string `json:"name"`
	Location string `json:"location"`

	// DeviceKey is the opaque credential issued with the device. It is
	// generated before creation and immutable once stored.
	DeviceKey string `json:"device_key"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Key returns the device id, satisfying the store entity contract.
func (d Device) Key() string { return d.ID }

// Clone returns an independent copy. Device has no reference fields, so a
// value copy is sufficient; the method exists to satisfy the store
// contract and to stay safe if reference fields are added later.
func (d Device) Clone() Device { return d }

// Update carries the operator-mutable fields. Nil pointers mean "leave
// unchanged"; id, owner and device key can never be updated.
type Update struct {
	Name     *string `json:"name,omitempty"`
	Location *string `json:"location,omitempty"`
}
