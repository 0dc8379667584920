package pipeline

import (
	"slices"
	"time"
)

// MaxEndpoints is the hard cap on endpoints attached to one pipeline.
const MaxEndpoints = 4

// Status describes whether a pipeline is running.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// ValidStatus reports whether s is a known pipeline status.
func ValidStatus(s Status) bool {
	return s == StatusActive || s == StatusInactive
}

// ExecutionMode describes how a pipeline processes data.
type ExecutionMode string

const (
	ModeStreaming ExecutionMode = "streaming"
	ModeBatch     ExecutionMode = "batch"
	ModeManual    ExecutionMode = "manual"
)

// ValidExecutionMode reports whether m is a known execution mode.
func ValidExecutionMode(m ExecutionMode) bool {
	return m == ModeStreaming || m == ModeBatch || m == ModeManual
}

// Pipeline is a routing of device data towards a set of endpoints.
// EndpointIDs and DeviceIDs hold current memberships in attach order.
type Pipeline struct {
	ID            string        `json:"id"`
	OwnerID       string        `json:"owner_id"`
	Name          string        `json:"name"`
	Description   string        `json:"description,omitempty"`
	Status        Status        `json:"status"`
	ExecutionMode ExecutionMode `json:"execution_mode"`
	EndpointIDs   []string      `json:"endpoint_ids"`
	DeviceIDs     []string      `json:"device_ids"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// Key returns the pipeline id for store indexing.
func (p Pipeline) Key() string { return p.ID }

// Clone returns a deep copy, so cached pipelines can be handed out
// without aliasing the membership slices.
func (p Pipeline) Clone() Pipeline {
	cp := p
	cp.EndpointIDs = slices.Clone(p.EndpointIDs)
	cp.DeviceIDs = slices.Clone(p.DeviceIDs)
	return cp
}

// Update carries optional fields for a partial pipeline update.
// Nil fields are left unchanged. Memberships are not updatable here;
// they change through the attach and detach operations.
type Update struct {
	Name          *string        `json:"name,omitempty"`
	Description   *string        `json:"description,omitempty"`
	Status        *Status        `json:"status,omitempty"`
	ExecutionMode *ExecutionMode `json:"execution_mode,omitempty"`
}
