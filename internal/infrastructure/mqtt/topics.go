package mqtt

import "fmt"

// Topic prefixes for the Inlet MQTT hierarchy.
//
// All topology topics use the flat scheme: inlet/topology/{entity}/{id}[/event]
// This matches what downstream consumers (dashboards, provisioning tools)
// subscribe to.
const (
	// TopicPrefixTopology is the base for all topology change topics.
	TopicPrefixTopology = "inlet/topology"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "inlet/system"
)

// Topics provides builders for Inlet MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
//
//	topics := mqtt.Topics{}
//	topic := topics.DeviceAttached("dev-flow-01")
//	// Returns: "inlet/topology/device/dev-flow-01/attached"
type Topics struct{}

// =============================================================================
// Topology Topics
// =============================================================================

// Device returns the topic for device lifecycle events (created, updated, deleted).
//
// Example: inlet/topology/device/dev-flow-01
func (Topics) Device(deviceID string) string {
	return fmt.Sprintf("%s/device/%s", TopicPrefixTopology, deviceID)
}

// DeviceAttached returns the topic for device attachment events.
//
// Example: inlet/topology/device/dev-flow-01/attached
func (Topics) DeviceAttached(deviceID string) string {
	return fmt.Sprintf("%s/device/%s/attached", TopicPrefixTopology, deviceID)
}

// DeviceDetached returns the topic for device detachment events.
//
// Example: inlet/topology/device/dev-flow-01/detached
func (Topics) DeviceDetached(deviceID string) string {
	return fmt.Sprintf("%s/device/%s/detached", TopicPrefixTopology, deviceID)
}

// DeviceMoved returns the topic for atomic device move events.
//
// Example: inlet/topology/device/dev-flow-01/moved
func (Topics) DeviceMoved(deviceID string) string {
	return fmt.Sprintf("%s/device/%s/moved", TopicPrefixTopology, deviceID)
}

// Endpoint returns the topic for endpoint lifecycle events.
//
// Example: inlet/topology/endpoint/ep-collect-eu
func (Topics) Endpoint(endpointID string) string {
	return fmt.Sprintf("%s/endpoint/%s", TopicPrefixTopology, endpointID)
}

// Pipeline returns the topic for pipeline lifecycle events.
//
// Example: inlet/topology/pipeline/pl-ingest-main
func (Topics) Pipeline(pipelineID string) string {
	return fmt.Sprintf("%s/pipeline/%s", TopicPrefixTopology, pipelineID)
}

// PipelineEndpoints returns the topic for endpoint membership changes
// on a pipeline.
//
// Example: inlet/topology/pipeline/pl-ingest-main/endpoints
func (Topics) PipelineEndpoints(pipelineID string) string {
	return fmt.Sprintf("%s/pipeline/%s/endpoints", TopicPrefixTopology, pipelineID)
}

// =============================================================================
// System Topics
// =============================================================================

// SystemStatus returns the system status topic.
//
// Example: inlet/system/status
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixSystem)
}

// SystemTime returns the time sync topic.
//
// Example: inlet/system/time
func (Topics) SystemTime() string {
	return fmt.Sprintf("%s/time", TopicPrefixSystem)
}

// SystemShutdown returns the shutdown signal topic.
//
// Example: inlet/system/shutdown
func (Topics) SystemShutdown() string {
	return fmt.Sprintf("%s/shutdown", TopicPrefixSystem)
}

// =============================================================================
// Wildcard Patterns for Subscriptions
// =============================================================================

// AllDevices returns a pattern matching all device topology events.
//
// Pattern: inlet/topology/device/#
func (Topics) AllDevices() string {
	return fmt.Sprintf("%s/device/#", TopicPrefixTopology)
}

// AllEndpoints returns a pattern matching all endpoint topology events.
//
// Pattern: inlet/topology/endpoint/#
func (Topics) AllEndpoints() string {
	return fmt.Sprintf("%s/endpoint/#", TopicPrefixTopology)
}

// AllPipelines returns a pattern matching all pipeline topology events.
//
// Pattern: inlet/topology/pipeline/#
func (Topics) AllPipelines() string {
	return fmt.Sprintf("%s/pipeline/#", TopicPrefixTopology)
}

// AllTopology returns a pattern matching all topology events.
//
// Pattern: inlet/topology/#
func (Topics) AllTopology() string {
	return fmt.Sprintf("%s/#", TopicPrefixTopology)
}

// AllTopics returns a pattern matching all Inlet topics.
// Use with caution - this receives ALL traffic.
//
// Pattern: inlet/#
func (Topics) AllTopics() string {
	return "inlet/#"
}
