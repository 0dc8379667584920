package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteTopologyEvent records a topology change to the event archive.
//
// This is the primary method for recording entity lifecycle events.
// The write is non-blocking; data is batched and sent asynchronously.
//
// Parameters:
//   - entity: The entity kind ("device", "endpoint", "pipeline")
//   - entityID: Unique identifier for the entity
//   - action: The change that occurred ("created", "updated", "deleted")
//
// Example:
//
//	client.WriteTopologyEvent("device", "dev-flow-01", "created")
//	client.WriteTopologyEvent("pipeline", "pl-ingest-main", "deleted")
func (c *Client) WriteTopologyEvent(entity string, entityID string, action string) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"topology_events",
		map[string]string{
			"entity": entity,
			"action": action,
		},
		map[string]interface{}{
			"entity_id": entityID,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteAssignmentChange records a device attachment, detachment, or move.
//
// Used for auditing which pipeline carried a device over time.
//
// Parameters:
//   - deviceID: Device identifier
//   - pipelineID: The pipeline involved (destination pipeline for moves)
//   - action: "attached", "detached", or "moved"
func (c *Client) WriteAssignmentChange(deviceID string, pipelineID string, action string) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"assignments",
		map[string]string{
			"action": action,
		},
		map[string]interface{}{
			"device_id":   deviceID,
			"pipeline_id": pipelineID,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WritePipelineLoad records the current membership counts of a pipeline.
//
// Sampled after each membership change so load over time can be graphed.
//
// Parameters:
//   - pipelineID: Pipeline identifier
//   - devices: Number of attached devices
//   - endpoints: Number of attached endpoints
func (c *Client) WritePipelineLoad(pipelineID string, devices int, endpoints int) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"pipeline_load",
		map[string]string{
			"pipeline_id": pipelineID,
		},
		map[string]interface{}{
			"devices":   devices,
			"endpoints": endpoints,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and fields.
//
// Use this for custom measurements that don't fit the helper methods.
//
// Parameters:
//   - measurement: The measurement name (table)
//   - tags: Key-value pairs for indexing (low cardinality)
//   - fields: Key-value pairs for the actual data
//
// Example:
//
//	client.WritePoint("system_stats",
//	    map[string]string{"host": "core-01"},
//	    map[string]interface{}{"cpu_percent": 45.2, "memory_mb": 512})
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}

// WritePointWithTime writes a custom point with a specific timestamp.
//
// Use this when the timestamp is not "now" (e.g., delayed data).
//
// Parameters:
//   - measurement: The measurement name
//   - tags: Key-value pairs for indexing
//   - fields: Key-value pairs for the data
//   - timestamp: The exact time for this data point
func (c *Client) WritePointWithTime(measurement string, tags map[string]string, fields map[string]interface{}, timestamp time.Time) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, timestamp)
	c.writeAPI.WritePoint(point)
}
