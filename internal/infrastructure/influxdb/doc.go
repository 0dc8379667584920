// Package influxdb provides InfluxDB connectivity for Inlet Core.
//
// It wraps the official influxdb-client-go v2 library with Inlet-specific
// patterns for connection management, event writing, and health monitoring.
//
// # Purpose
//
// This package handles time-series archival for:
//   - Topology change events (entity created/updated/deleted)
//   - Device assignment history (attach, detach, move)
//   - Pipeline load samples (device and endpoint counts over time)
//
// # Usage
//
//	cfg := config.InfluxDBConfig{
//	    URL:    "http://localhost:8086",
//	    Token:  "your-token",
//	    Org:    "inlet",
//	    Bucket: "topology",
//	}
//
//	client, err := influxdb.Connect(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	// Record an assignment change
//	client.WriteAssignmentChange("dev-flow-01", "pl-ingest-main", "attached")
//
// # Thread Safety
//
// All methods are safe for concurrent use from multiple goroutines.
// The underlying write API uses non-blocking batched writes.
//
// # Error Handling
//
// Write operations are non-blocking and batch errors are logged via a callback.
// Connection and health check errors are returned directly.
//
// # Performance
//
// Writes are batched according to config.yaml settings (batch_size, flush_interval).
// This reduces network overhead when assignment churn is high.
package influxdb
