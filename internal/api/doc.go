// Package api implements the HTTP REST API and WebSocket server for Inlet Core.
//
// This package provides:
//   - REST endpoints for device, endpoint, and pipeline CRUD
//   - Assignment operations (attach, detach, atomic move) via the coordinator
//   - Paged listing of a pipeline's attached devices
//   - Audit trail of topology mutations (GET /api/v1/audit)
//   - WebSocket hub for real-time topology change broadcasts
//   - Middleware stack (request ID, logging, recovery, CORS, owner identity)
//   - TLS support for production deployments
//
// # Architecture
//
// The API server sits between operator tooling (dashboards, provisioning
// scripts, fleet agents) and the topology registries. Mutations flow through
// the assignment coordinator so topology rules are enforced under locks;
// change events flow back out through the WebSocket hub and MQTT.
//
// # Identity
//
// Callers identify their operator account with the X-Inlet-Owner header.
// List endpoints are scoped to that owner; entity reads and assignment
// operations address entities by id.
//
// # Graceful Degradation
//
// The server operates without MQTT — reads, mutations and WebSocket
// connections all work, only broker status reporting is omitted.
package api
