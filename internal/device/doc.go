// Package device provides the Device Registry for Inlet Core.
//
// Devices are IoT sources registered by operators. Unlike every other
// entity in the system their identifiers are operator-chosen, not
// server-assigned, and must be unique across the whole installation —
// two operators working under different accounts may independently pick
// the same human-readable id (e.g. "IOT-DEV-001"), so uniqueness is
// re-validated at the moment of commit rather than trusted from a
// caller-side pre-check.
//
// # Key Types
//
//   - Device: the registered source (id, owner, name, location, key)
//   - Registry: cached, thread-safe CRUD over a Repository
//   - Repository: persistence interface with a SQLite implementation
//
// # Usage
//
//	repo := device.NewSQLiteRepository(db)
//	registry := device.NewRegistry(repo)
//	if err := registry.Load(ctx); err != nil { ... }
//
//	dev := &device.Device{ID: "IOT-DEV-001", OwnerID: owner, Name: "Plant A feeder", ...}
//	err := registry.Create(ctx, dev)
//
// Attachment of devices to pipelines is not handled here; membership is
// owned by the pipeline package and sequenced by the assignment
// coordinator.
package device
