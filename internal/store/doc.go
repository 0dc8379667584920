// Package store provides the generic in-memory entity store shared by the
// device, endpoint and pipeline registries.
//
// A Store is an ordered, keyed collection with copy-on-read semantics and a
// change-notification stream. Each registry owns exactly one Store and uses
// it as the authoritative read path; the SQLite repositories are the
// durability layer behind it.
//
// # Guarantees
//
//   - Mutations are atomic: List never observes a half-applied Insert,
//     Replace or Remove.
//   - List returns entities in insertion order, stable until the next
//     mutation.
//   - Reads return clones; callers can freely modify what they get back.
//   - Watch delivers one Event per committed mutation, carrying the new
//     snapshot. Slow watchers lose the oldest pending event rather than
//     block a writer.
package store
