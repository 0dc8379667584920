// Package pipeline manages data pipelines and their endpoint and device
// memberships. A pipeline carries at most MaxEndpoints endpoints, and a
// device can be attached to at most one pipeline at a time; the
// assignment coordinator enforces both while the repository backs the
// device rule with a UNIQUE constraint as a second line of defence.
package pipeline
