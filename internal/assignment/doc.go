// Package assignment coordinates the topology rules that span more than
// one registry: the endpoint capacity cap, device exclusivity, deletion
// guards and the atomic device move. All membership mutations go through
// the Coordinator, which serialises work per pipeline and per device so
// two requests can never interleave on the same entity.
package assignment
