// Package internal holds the Gather server internals.
//
// The tree is organized by responsibility:
// - api: routing, handlers, middleware and problem responses
// - domain: the user directory, event catalog and registration ledger
// - storage: repository interfaces with PostgreSQL and in-memory implementations
// - auth, audit, config, metrics, telemetry, validation: shared infrastructure
//
// Code in internal/ is not meant for external import.
package internal
