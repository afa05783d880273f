// Package store is the artifact store: durable, session-scoped persistence
// for session records and per-node artifact bodies. Everything else in the
// orchestrator reads and writes through it; a persistence failure is the
// one fatal error class, since no further progress can be guaranteed
// without durable state.
package store
