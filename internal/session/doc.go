// Package session models one project's end-to-end lifecycle: its current
// phase, masterplan, project graph, append-only phase log, and pending
// operator questions. The current phase is an explicit field on the
// Session value, never shared mutable global state, so independent
// sessions coexist safely.
package session
