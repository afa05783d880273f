// Package project holds the artifact model for one orchestrated project:
// the approved Masterplan, the FileNodes derived from it, and the
// ProjectGraph of dependency edges between them. The graph is acyclic at
// all times; every mutation re-checks that invariant and rejects the
// offending change rather than repairing it silently.
package project
