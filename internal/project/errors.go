package project

import (
	"fmt"
	"strings"
)

// PathCollisionError reports two FileNodes resolving to the same path.
// Collisions are blocked at insertion; callers recover by re-qualifying
// the incoming path.
type PathCollisionError struct {
	Path     string
	Existing NodeID
	Incoming NodeID
}

func (e *PathCollisionError) Error() string {
	return fmt.Sprintf("path collision at %q: node %s already owns this path (incoming %s)",
		e.Path, e.Existing, e.Incoming)
}

// CycleError reports a dependency edge that would create a cycle. The
// insertion is aborted and one stable witness path is reported.
type CycleError struct {
	// Path is the cycle witness in node-path form, closing on itself.
	Path []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("dependency cycle: %s", strings.Join(e.Path, " -> "))
}

// StatusError reports an illegal FileNode status transition. Statuses only
// move planned -> stubbed -> implemented, with the single allowed
// regression implemented -> stubbed on interface drift.
type StatusError struct {
	Node NodeID
	From Status
	To   Status
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("node %s: illegal status transition %s -> %s", e.Node, e.From, e.To)
}

// UnknownNodeError reports a reference to a node the graph does not hold.
type UnknownNodeError struct {
	Node NodeID
}

func (e *UnknownNodeError) Error() string {
	return fmt.Sprintf("unknown node: %s", e.Node)
}
