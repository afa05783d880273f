// Package expand fills stubbed FileNodes with functioning content in
// dependency order. Dependency-satisfied nodes expand concurrently on a
// bounded worker pool; graph status transitions are serialized behind the
// graph's writer lock, held per node, never across a whole run. Output
// must satisfy the declared interface exactly: drift reverts the node to
// stubbed, and underspecified behavior blocks the node with an operator
// question instead of a guess.
package expand
