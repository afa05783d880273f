package project

// NodeID uniquely identifies a FileNode within a session.
type NodeID string

// Status is the lifecycle state of a FileNode.
type Status string

const (
	// StatusPlanned means the node exists only in the graph.
	StatusPlanned Status = "planned"

	// StatusStubbed means a placeholder artifact with the declared
	// interface has been emitted.
	StatusStubbed Status = "stubbed"

	// StatusImplemented means the artifact satisfies the declared
	// interface. Implemented nodes are immutable short of an explicit
	// approved revision.
	StatusImplemented Status = "implemented"
)

// Operation is one named entry in a node's declared public interface.
type Operation struct {
	Name      string `json:"name"`
	Signature string `json:"signature"`
	Doc       string `json:"doc,omitempty"`
}

// FileNode is one unit of the target codebase.
type FileNode struct {
	ID      NodeID `json:"id"`
	Path    string `json:"path"`
	Purpose string `json:"purpose"`

	// Interface is the declared public surface the implemented artifact
	// must expose, no more and no less.
	Interface []Operation `json:"interface"`

	Status Status `json:"status"`

	// DependsOn lists nodes this one requires. A node may not be
	// implemented before every dependency is at least stubbed.
	DependsOn []NodeID `json:"depends_on,omitempty"`

	// Feature names the masterplan feature this node realizes.
	Feature string `json:"feature"`

	// Aspect records which facet of the feature this node covers.
	Aspect Aspect `json:"aspect"`
}

// canTransition reports whether a status change is legal. The only
// permitted regression is implemented -> stubbed (interface drift
// recovery).
func canTransition(from, to Status) bool {
	switch from {
	case StatusPlanned:
		return to == StatusStubbed
	case StatusStubbed:
		return to == StatusImplemented
	case StatusImplemented:
		return to == StatusStubbed
	}
	return false
}
