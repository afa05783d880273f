package generate

import (
	"context"

	"github.com/fyrsmithlabs/planward/internal/project"
)

// Request carries everything the generator may consult: the node under
// expansion, its stub, the approved masterplan, and the implemented
// content of its dependencies.
type Request struct {
	Node         project.FileNode
	Stub         string
	Masterplan   *project.Masterplan
	Dependencies map[string]string // path -> implemented content
}

// Artifact is the generator's output. Ambiguities, when present, name the
// unstated behavior the masterplan would need to settle; the node then
// stays stubbed until the operator clarifies.
type Artifact struct {
	Content     string
	Ambiguities []string
}

// Generator produces artifact content for one node.
type Generator interface {
	// Generate produces content intended to satisfy the node's declared
	// interface exactly.
	Generate(ctx context.Context, req *Request) (*Artifact, error)
}
