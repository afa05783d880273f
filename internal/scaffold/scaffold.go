// Package scaffold emits stub artifacts for planned FileNodes: the full
// path (disambiguator against same-named nodes elsewhere in the graph),
// the one-sentence purpose, placeholder interface declarations, and
// explicit markers for where logic belongs. Stub generation is
// idempotent; regenerating an already-stubbed node yields a structurally
// identical artifact.
package scaffold

import (
	"context"
	"fmt"
	"strings"
	"text/template"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/planward/internal/project"
	"github.com/fyrsmithlabs/planward/internal/store"
)

// Marker is the explicit "logic belongs here" marker carried by every
// stub operation. The expander treats a leftover marker as an
// unimplemented surface.
const Marker = "TO BE IMPLEMENTED"

var stubTemplate = template.Must(template.New("stub").Parse(`# Path: {{.Path}}
# Purpose: {{.Purpose}}
# Feature: {{.Feature}} ({{.Aspect}})
{{range .Interface}}
def {{.Name}}(**kwargs):
    """{{.Signature}}"""
    raise NotImplementedError  # {{$.Marker}}
{{end}}`))

// Generator renders stubs and records them in the artifact store.
type Generator struct {
	store  store.Store
	logger *zap.Logger
}

// NewGenerator creates a scaffold generator.
func NewGenerator(st store.Store, logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{store: st, logger: logger}
}

// Render produces the stub text for one node. Deterministic: the same
// node always renders the same stub.
func Render(n *project.FileNode) (string, error) {
	var b strings.Builder
	data := struct {
		*project.FileNode
		Marker string
	}{n, Marker}
	if err := stubTemplate.Execute(&b, data); err != nil {
		return "", fmt.Errorf("render stub %s: %w", n.Path, err)
	}
	return b.String(), nil
}

// Run stubs every node in scope. Planned nodes transition to stubbed;
// already-stubbed nodes are regenerated identically, so repeated runs are
// safe. Nodes past stubbed are left alone.
func (g *Generator) Run(ctx context.Context, sessionID string, graph *project.Graph, scope []project.NodeID) error {
	for _, id := range scope {
		n, ok := graph.Node(id)
		if !ok {
			return &project.UnknownNodeError{Node: id}
		}
		if n.Status == project.StatusImplemented {
			continue
		}

		stub, err := Render(n)
		if err != nil {
			return err
		}
		if err := g.store.PutArtifact(ctx, sessionID, n.Path, []byte(stub)); err != nil {
			return err
		}
		if n.Status == project.StatusPlanned {
			if err := graph.SetStatus(n.ID, project.StatusStubbed); err != nil {
				return err
			}
		}
		g.logger.Debug("stubbed node",
			zap.String("session_id", sessionID),
			zap.String("path", n.Path),
		)
	}
	return nil
}
