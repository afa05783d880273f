// Package integrate re-enters a fully implemented project graph to add a
// new feature: an explicit masterplan amendment, graph extension scoped
// to the new feature, then stubbing and expansion of the delta only.
// Prior work is protected by a non-regression contract: existing
// implemented nodes are re-validated when newly depended upon, but their
// content is never altered without explicit operator approval.
package integrate

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/planward/internal/expand"
	"github.com/fyrsmithlabs/planward/internal/project"
	"github.com/fyrsmithlabs/planward/internal/scaffold"
	"github.com/fyrsmithlabs/planward/internal/session"
)

// Result summarizes one integration cycle.
type Result struct {
	// Added is the delta: node IDs derived for the new feature.
	Added []project.NodeID

	// Revalidated lists pre-existing nodes whose interfaces were
	// re-checked because the delta now depends on them.
	Revalidated []string

	// Drifts are pre-existing nodes that failed re-validation and were
	// reverted to stubbed.
	Drifts []expand.Drift

	// Expansion is the expander's report for the delta.
	Expansion *expand.Report
}

// Integrator wires the builder, scaffolder and expander for delta runs.
type Integrator struct {
	builder  *project.Builder
	scaffold *scaffold.Generator
	expander *expand.Expander
	logger   *zap.Logger
}

// New creates an integrator.
func New(builder *project.Builder, sc *scaffold.Generator, ex *expand.Expander, logger *zap.Logger) *Integrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Integrator{builder: builder, scaffold: sc, expander: ex, logger: logger}
}

// Integrate runs one extension cycle for a new feature. The session must
// be in the extending phase with no other extension in flight. On return
// the session's ActiveDelta holds the new nodes; the extending exit gate
// then applies to exactly that set.
func (i *Integrator) Integrate(ctx context.Context, s *session.Session, f project.Feature, description string) (*Result, error) {
	if s.Phase != session.PhaseExtending {
		return nil, fmt.Errorf("session %s is in phase %s; extensions require extending", s.ID, s.Phase)
	}
	if len(s.ActiveDelta) > 0 {
		return nil, fmt.Errorf("extension already in progress (%d nodes pending)", len(s.ActiveDelta))
	}
	if s.Masterplan == nil || s.Graph == nil {
		return nil, fmt.Errorf("session %s has no approved masterplan or graph", s.ID)
	}
	if _, exists := s.Masterplan.FeatureByName(f.Name); exists {
		return nil, fmt.Errorf("feature %q already exists in the masterplan", f.Name)
	}

	// Graph first: a derivation failure must not leave a half-recorded
	// amendment behind.
	delta, err := i.builder.Extend(s.Graph, f)
	if err != nil {
		return nil, err
	}

	amendment := s.Masterplan.Amend(f, description)
	s.Log(session.Record{
		Phase:    session.PhaseExtending,
		Passed:   true,
		Approved: true,
		Note:     fmt.Sprintf("masterplan amended: %s (feature %q)", amendment.Description, f.Name),
	})

	if err := i.scaffold.Run(ctx, s.ID, s.Graph, delta); err != nil {
		return nil, err
	}

	// Existing nodes the delta now leans on get their declared interface
	// re-checked; their content is left untouched.
	touched := i.touchedExisting(s.Graph, delta)
	drifts, err := i.expander.Revalidate(ctx, s.ID, s.Graph, touched)
	if err != nil {
		return nil, err
	}

	report, err := i.expander.Run(ctx, s.ID, s.Graph, s.Masterplan, delta)
	if err != nil {
		return nil, err
	}
	for _, a := range report.Ambiguities {
		s.Ask(a.Node, a.Path, a.Err.Questions)
	}

	s.ActiveDelta = delta

	result := &Result{
		Added:     delta,
		Drifts:    drifts,
		Expansion: report,
	}
	for _, id := range touched {
		result.Revalidated = append(result.Revalidated, s.Graph.PathOf(id))
	}

	i.logger.Info("integrated feature",
		zap.String("session_id", s.ID),
		zap.String("feature", f.Name),
		zap.Int("delta", len(delta)),
		zap.Int("revalidated", len(touched)),
	)
	return result, nil
}

// touchedExisting returns pre-existing nodes that delta nodes directly
// depend on.
func (i *Integrator) touchedExisting(g *project.Graph, delta []project.NodeID) []project.NodeID {
	inDelta := make(map[project.NodeID]bool, len(delta))
	for _, id := range delta {
		inDelta[id] = true
	}

	seen := make(map[project.NodeID]bool)
	var touched []project.NodeID
	for _, id := range delta {
		n, ok := g.Node(id)
		if !ok {
			continue
		}
		for _, dep := range n.DependsOn {
			if !inDelta[dep] && !seen[dep] {
				seen[dep] = true
				touched = append(touched, dep)
			}
		}
	}
	return touched
}
