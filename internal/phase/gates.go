package phase

import (
	"context"
	"fmt"
	"strings"

	"github.com/fyrsmithlabs/planward/internal/elicit"
	"github.com/fyrsmithlabs/planward/internal/project"
	"github.com/fyrsmithlabs/planward/internal/session"
)

// Gate evaluates one phase's exit criteria against the session.
type Gate interface {
	// Name returns the gate identifier.
	Name() string

	// Check evaluates every criterion; it never short-circuits, so a
	// failed gate reports the full list of unmet criteria.
	Check(ctx context.Context, s *session.Session) []session.CriterionResult
}

// GateUnmetError reports a blocked transition with the specific missing
// criteria. Recoverable by operator action; the session is unchanged.
type GateUnmetError struct {
	Phase    session.Phase
	Criteria []session.CriterionResult
}

func (e *GateUnmetError) Error() string {
	var unmet []string
	for _, c := range e.Criteria {
		if !c.Met {
			if c.Detail != "" {
				unmet = append(unmet, fmt.Sprintf("%s (%s)", c.Name, c.Detail))
			} else {
				unmet = append(unmet, c.Name)
			}
		}
	}
	return fmt.Sprintf("phase %s exit gate unmet: %s", e.Phase, strings.Join(unmet, "; "))
}

// ElicitingGate gates eliciting -> scaffolding: the masterplan must exist
// with every required section present.
type ElicitingGate struct{}

func (g *ElicitingGate) Name() string { return "eliciting-exit" }

func (g *ElicitingGate) Check(ctx context.Context, s *session.Session) []session.CriterionResult {
	var out []session.CriterionResult

	report := elicit.NewEngine(s.Elicitation).Report()
	out = append(out, session.CriterionResult{
		Name:   "checklist complete",
		Met:    report.Complete(),
		Detail: unansweredDetail(report),
	})

	if s.Masterplan == nil {
		out = append(out, session.CriterionResult{
			Name:   "masterplan finalized",
			Met:    false,
			Detail: "no masterplan; run finalize",
		})
		return out
	}
	out = append(out, session.CriterionResult{Name: "masterplan finalized", Met: true})

	missing := s.Masterplan.Validate()
	out = append(out, session.CriterionResult{
		Name:   "masterplan sections present",
		Met:    len(missing) == 0,
		Detail: strings.Join(missing, "; "),
	})
	return out
}

// ScaffoldingGate gates scaffolding -> implementing: every node stubbed
// or better, every path unique.
type ScaffoldingGate struct{}

func (g *ScaffoldingGate) Name() string { return "scaffolding-exit" }

func (g *ScaffoldingGate) Check(ctx context.Context, s *session.Session) []session.CriterionResult {
	var out []session.CriterionResult

	if s.Graph == nil || len(s.Graph.Nodes) == 0 {
		return append(out, session.CriterionResult{
			Name:   "project graph built",
			Met:    false,
			Detail: "graph is empty; run scaffold",
		})
	}
	out = append(out, session.CriterionResult{Name: "project graph built", Met: true})
	out = append(out, stubbedCriterion(s.Graph, s.Graph.IDs()))
	out = append(out, uniquePathsCriterion(s.Graph))
	return out
}

// ImplementingGate gates implementing -> extending: every node
// implemented, dependency invariant intact.
type ImplementingGate struct{}

func (g *ImplementingGate) Name() string { return "implementing-exit" }

func (g *ImplementingGate) Check(ctx context.Context, s *session.Session) []session.CriterionResult {
	if s.Graph == nil {
		return []session.CriterionResult{{Name: "project graph built", Met: false, Detail: "graph is empty"}}
	}
	return implementedCriteria(s.Graph, s.Graph.IDs())
}

// ExtendingGate gates one extension cycle: the identical implemented
// criteria applied only to the newly added nodes.
type ExtendingGate struct{}

func (g *ExtendingGate) Name() string { return "extending-exit" }

func (g *ExtendingGate) Check(ctx context.Context, s *session.Session) []session.CriterionResult {
	if len(s.ActiveDelta) == 0 {
		return []session.CriterionResult{{
			Name:   "extension in progress",
			Met:    false,
			Detail: "no extension cycle started; run extend",
		}}
	}
	out := []session.CriterionResult{{Name: "extension in progress", Met: true}}
	return append(out, implementedCriteria(s.Graph, s.ActiveDelta)...)
}

func implementedCriteria(g *project.Graph, scope []project.NodeID) []session.CriterionResult {
	var notImplemented, depBroken []string
	for _, id := range scope {
		n, ok := g.Node(id)
		if !ok {
			notImplemented = append(notImplemented, string(id))
			continue
		}
		if n.Status != project.StatusImplemented {
			notImplemented = append(notImplemented, n.Path)
		}
		for _, dep := range n.DependsOn {
			d, ok := g.Node(dep)
			if !ok || d.Status == project.StatusPlanned {
				depBroken = append(depBroken, fmt.Sprintf("%s -> %s", n.Path, g.PathOf(dep)))
			}
		}
	}
	return []session.CriterionResult{
		{
			Name:   "all nodes implemented",
			Met:    len(notImplemented) == 0,
			Detail: strings.Join(notImplemented, ", "),
		},
		{
			Name:   "dependencies at least stubbed",
			Met:    len(depBroken) == 0,
			Detail: strings.Join(depBroken, ", "),
		},
	}
}

func stubbedCriterion(g *project.Graph, scope []project.NodeID) session.CriterionResult {
	var planned []string
	for _, id := range scope {
		if n, ok := g.Node(id); ok && n.Status == project.StatusPlanned {
			planned = append(planned, n.Path)
		}
	}
	return session.CriterionResult{
		Name:   "all nodes stubbed",
		Met:    len(planned) == 0,
		Detail: strings.Join(planned, ", "),
	}
}

func uniquePathsCriterion(g *project.Graph) session.CriterionResult {
	seen := make(map[string]bool, len(g.Nodes))
	var dupes []string
	for _, n := range g.Nodes {
		if seen[n.Path] {
			dupes = append(dupes, n.Path)
		}
		seen[n.Path] = true
	}
	return session.CriterionResult{
		Name:   "paths unique",
		Met:    len(dupes) == 0,
		Detail: strings.Join(dupes, ", "),
	}
}

func unansweredDetail(r elicit.Report) string {
	if r.Complete() {
		return ""
	}
	names := make([]string, 0, len(r.Unanswered))
	for _, t := range r.Unanswered {
		names = append(names, string(t))
	}
	return "unanswered: " + strings.Join(names, ", ")
}
