package phase

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/planward/internal/session"
)

// Transition is the result of a successful advance: where the session
// moved and what the next phase's component must consume.
type Transition struct {
	From  session.Phase
	To    session.Phase
	Entry string
}

// Machine enforces the phase order. It holds no per-session state; the
// session's current phase is the single source of truth.
type Machine struct {
	gates  map[session.Phase]Gate
	logger *zap.Logger
}

// NewMachine creates a machine with the standard exit gates registered.
func NewMachine(logger *zap.Logger) *Machine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Machine{
		gates: map[session.Phase]Gate{
			session.PhaseEliciting:    &ElicitingGate{},
			session.PhaseScaffolding:  &ScaffoldingGate{},
			session.PhaseImplementing: &ImplementingGate{},
			session.PhaseExtending:    &ExtendingGate{},
		},
		logger: logger,
	}
}

// GateFor returns the exit gate of a phase.
func (m *Machine) GateFor(p session.Phase) (Gate, bool) {
	g, ok := m.gates[p]
	return g, ok
}

// Check evaluates the current phase's exit gate without advancing.
func (m *Machine) Check(ctx context.Context, s *session.Session) ([]session.CriterionResult, error) {
	gate, ok := m.gates[s.Phase]
	if !ok {
		return nil, fmt.Errorf("no exit gate for phase %s", s.Phase)
	}
	return gate.Check(ctx, s), nil
}

// Advance attempts the transition out of the session's current phase.
// Operator approval is a required, explicit input; the machine never
// self-approves. On an unmet gate it returns a GateUnmetError carrying
// every failed criterion and leaves the session unchanged. On success it
// appends a phase record, advances the session, and describes the entry
// for the next phase.
func (m *Machine) Advance(ctx context.Context, s *session.Session, approved bool) (*Transition, error) {
	gate, ok := m.gates[s.Phase]
	if !ok {
		return nil, fmt.Errorf("no exit gate for phase %s", s.Phase)
	}

	criteria := gate.Check(ctx, s)
	criteria = append(criteria, session.CriterionResult{
		Name: "operator approval",
		Met:  approved,
	})

	for _, c := range criteria {
		if !c.Met {
			return nil, &GateUnmetError{Phase: s.Phase, Criteria: criteria}
		}
	}

	next, ok := session.Next(s.Phase)
	if !ok {
		return nil, fmt.Errorf("phase %s has no successor", s.Phase)
	}

	from := s.Phase
	s.Log(session.Record{
		Phase:    from,
		Criteria: criteria,
		Passed:   true,
		Approved: approved,
		Note:     fmt.Sprintf("advanced to %s", next),
	})
	s.Phase = next
	if from == session.PhaseExtending {
		// The completed extension cycle's delta is settled.
		s.ActiveDelta = nil
	}

	m.logger.Info("phase advanced",
		zap.String("session_id", s.ID),
		zap.String("from", string(from)),
		zap.String("to", string(next)),
	)

	return &Transition{From: from, To: next, Entry: entryFor(next)}, nil
}

// entryFor describes what the next phase's component consumes.
func entryFor(p session.Phase) string {
	switch p {
	case session.PhaseScaffolding:
		return "approved masterplan: build the project graph and emit stubs"
	case session.PhaseImplementing:
		return "stubbed project graph: expand nodes in dependency order"
	case session.PhaseExtending:
		return "implemented project graph: integrate incremental features"
	}
	return ""
}
