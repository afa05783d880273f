package session

import (
	"time"

	"github.com/fyrsmithlabs/planward/internal/elicit"
	"github.com/fyrsmithlabs/planward/internal/project"
)

// Phase is one stage of the orchestration lifecycle.
type Phase string

const (
	// PhaseEliciting gathers requirements into the masterplan.
	PhaseEliciting Phase = "eliciting"

	// PhaseScaffolding derives the graph and emits stub artifacts.
	PhaseScaffolding Phase = "scaffolding"

	// PhaseImplementing expands stubs into implemented artifacts.
	PhaseImplementing Phase = "implementing"

	// PhaseExtending integrates incremental features. Re-entrant: each
	// cycle appends its own phase record, indefinitely.
	PhaseExtending Phase = "extending"
)

// Next returns the phase that follows p. Extending recurs.
func Next(p Phase) (Phase, bool) {
	switch p {
	case PhaseEliciting:
		return PhaseScaffolding, true
	case PhaseScaffolding:
		return PhaseImplementing, true
	case PhaseImplementing, PhaseExtending:
		return PhaseExtending, true
	}
	return "", false
}

// CriterionResult is one evaluated exit criterion.
type CriterionResult struct {
	Name   string `json:"name"`
	Met    bool   `json:"met"`
	Detail string `json:"detail,omitempty"`
}

// Record is one append-only phase log entry. The log answers "is this
// session allowed to progress" and supports audit and rollback.
type Record struct {
	Phase    Phase             `json:"phase"`
	At       time.Time         `json:"at"`
	Criteria []CriterionResult `json:"criteria,omitempty"`
	Passed   bool              `json:"passed"`
	Approved bool              `json:"approved"`
	Note     string            `json:"note,omitempty"`
}

// Question is an ambiguity surfaced to the operator. Blocking: the node
// it names stays stubbed until the operator clarifies.
type Question struct {
	Node      project.NodeID `json:"node"`
	Path      string         `json:"path"`
	Questions []string       `json:"questions"`
	At        time.Time      `json:"at"`
}

// Session is one project's full lifecycle through the phase machine.
type Session struct {
	ID        string    `json:"id"`
	Phase     Phase     `json:"phase"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Elicitation *elicit.State       `json:"elicitation,omitempty"`
	Masterplan  *project.Masterplan `json:"masterplan,omitempty"`
	Graph       *project.Graph      `json:"graph,omitempty"`

	PhaseLog []Record   `json:"phase_log,omitempty"`
	Pending  []Question `json:"pending,omitempty"`

	// ActiveDelta holds the node IDs added by the in-flight extension
	// cycle; the extending exit gate applies only to these.
	ActiveDelta []project.NodeID `json:"active_delta,omitempty"`
}

// Log appends a phase record and bumps the update timestamp.
func (s *Session) Log(r Record) {
	if r.At.IsZero() {
		r.At = time.Now().UTC()
	}
	s.PhaseLog = append(s.PhaseLog, r)
	s.UpdatedAt = time.Now().UTC()
}

// Ask records a blocking operator question for a node.
func (s *Session) Ask(node project.NodeID, path string, questions []string) {
	s.Pending = append(s.Pending, Question{
		Node:      node,
		Path:      path,
		Questions: questions,
		At:        time.Now().UTC(),
	})
}

// ClearPending drops resolved questions for a node.
func (s *Session) ClearPending(node project.NodeID) {
	kept := s.Pending[:0]
	for _, q := range s.Pending {
		if q.Node != node {
			kept = append(kept, q)
		}
	}
	s.Pending = kept
}
