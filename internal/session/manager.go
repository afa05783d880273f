package session

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/planward/internal/elicit"
	"github.com/fyrsmithlabs/planward/internal/project"
	"github.com/fyrsmithlabs/planward/internal/store"
)

// Manager persists sessions through the artifact store. One manager
// serves many isolated sessions.
type Manager struct {
	store  store.Store
	logger *zap.Logger
}

// NewManager creates a session manager.
func NewManager(st store.Store, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{store: st, logger: logger}
}

// Create starts a new session in the eliciting phase and persists it.
func (m *Manager) Create(ctx context.Context) (*Session, error) {
	now := time.Now().UTC()
	s := &Session{
		ID:          uuid.New().String(),
		Phase:       PhaseEliciting,
		CreatedAt:   now,
		UpdatedAt:   now,
		Elicitation: elicit.NewState(),
	}
	s.Log(Record{Phase: PhaseEliciting, Passed: true, Approved: true, Note: "session created"})

	if err := m.Save(ctx, s); err != nil {
		return nil, err
	}
	m.logger.Info("created session", zap.String("session_id", s.ID))
	return s, nil
}

// Get loads a session by ID.
func (m *Manager) Get(ctx context.Context, id string) (*Session, error) {
	snapshot, err := m.store.LoadSession(ctx, id)
	if err != nil {
		return nil, err
	}
	var s Session
	if err := json.Unmarshal(snapshot, &s); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}
	return &s, nil
}

// List returns all persisted session IDs.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.ListSessions(ctx)
}

// Delete destroys a session. Only explicit operator action reaches here;
// sessions otherwise persist across the whole lifecycle.
func (m *Manager) Delete(ctx context.Context, id string) error {
	return m.store.DeleteSession(ctx, id)
}

// Save persists the session snapshot.
func (m *Manager) Save(ctx context.Context, s *Session) error {
	s.UpdatedAt = time.Now().UTC()
	snapshot, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", s.ID, err)
	}
	return m.store.SaveSession(ctx, s.ID, snapshot)
}

// Abort cancels the in-flight phase before its exit gate passes. Partial
// artifacts are retained in the store for inspection but excluded from
// gate evaluation: an aborted extension's delta nodes leave the graph,
// and a feature left with no nodes is retracted from the masterplan
// through a logged reversal amendment, so it can be re-added later.
func (m *Manager) Abort(ctx context.Context, s *Session, reason string) error {
	if s.Phase == PhaseExtending && len(s.ActiveDelta) > 0 && s.Graph != nil {
		abandoned := make(map[project.NodeID]bool, len(s.ActiveDelta))
		for _, id := range s.ActiveDelta {
			abandoned[id] = true
		}
		features := make(map[string]bool)
		kept := s.Graph.Nodes[:0]
		for _, n := range s.Graph.Nodes {
			if abandoned[n.ID] {
				features[n.Feature] = true
				continue
			}
			n.DependsOn = pruneDeps(n.DependsOn, abandoned)
			kept = append(kept, n)
		}
		s.Graph.Nodes = kept
		s.ActiveDelta = nil

		for name := range features {
			if s.Masterplan == nil || featureHasNodes(s.Graph, name) {
				continue
			}
			if a, ok := s.Masterplan.Retract(name, "aborted extension: "+reason); ok {
				s.Log(Record{
					Phase:    s.Phase,
					Passed:   true,
					Approved: true,
					Note:     fmt.Sprintf("masterplan amendment reversed: %s (feature %q)", a.Description, a.Feature),
				})
			}
		}
	}

	s.Log(Record{
		Phase:    s.Phase,
		Passed:   false,
		Approved: false,
		Note:     "aborted by operator: " + reason,
	})
	m.logger.Info("aborted phase",
		zap.String("session_id", s.ID),
		zap.String("phase", string(s.Phase)),
		zap.String("reason", reason),
	)
	return m.Save(ctx, s)
}

func featureHasNodes(g *project.Graph, feature string) bool {
	for _, n := range g.Nodes {
		if strings.EqualFold(n.Feature, feature) {
			return true
		}
	}
	return false
}

func pruneDeps(deps []project.NodeID, drop map[project.NodeID]bool) []project.NodeID {
	kept := deps[:0]
	for _, d := range deps {
		if !drop[d] {
			kept = append(kept, d)
		}
	}
	return kept
}
