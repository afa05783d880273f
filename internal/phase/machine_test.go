package phase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/planward/internal/elicit"
	"github.com/fyrsmithlabs/planward/internal/project"
	"github.com/fyrsmithlabs/planward/internal/session"
)

func elicitedState(t *testing.T) (*elicit.State, *project.Masterplan) {
	t.Helper()
	e := elicit.NewEngine(nil)
	answers := map[elicit.Topic]string{
		elicit.TopicPurpose:      "Track a stock watchlist",
		elicit.TopicAudience:     "Retail investors",
		elicit.TopicFeatures:     "watchlist: track symbols [data,ui]",
		elicit.TopicPlatform:     "web",
		elicit.TopicUI:           "dashboard",
		elicit.TopicData:         "symbols",
		elicit.TopicSecurity:     "local accounts",
		elicit.TopicIntegrations: "market data API",
		elicit.TopicScalability:  "single user",
		elicit.TopicRisks:        "api limits",
		elicit.TopicVisualRefs:   "none",
	}
	for topic, text := range answers {
		require.NoError(t, e.Answer(topic, text))
	}
	plan, err := e.Finalize()
	require.NoError(t, err)
	return e.State(), plan
}

// readySession returns a session whose eliciting gate is fully met.
func readySession(t *testing.T) *session.Session {
	t.Helper()
	state, plan := elicitedState(t)
	return &session.Session{
		ID:          "s1",
		Phase:       session.PhaseEliciting,
		Elicitation: state,
		Masterplan:  plan,
	}
}

func implementGraph(t *testing.T, s *session.Session) {
	t.Helper()
	g, err := project.NewBuilder().Build(s.Masterplan)
	require.NoError(t, err)
	s.Graph = g
	for _, id := range g.IDs() {
		require.NoError(t, g.SetStatus(id, project.StatusStubbed))
	}
	order, err := g.TopoOrder()
	require.NoError(t, err)
	for _, id := range order {
		require.NoError(t, g.SetStatus(id, project.StatusImplemented))
	}
}

func TestNext_PhaseOrder(t *testing.T) {
	next, ok := session.Next(session.PhaseEliciting)
	require.True(t, ok)
	assert.Equal(t, session.PhaseScaffolding, next)

	next, ok = session.Next(session.PhaseScaffolding)
	require.True(t, ok)
	assert.Equal(t, session.PhaseImplementing, next)

	next, ok = session.Next(session.PhaseImplementing)
	require.True(t, ok)
	assert.Equal(t, session.PhaseExtending, next)

	// Extending recurs: each feature cycle is its own pass.
	next, ok = session.Next(session.PhaseExtending)
	require.True(t, ok)
	assert.Equal(t, session.PhaseExtending, next)
}

func TestAdvance_RefusedWithoutApproval(t *testing.T) {
	m := NewMachine(nil)
	s := readySession(t)

	_, err := m.Advance(context.Background(), s, false)
	require.Error(t, err)

	var unmet *GateUnmetError
	require.ErrorAs(t, err, &unmet)
	assert.Contains(t, unmet.Error(), "operator approval")
	assert.Equal(t, session.PhaseEliciting, s.Phase)
	assert.Empty(t, s.PhaseLog)
}

func TestAdvance_UnmetGateListsEveryFailedCriterion(t *testing.T) {
	m := NewMachine(nil)
	s := &session.Session{ID: "s1", Phase: session.PhaseEliciting}

	_, err := m.Advance(context.Background(), s, true)
	require.Error(t, err)

	var unmet *GateUnmetError
	require.ErrorAs(t, err, &unmet)
	assert.Equal(t, session.PhaseEliciting, unmet.Phase)

	var failed []string
	for _, c := range unmet.Criteria {
		if !c.Met {
			failed = append(failed, c.Name)
		}
	}
	assert.Contains(t, failed, "checklist complete")
	assert.Contains(t, failed, "masterplan finalized")

	// The session is left exactly where it was.
	assert.Equal(t, session.PhaseEliciting, s.Phase)
	assert.Empty(t, s.PhaseLog)
}

func TestAdvance_AppendsRecordAndMoves(t *testing.T) {
	m := NewMachine(nil)
	s := readySession(t)

	tr, err := m.Advance(context.Background(), s, true)
	require.NoError(t, err)

	assert.Equal(t, session.PhaseEliciting, tr.From)
	assert.Equal(t, session.PhaseScaffolding, tr.To)
	assert.NotEmpty(t, tr.Entry)
	assert.Equal(t, session.PhaseScaffolding, s.Phase)

	require.Len(t, s.PhaseLog, 1)
	rec := s.PhaseLog[0]
	assert.Equal(t, session.PhaseEliciting, rec.Phase)
	assert.True(t, rec.Passed)
	assert.True(t, rec.Approved)
	assert.NotEmpty(t, rec.Criteria)
}

func TestAdvance_FullLifecycle(t *testing.T) {
	m := NewMachine(nil)
	s := readySession(t)
	ctx := context.Background()

	_, err := m.Advance(ctx, s, true)
	require.NoError(t, err)

	// Scaffolding gate: graph built and stubbed.
	g, err := project.NewBuilder().Build(s.Masterplan)
	require.NoError(t, err)
	s.Graph = g
	for _, id := range g.IDs() {
		require.NoError(t, g.SetStatus(id, project.StatusStubbed))
	}
	_, err = m.Advance(ctx, s, true)
	require.NoError(t, err)
	assert.Equal(t, session.PhaseImplementing, s.Phase)

	// Implementing gate: every node implemented.
	order, err := g.TopoOrder()
	require.NoError(t, err)
	for _, id := range order {
		require.NoError(t, g.SetStatus(id, project.StatusImplemented))
	}
	_, err = m.Advance(ctx, s, true)
	require.NoError(t, err)
	assert.Equal(t, session.PhaseExtending, s.Phase)

	assert.Len(t, s.PhaseLog, 3)
}

func TestScaffoldingGate_ReportsPlannedNodes(t *testing.T) {
	m := NewMachine(nil)
	s := readySession(t)
	s.Phase = session.PhaseScaffolding
	g, err := project.NewBuilder().Build(s.Masterplan)
	require.NoError(t, err)
	s.Graph = g

	criteria, err := m.Check(context.Background(), s)
	require.NoError(t, err)

	byName := make(map[string]session.CriterionResult, len(criteria))
	for _, c := range criteria {
		byName[c.Name] = c
	}
	assert.True(t, byName["project graph built"].Met)
	assert.True(t, byName["paths unique"].Met)
	assert.False(t, byName["all nodes stubbed"].Met)
	assert.Contains(t, byName["all nodes stubbed"].Detail, "app/models/watchlist")
}

func TestImplementingGate_NamesRemainingNodes(t *testing.T) {
	m := NewMachine(nil)
	s := readySession(t)
	s.Phase = session.PhaseImplementing
	g, err := project.NewBuilder().Build(s.Masterplan)
	require.NoError(t, err)
	s.Graph = g
	for _, id := range g.IDs() {
		require.NoError(t, g.SetStatus(id, project.StatusStubbed))
	}
	data, ok := g.NodeByPath("app/models/watchlist")
	require.True(t, ok)
	require.NoError(t, g.SetStatus(data.ID, project.StatusImplemented))

	criteria, err := m.Check(context.Background(), s)
	require.NoError(t, err)
	require.NotEmpty(t, criteria)
	assert.False(t, criteria[0].Met)
	assert.Contains(t, criteria[0].Detail, "app/pages/watchlist")
	assert.NotContains(t, criteria[0].Detail, "app/models/watchlist")
}

func TestExtendingGate_RequiresActiveDelta(t *testing.T) {
	m := NewMachine(nil)
	s := readySession(t)
	implementGraph(t, s)
	s.Phase = session.PhaseExtending

	_, err := m.Advance(context.Background(), s, true)
	require.Error(t, err)

	var unmet *GateUnmetError
	require.ErrorAs(t, err, &unmet)
	assert.Contains(t, unmet.Error(), "extension in progress")
}

func TestExtendingGate_ScopedToDelta(t *testing.T) {
	m := NewMachine(nil)
	s := readySession(t)
	implementGraph(t, s)
	s.Phase = session.PhaseExtending

	// New feature node, still stubbed.
	delta, err := project.NewBuilder().Extend(s.Graph, project.Feature{
		Name: "alerts", Summary: "notify", Aspects: []project.Aspect{project.AspectData},
	})
	require.NoError(t, err)
	for _, id := range delta {
		require.NoError(t, s.Graph.SetStatus(id, project.StatusStubbed))
	}
	s.ActiveDelta = delta

	_, err = m.Advance(context.Background(), s, true)
	require.Error(t, err)

	// Complete the delta: the cycle settles and the phase recurs.
	for _, id := range delta {
		require.NoError(t, s.Graph.SetStatus(id, project.StatusImplemented))
	}
	tr, err := m.Advance(context.Background(), s, true)
	require.NoError(t, err)
	assert.Equal(t, session.PhaseExtending, tr.To)
	assert.Empty(t, s.ActiveDelta)
}
