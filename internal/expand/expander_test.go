package expand

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/planward/internal/generate"
	"github.com/fyrsmithlabs/planward/internal/project"
	"github.com/fyrsmithlabs/planward/internal/scaffold"
	"github.com/fyrsmithlabs/planward/internal/store"
)

// staticGen returns the same artifact for every node.
type staticGen struct {
	content     string
	ambiguities []string
}

func (g *staticGen) Generate(ctx context.Context, req *generate.Request) (*generate.Artifact, error) {
	return &generate.Artifact{Content: g.content, Ambiguities: g.ambiguities}, nil
}

type fixture struct {
	store store.Store
	graph *project.Graph
	plan  *project.Masterplan
}

// newFixture derives and stubs a graph for the given features.
func newFixture(t *testing.T, features ...project.Feature) *fixture {
	t.Helper()

	st, err := store.Open(store.InMemoryConfig(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	plan := &project.Masterplan{Features: features}
	graph, err := project.NewBuilder().Build(plan)
	require.NoError(t, err)

	sc := scaffold.NewGenerator(st, nil)
	require.NoError(t, sc.Run(context.Background(), "s1", graph, graph.IDs()))

	return &fixture{store: st, graph: graph, plan: plan}
}

func (f *fixture) nodeByPath(t *testing.T, path string) *project.FileNode {
	t.Helper()
	n, ok := f.graph.NodeByPath(path)
	require.True(t, ok, "no node at %s", path)
	return n
}

func TestRun_ImplementsWholeGraphInDependencyOrder(t *testing.T) {
	f := newFixture(t, project.Feature{
		Name:     "watchlist",
		Summary:  "track symbols",
		Behavior: "keep a per-user symbol list",
		Aspects:  []project.Aspect{project.AspectData, project.AspectService, project.AspectUI},
	})

	e := New(Config{}, f.store, generate.NewTemplateGenerator(), nil)
	report, err := e.Run(context.Background(), "s1", f.graph, f.plan, f.graph.IDs())
	require.NoError(t, err)

	assert.True(t, report.Done())
	assert.Len(t, report.Implemented, 3)

	// Dependencies land before dependents.
	order := map[string]int{}
	for i, path := range report.Implemented {
		order[path] = i
	}
	assert.Less(t, order["app/models/watchlist"], order["app/services/watchlist"])
	assert.Less(t, order["app/services/watchlist"], order["app/pages/watchlist"])

	for _, n := range f.graph.Nodes {
		assert.Equal(t, project.StatusImplemented, n.Status, n.Path)
		content, err := f.store.GetArtifact(context.Background(), "s1", n.Path)
		require.NoError(t, err)
		assert.NoError(t, CheckInterface(n, string(content)))
	}
}

func TestRun_AmbiguousServiceBlocksItselfAndDependents(t *testing.T) {
	// No stated behavior: the offline generator must ask, not improvise.
	f := newFixture(t, project.Feature{
		Name:    "alerts",
		Summary: "notify on threshold",
		Aspects: []project.Aspect{project.AspectData, project.AspectService, project.AspectUI},
	})
	svc := f.nodeByPath(t, "app/services/alerts")
	stubBefore, err := f.store.GetArtifact(context.Background(), "s1", svc.Path)
	require.NoError(t, err)

	e := New(Config{}, f.store, generate.NewTemplateGenerator(), nil)
	report, err := e.Run(context.Background(), "s1", f.graph, f.plan, f.graph.IDs())
	require.NoError(t, err)

	assert.False(t, report.Done())
	assert.Equal(t, []string{"app/models/alerts"}, report.Implemented)

	require.Len(t, report.Ambiguities, 1)
	assert.Equal(t, svc.ID, report.Ambiguities[0].Node)

	aerr := report.Ambiguities[0].Err
	require.NotNil(t, aerr)
	assert.Equal(t, svc.Path, aerr.Path)
	assert.NotEmpty(t, aerr.Questions)
	assert.Contains(t, aerr.Error(), "ambiguous requirement for app/services/alerts")

	// The blocked node is exactly back at stubbed, stub untouched.
	assert.Equal(t, project.StatusStubbed, svc.Status)
	stubAfter, err := f.store.GetArtifact(context.Background(), "s1", svc.Path)
	require.NoError(t, err)
	assert.Equal(t, stubBefore, stubAfter)

	// The dependent surface never became ready.
	assert.Equal(t, []string{"app/pages/alerts"}, report.Remaining)
}

func TestRun_DriftLeavesStubUntouched(t *testing.T) {
	f := newFixture(t, project.Feature{
		Name:     "watchlist",
		Summary:  "track symbols",
		Behavior: "keep a per-user symbol list",
		Aspects:  []project.Aspect{project.AspectData},
	})
	data := f.nodeByPath(t, "app/models/watchlist")
	stubBefore, err := f.store.GetArtifact(context.Background(), "s1", data.Path)
	require.NoError(t, err)

	gen := &staticGen{content: "def not_in_the_interface(**kwargs):\n    return 1\n"}
	e := New(Config{}, f.store, gen, nil)
	report, err := e.Run(context.Background(), "s1", f.graph, f.plan, f.graph.IDs())
	require.NoError(t, err)

	require.Len(t, report.Drifts, 1)
	assert.Equal(t, data.ID, report.Drifts[0].Node)
	assert.Contains(t, report.Drifts[0].Err.Extra, "not_in_the_interface")

	assert.Equal(t, project.StatusStubbed, data.Status)
	stubAfter, err := f.store.GetArtifact(context.Background(), "s1", data.Path)
	require.NoError(t, err)
	assert.Equal(t, stubBefore, stubAfter)
}

func TestRun_ScopedToGivenNodes(t *testing.T) {
	f := newFixture(t,
		project.Feature{Name: "watchlist", Summary: "track symbols", Behavior: "b", Aspects: []project.Aspect{project.AspectData}},
		project.Feature{Name: "alerts", Summary: "notify", Behavior: "b", Aspects: []project.Aspect{project.AspectData}},
	)
	watch := f.nodeByPath(t, "app/models/watchlist")
	alerts := f.nodeByPath(t, "app/models/alerts")

	e := New(Config{}, f.store, generate.NewTemplateGenerator(), nil)
	report, err := e.Run(context.Background(), "s1", f.graph, f.plan, []project.NodeID{watch.ID})
	require.NoError(t, err)

	assert.True(t, report.Done())
	assert.Equal(t, project.StatusImplemented, watch.Status)
	assert.Equal(t, project.StatusStubbed, alerts.Status)
}

func TestRevalidate_RevertsDriftedNodeWithoutRewriting(t *testing.T) {
	f := newFixture(t, project.Feature{
		Name:     "watchlist",
		Summary:  "track symbols",
		Behavior: "keep a per-user symbol list",
		Aspects:  []project.Aspect{project.AspectData},
	})
	data := f.nodeByPath(t, "app/models/watchlist")

	e := New(Config{}, f.store, generate.NewTemplateGenerator(), nil)
	_, err := e.Run(context.Background(), "s1", f.graph, f.plan, f.graph.IDs())
	require.NoError(t, err)
	require.Equal(t, project.StatusImplemented, data.Status)

	// The artifact no longer matches the declared interface.
	corrupted := []byte("def renamed_everything(**kwargs):\n    return 1\n")
	require.NoError(t, f.store.PutArtifact(context.Background(), "s1", data.Path, corrupted))

	drifts, err := e.Revalidate(context.Background(), "s1", f.graph, []project.NodeID{data.ID})
	require.NoError(t, err)

	require.Len(t, drifts, 1)
	assert.Equal(t, data.ID, drifts[0].Node)
	assert.Equal(t, project.StatusStubbed, data.Status)

	// Revalidation reports; it never rewrites content.
	got, err := f.store.GetArtifact(context.Background(), "s1", data.Path)
	require.NoError(t, err)
	assert.Equal(t, corrupted, got)
}

func TestRevalidate_ConformingNodesUntouched(t *testing.T) {
	f := newFixture(t, project.Feature{
		Name:     "watchlist",
		Summary:  "track symbols",
		Behavior: "keep a per-user symbol list",
		Aspects:  []project.Aspect{project.AspectData},
	})
	data := f.nodeByPath(t, "app/models/watchlist")

	e := New(Config{}, f.store, generate.NewTemplateGenerator(), nil)
	_, err := e.Run(context.Background(), "s1", f.graph, f.plan, f.graph.IDs())
	require.NoError(t, err)

	drifts, err := e.Revalidate(context.Background(), "s1", f.graph, []project.NodeID{data.ID})
	require.NoError(t, err)
	assert.Empty(t, drifts)
	assert.Equal(t, project.StatusImplemented, data.Status)
}
