package project

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// Builder derives FileNodes from masterplan features. Derivation is
// deterministic: the same masterplan always yields the same layout, and
// path collisions between independent features are qualified, never
// overwritten.
type Builder struct{}

// NewBuilder returns a graph builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Build derives a full graph from an approved masterplan.
func (b *Builder) Build(m *Masterplan) (*Graph, error) {
	g := NewGraph()
	for _, f := range m.Features {
		if _, err := b.Extend(g, f); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// Extend derives nodes for one feature into an existing graph and returns
// the IDs of the nodes it added. Existing nodes are never re-derived or
// renamed; only the new feature's nodes and edges are inserted. A failure
// partway through rolls every inserted node back out, so the graph is
// never left holding half a feature.
func (b *Builder) Extend(g *Graph, f Feature) ([]NodeID, error) {
	added := make([]NodeID, 0, len(f.Aspects))
	byAspect := make(map[Aspect]NodeID, len(f.Aspects))
	slug := Slugify(f.Name)

	rollback := func() {
		drop := make(map[NodeID]bool, len(added))
		for _, id := range added {
			drop[id] = true
		}
		kept := g.Nodes[:0]
		for _, n := range g.Nodes {
			if !drop[n.ID] {
				kept = append(kept, n)
			}
		}
		g.Nodes = kept
	}

	for _, aspect := range f.Aspects {
		n := &FileNode{
			ID:        NodeID(uuid.New().String()),
			Path:      g.AllocatePath(aspectPath(aspect, slug)),
			Purpose:   aspectPurpose(aspect, f),
			Interface: aspectInterface(aspect, slug),
			Status:    StatusPlanned,
			Feature:   f.Name,
			Aspect:    aspect,
		}
		if err := g.AddNode(n); err != nil {
			rollback()
			return nil, fmt.Errorf("feature %q: %w", f.Name, err)
		}
		added = append(added, n.ID)
		byAspect[aspect] = n.ID
	}

	// Intra-feature edges: the user-facing node depends on the data and
	// service nodes, and the service node on the data node.
	intra := [][2]Aspect{
		{AspectUI, AspectData},
		{AspectUI, AspectService},
		{AspectUI, AspectAuth},
		{AspectService, AspectData},
	}
	for _, edge := range intra {
		from, okFrom := byAspect[edge[0]]
		to, okTo := byAspect[edge[1]]
		if okFrom && okTo {
			if err := g.AddDependency(from, to); err != nil {
				rollback()
				return nil, fmt.Errorf("feature %q: %w", f.Name, err)
			}
		}
	}

	// Cross-feature edges: this feature's anchor depends on the anchor of
	// every feature it requires.
	if len(f.Requires) > 0 {
		from, ok := featureAnchor(g, f.Name)
		if !ok {
			rollback()
			return nil, fmt.Errorf("feature %q: no anchor node", f.Name)
		}
		for _, required := range f.Requires {
			to, ok := featureAnchor(g, required)
			if !ok {
				rollback()
				return nil, fmt.Errorf("feature %q requires unknown feature %q", f.Name, required)
			}
			if err := g.AddDependency(from, to); err != nil {
				rollback()
				return nil, fmt.Errorf("feature %q requires %q: %w", f.Name, required, err)
			}
		}
	}

	return added, nil
}

// featureAnchor returns the node other features link against: the data
// node when present, otherwise service, otherwise the first node derived
// for the feature.
func featureAnchor(g *Graph, feature string) (NodeID, bool) {
	var first NodeID
	var found bool
	for _, n := range g.Nodes {
		if !strings.EqualFold(n.Feature, feature) {
			continue
		}
		if !found {
			first, found = n.ID, true
		}
		switch n.Aspect {
		case AspectData:
			return n.ID, true
		case AspectService:
			first = n.ID
		}
	}
	return first, found
}

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify normalizes a feature name into a path segment.
func Slugify(name string) string {
	slug := slugPattern.ReplaceAllString(strings.ToLower(name), "_")
	return strings.Trim(slug, "_")
}

func aspectPath(a Aspect, slug string) string {
	switch a {
	case AspectData:
		return "app/models/" + slug
	case AspectService:
		return "app/services/" + slug
	case AspectAuth:
		return "app/auth/" + slug
	default:
		return "app/pages/" + slug
	}
}

func aspectPurpose(a Aspect, f Feature) string {
	switch a {
	case AspectData:
		return fmt.Sprintf("Data access for %s: %s", f.Name, f.Summary)
	case AspectService:
		return fmt.Sprintf("Domain logic for %s: %s", f.Name, f.Summary)
	case AspectAuth:
		return fmt.Sprintf("Access control for %s: %s", f.Name, f.Summary)
	default:
		return fmt.Sprintf("User-facing surface for %s: %s", f.Name, f.Summary)
	}
}

func aspectInterface(a Aspect, slug string) []Operation {
	switch a {
	case AspectData:
		return []Operation{
			{Name: "get_" + slug, Signature: fmt.Sprintf("get_%s(id) -> record", slug)},
			{Name: "put_" + slug, Signature: fmt.Sprintf("put_%s(record) -> id", slug)},
			{Name: "list_" + slug, Signature: fmt.Sprintf("list_%s(filter) -> [record]", slug)},
		}
	case AspectService:
		return []Operation{
			{Name: "run_" + slug, Signature: fmt.Sprintf("run_%s(input) -> result", slug)},
		}
	case AspectAuth:
		return []Operation{
			{Name: "authenticate", Signature: "authenticate(credentials) -> principal"},
			{Name: "authorize", Signature: fmt.Sprintf("authorize(principal, %s_action) -> bool", slug)},
		}
	default:
		return []Operation{
			{Name: "render_" + slug, Signature: fmt.Sprintf("render_%s(state) -> view", slug)},
			{Name: "handle_" + slug + "_input", Signature: fmt.Sprintf("handle_%s_input(event) -> state", slug)},
		}
	}
}
