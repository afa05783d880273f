package project

import (
	"fmt"
	"sort"
	"sync"
)

// Graph is the full set of FileNodes and their dependency edges for one
// session. It is owned exclusively by the session; concurrent status
// writes are serialized behind one writer lock held per transition, never
// across a whole expansion.
type Graph struct {
	Nodes []*FileNode `json:"nodes"`

	mu sync.Mutex
}

// NewGraph returns an empty graph.
func NewGraph() *Graph {
	return &Graph{}
}

// Node returns the node with the given ID.
func (g *Graph) Node(id NodeID) (*FileNode, bool) {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return nil, false
}

// NodeByPath returns the node owning the given path.
func (g *Graph) NodeByPath(path string) (*FileNode, bool) {
	for _, n := range g.Nodes {
		if n.Path == path {
			return n, true
		}
	}
	return nil, false
}

// AllocatePath returns base if no node owns it yet, otherwise the first
// numbered qualification (base_2, base_3, ...) that is free. Independent
// features may naturally suggest the same name; overwriting an existing
// node's path is a defect, so collisions always qualify.
func (g *Graph) AllocatePath(base string) string {
	if _, taken := g.NodeByPath(base); !taken {
		return base
	}
	for i := 2; ; i++ {
		candidate := fmt.Sprintf("%s_%d", base, i)
		if _, taken := g.NodeByPath(candidate); !taken {
			return candidate
		}
	}
}

// AddNode inserts a node. The path must be globally unique within the
// graph; a collision is blocked at insertion, not resolved here.
func (g *Graph) AddNode(n *FileNode) error {
	if existing, ok := g.Node(n.ID); ok {
		return fmt.Errorf("duplicate node ID %s (path %s)", existing.ID, existing.Path)
	}
	if existing, ok := g.NodeByPath(n.Path); ok {
		return &PathCollisionError{Path: n.Path, Existing: existing.ID, Incoming: n.ID}
	}
	if n.Status == "" {
		n.Status = StatusPlanned
	}
	g.Nodes = append(g.Nodes, n)
	return nil
}

// AddDependency inserts the edge from -> to and immediately re-checks
// acyclicity. A cycle aborts this specific insertion and is reported with
// a witness path; the graph is left as it was.
func (g *Graph) AddDependency(from, to NodeID) error {
	src, ok := g.Node(from)
	if !ok {
		return &UnknownNodeError{Node: from}
	}
	if _, ok := g.Node(to); !ok {
		return &UnknownNodeError{Node: to}
	}
	for _, dep := range src.DependsOn {
		if dep == to {
			return nil // edge already present
		}
	}

	src.DependsOn = append(src.DependsOn, to)
	if _, err := g.TopoOrder(); err != nil {
		src.DependsOn = src.DependsOn[:len(src.DependsOn)-1]
		return err
	}
	return nil
}

// SetStatus transitions a node's status under the graph writer lock.
// Illegal transitions are rejected with a StatusError.
func (g *Graph) SetStatus(id NodeID, to Status) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	n, ok := g.Node(id)
	if !ok {
		return &UnknownNodeError{Node: id}
	}
	if !canTransition(n.Status, to) {
		return &StatusError{Node: id, From: n.Status, To: to}
	}
	if to == StatusImplemented {
		// Invariant: a node cannot be implemented unless all its
		// dependencies are at least stubbed.
		for _, dep := range n.DependsOn {
			d, ok := g.Node(dep)
			if !ok {
				return &UnknownNodeError{Node: dep}
			}
			if d.Status == StatusPlanned {
				return fmt.Errorf("node %s: dependency %s still planned", id, dep)
			}
		}
	}
	n.Status = to
	return nil
}

// SetInterface replaces a node's declared interface under the writer
// lock. Interface changes are recorded by the caller, never silent.
func (g *Graph) SetInterface(id NodeID, ops []Operation) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	n, ok := g.Node(id)
	if !ok {
		return &UnknownNodeError{Node: id}
	}
	n.Interface = ops
	return nil
}

// TopoOrder returns node IDs in a deterministic dependency order:
// dependencies before dependents, ties broken by path.
func (g *Graph) TopoOrder() ([]NodeID, error) {
	indeg := make(map[NodeID]int, len(g.Nodes))
	dependents := make(map[NodeID][]NodeID, len(g.Nodes))
	for _, n := range g.Nodes {
		indeg[n.ID] += 0
		for _, dep := range n.DependsOn {
			indeg[n.ID]++
			dependents[dep] = append(dependents[dep], n.ID)
		}
	}

	var ready []NodeID
	for id, d := range indeg {
		if d == 0 {
			ready = append(ready, id)
		}
	}

	out := make([]NodeID, 0, len(g.Nodes))
	for len(ready) > 0 {
		sort.Slice(ready, func(i, j int) bool { return g.PathOf(ready[i]) < g.PathOf(ready[j]) })
		id := ready[0]
		ready = ready[1:]
		out = append(out, id)
		for _, dep := range dependents[id] {
			indeg[dep]--
			if indeg[dep] == 0 {
				ready = append(ready, dep)
			}
		}
	}

	if len(out) != len(g.Nodes) {
		return nil, g.findCycle()
	}
	return out, nil
}

// Ready returns stubbed nodes, drawn from the given ID set, whose
// dependencies are all implemented. These may be expanded in any order or
// concurrently.
func (g *Graph) Ready(scope []NodeID) []*FileNode {
	var out []*FileNode
	for _, id := range scope {
		n, ok := g.Node(id)
		if !ok || n.Status != StatusStubbed {
			continue
		}
		satisfied := true
		for _, dep := range n.DependsOn {
			d, ok := g.Node(dep)
			if !ok || d.Status != StatusImplemented {
				satisfied = false
				break
			}
		}
		if satisfied {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// IDs returns all node IDs.
func (g *Graph) IDs() []NodeID {
	out := make([]NodeID, 0, len(g.Nodes))
	for _, n := range g.Nodes {
		out = append(out, n.ID)
	}
	return out
}

// StatusCounts tallies nodes by status.
func (g *Graph) StatusCounts() map[Status]int {
	counts := make(map[Status]int, 3)
	for _, n := range g.Nodes {
		counts[n.Status]++
	}
	return counts
}

// PathOf returns the node's path, falling back to the raw ID for
// references the graph no longer holds.
func (g *Graph) PathOf(id NodeID) string {
	if n, ok := g.Node(id); ok {
		return n.Path
	}
	return string(id)
}

// findCycle extracts one stable cycle witness by DFS over paths.
func (g *Graph) findCycle() *CycleError {
	const (
		white = iota
		gray
		black
	)

	nodes := make([]*FileNode, len(g.Nodes))
	copy(nodes, g.Nodes)
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].Path < nodes[j].Path })

	color := make(map[NodeID]int, len(nodes))
	parent := make(map[NodeID]NodeID, len(nodes))
	var cycle []NodeID

	var dfs func(id NodeID) bool
	dfs = func(id NodeID) bool {
		color[id] = gray
		n, _ := g.Node(id)
		for _, dep := range n.DependsOn {
			switch color[dep] {
			case white:
				parent[dep] = id
				if dfs(dep) {
					return true
				}
			case gray:
				// Back-edge id -> dep closes the cycle.
				cycle = append(cycle, dep)
				cur := id
				for cur != dep {
					cycle = append(cycle, cur)
					cur = parent[cur]
				}
				return true
			}
		}
		color[id] = black
		return false
	}

	for _, n := range nodes {
		if color[n.ID] == white && dfs(n.ID) {
			break
		}
	}

	// Reverse into dependency direction and close the loop.
	paths := make([]string, 0, len(cycle)+1)
	for i := len(cycle) - 1; i >= 0; i-- {
		paths = append(paths, g.PathOf(cycle[i]))
	}
	if len(paths) > 0 {
		paths = append(paths, paths[0])
	}
	return &CycleError{Path: paths}
}
