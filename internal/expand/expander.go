package expand

import (
	"context"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/planward/internal/generate"
	"github.com/fyrsmithlabs/planward/internal/project"
	"github.com/fyrsmithlabs/planward/internal/store"
)

const instrumentationName = "github.com/fyrsmithlabs/planward/internal/expand"

// Ambiguity is one node blocked on operator clarification.
type Ambiguity struct {
	Node project.NodeID
	Path string
	Err  *AmbiguousRequirementError
}

// Drift is one node whose generated content failed its interface check.
type Drift struct {
	Node project.NodeID
	Path string
	Err  *InterfaceDriftError
}

// Report summarizes one expansion run. Ambiguities and drifts are
// local-recovery conditions, not run failures: the affected nodes are
// back at stubbed and the rest of the run proceeded.
type Report struct {
	Implemented []string
	Ambiguities []Ambiguity
	Drifts      []Drift
	Remaining   []string
}

// Done reports whether every node in scope reached implemented.
func (r *Report) Done() bool {
	return len(r.Remaining) == 0 && len(r.Ambiguities) == 0 && len(r.Drifts) == 0
}

// Config tunes the expander.
type Config struct {
	// Workers bounds concurrent node expansions. Defaults to 4.
	Workers int
}

// Expander fills stubbed nodes via the generator.
type Expander struct {
	store   store.Store
	gen     generate.Generator
	logger  *zap.Logger
	workers int

	tracer      trace.Tracer
	meter       metric.Meter
	nodeCounter metric.Int64Counter
}

// New creates an expander.
func New(cfg Config, st store.Store, gen generate.Generator, logger *zap.Logger) *Expander {
	if logger == nil {
		logger = zap.NewNop()
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = 4
	}

	e := &Expander{
		store:   st,
		gen:     gen,
		logger:  logger,
		workers: workers,
		tracer:  otel.Tracer(instrumentationName),
		meter:   otel.Meter(instrumentationName),
	}

	var err error
	e.nodeCounter, err = e.meter.Int64Counter(
		"planward.expand.nodes_total",
		metric.WithDescription("Total node expansion outcomes"),
		metric.WithUnit("{node}"),
	)
	if err != nil {
		logger.Warn("failed to create node counter", zap.Error(err))
	}

	return e
}

// Run expands every stubbed node in scope, wave by wave: each wave is the
// set of nodes whose dependencies are all implemented, processed
// concurrently up to the worker bound. The run stops when scope is done
// or no node can proceed (blocked on ambiguity, drift, or an unmet
// dependency); blocked nodes are reported, never half-finished.
func (e *Expander) Run(ctx context.Context, sessionID string, graph *project.Graph, plan *project.Masterplan, scope []project.NodeID) (*Report, error) {
	ctx, span := e.tracer.Start(ctx, "expand.run")
	defer span.End()
	span.SetAttributes(
		attribute.String("session_id", sessionID),
		attribute.Int("scope", len(scope)),
	)

	report := &Report{}
	blocked := make(map[project.NodeID]bool)

	for {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		ready := graph.Ready(scope)
		var wave []*project.FileNode
		for _, n := range ready {
			if !blocked[n.ID] {
				wave = append(wave, n)
			}
		}
		if len(wave) == 0 {
			break
		}

		results, err := e.expandWave(ctx, sessionID, graph, plan, wave)
		if err != nil {
			return report, err
		}

		for _, res := range results {
			switch {
			case res.ambiguity != nil:
				blocked[res.node.ID] = true
				report.Ambiguities = append(report.Ambiguities, *res.ambiguity)
				e.count(ctx, "ambiguous")
			case res.drift != nil:
				blocked[res.node.ID] = true
				report.Drifts = append(report.Drifts, Drift{Node: res.node.ID, Path: res.node.Path, Err: res.drift})
				e.count(ctx, "drift")
			default:
				report.Implemented = append(report.Implemented, res.node.Path)
				e.count(ctx, "implemented")
			}
		}
	}

	for _, id := range scope {
		if n, ok := graph.Node(id); ok && n.Status != project.StatusImplemented {
			if !blocked[id] {
				report.Remaining = append(report.Remaining, n.Path)
			}
		}
	}

	span.SetAttributes(attribute.Int("implemented", len(report.Implemented)))
	return report, nil
}

type nodeResult struct {
	node      *project.FileNode
	ambiguity *Ambiguity
	drift     *InterfaceDriftError
}

// expandWave processes one set of dependency-satisfied nodes
// concurrently. Store reads of implemented dependencies take no lock
// (implemented nodes are immutable); the status transition at the end of
// each node goes through the graph's writer lock.
func (e *Expander) expandWave(ctx context.Context, sessionID string, graph *project.Graph, plan *project.Masterplan, wave []*project.FileNode) ([]nodeResult, error) {
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		results  []nodeResult
		firstErr error
	)

	sem := make(chan struct{}, e.workers)
	for _, n := range wave {
		wg.Add(1)
		sem <- struct{}{}
		go func(n *project.FileNode) {
			defer wg.Done()
			defer func() { <-sem }()

			res, err := e.expandNode(ctx, sessionID, graph, plan, n)

			mu.Lock()
			defer mu.Unlock()
			if err != nil && firstErr == nil {
				firstErr = err
				return
			}
			results = append(results, res)
		}(n)
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return results, nil
}

func (e *Expander) expandNode(ctx context.Context, sessionID string, graph *project.Graph, plan *project.Masterplan, n *project.FileNode) (nodeResult, error) {
	ctx, span := e.tracer.Start(ctx, "expand.node")
	defer span.End()
	span.SetAttributes(attribute.String("path", n.Path))

	res := nodeResult{node: n}

	stub, err := e.store.GetArtifact(ctx, sessionID, n.Path)
	if err != nil {
		return res, fmt.Errorf("stub for %s: %w", n.Path, err)
	}

	deps := make(map[string]string, len(n.DependsOn))
	for _, depID := range n.DependsOn {
		dep, ok := graph.Node(depID)
		if !ok {
			return res, &project.UnknownNodeError{Node: depID}
		}
		content, err := e.store.GetArtifact(ctx, sessionID, dep.Path)
		if err != nil {
			return res, fmt.Errorf("dependency %s: %w", dep.Path, err)
		}
		deps[dep.Path] = string(content)
	}

	artifact, err := e.gen.Generate(ctx, &generate.Request{
		Node:         *n,
		Stub:         string(stub),
		Masterplan:   plan,
		Dependencies: deps,
	})
	if err != nil {
		return res, fmt.Errorf("generate %s: %w", n.Path, err)
	}

	if len(artifact.Ambiguities) > 0 {
		// Blocking: the node stays stubbed until the operator answers.
		res.ambiguity = &Ambiguity{
			Node: n.ID,
			Path: n.Path,
			Err:  &AmbiguousRequirementError{Path: n.Path, Questions: artifact.Ambiguities},
		}
		e.logger.Warn("ambiguous requirement",
			zap.String("path", n.Path),
			zap.Strings("questions", artifact.Ambiguities),
		)
		return res, nil
	}

	if err := CheckInterface(n, artifact.Content); err != nil {
		// The stub artifact is left untouched, so the node is exactly
		// back at stubbed rather than half-implemented.
		drift := err.(*InterfaceDriftError)
		res.drift = drift
		e.logger.Warn("interface drift", zap.String("path", n.Path), zap.Error(drift))
		return res, nil
	}

	if err := e.store.PutArtifact(ctx, sessionID, n.Path, []byte(artifact.Content)); err != nil {
		return res, err
	}
	if err := graph.SetStatus(n.ID, project.StatusImplemented); err != nil {
		return res, err
	}

	e.logger.Info("implemented node",
		zap.String("session_id", sessionID),
		zap.String("path", n.Path),
	)
	return res, nil
}

// Revalidate re-checks already-implemented nodes against their declared
// interfaces, reading content without locks. A node that no longer
// conforms is reverted to stubbed and reported as drift; its content is
// not rewritten.
func (e *Expander) Revalidate(ctx context.Context, sessionID string, graph *project.Graph, scope []project.NodeID) ([]Drift, error) {
	ctx, span := e.tracer.Start(ctx, "expand.revalidate")
	defer span.End()

	var drifts []Drift
	for _, id := range scope {
		n, ok := graph.Node(id)
		if !ok {
			return nil, &project.UnknownNodeError{Node: id}
		}
		if n.Status != project.StatusImplemented {
			continue
		}

		content, err := e.store.GetArtifact(ctx, sessionID, n.Path)
		if err != nil {
			return nil, fmt.Errorf("artifact for %s: %w", n.Path, err)
		}
		if err := CheckInterface(n, string(content)); err != nil {
			drift := err.(*InterfaceDriftError)
			if serr := graph.SetStatus(n.ID, project.StatusStubbed); serr != nil {
				return nil, serr
			}
			drifts = append(drifts, Drift{Node: n.ID, Path: n.Path, Err: drift})
			e.logger.Warn("implemented node drifted; reverted to stubbed",
				zap.String("path", n.Path), zap.Error(drift))
		}
	}
	return drifts, nil
}

func (e *Expander) count(ctx context.Context, outcome string) {
	if e.nodeCounter != nil {
		e.nodeCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	}
}
