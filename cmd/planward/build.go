package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/planward/internal/expand"
	"github.com/fyrsmithlabs/planward/internal/project"
	"github.com/fyrsmithlabs/planward/internal/scaffold"
	"github.com/fyrsmithlabs/planward/internal/session"
)

func init() {
	rootCmd.AddCommand(scaffoldCmd)
	rootCmd.AddCommand(implementCmd)
}

// scaffoldCmd derives the graph from the masterplan and emits stubs
var scaffoldCmd = &cobra.Command{
	Use:   "scaffold",
	Short: "Build the project graph and emit stubs",
	Long: `Derive the project graph from the approved masterplan and write one
stub artifact per node. Re-running is idempotent: nodes already past
planned are skipped and their artifacts left untouched.

Examples:
  planward scaffold -s <session-id>`,
	Args: cobra.NoArgs,
	RunE: runScaffold,
}

// implementCmd expands stubbed nodes into implemented artifacts
var implementCmd = &cobra.Command{
	Use:   "implement",
	Short: "Expand stubs in dependency order",
	Long: `Expand every stubbed node whose dependencies are implemented,
wave by wave, concurrently up to the configured worker bound. Nodes
blocked on ambiguity or interface drift stay stubbed and are
reported; re-run after resolving them.

Examples:
  planward implement -s <session-id>`,
	Args: cobra.NoArgs,
	RunE: runImplement,
}

func runScaffold(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	s, err := a.loadSession(cmd.Context())
	if err != nil {
		return err
	}
	if s.Phase != session.PhaseScaffolding {
		return fmt.Errorf("session %s is in phase %s; scaffold applies to scaffolding", s.ID, s.Phase)
	}
	if s.Masterplan == nil {
		return fmt.Errorf("session %s has no finalized masterplan", s.ID)
	}

	ctx := sessionContext(cmd, s.ID)
	if s.Graph == nil {
		g, err := project.NewBuilder().Build(s.Masterplan)
		if err != nil {
			return err
		}
		s.Graph = g
		fmt.Printf("derived graph: %d nodes\n", len(g.Nodes))
	}

	gen := scaffold.NewGenerator(a.store, a.logger.Underlying())
	if err := gen.Run(ctx, s.ID, s.Graph, s.Graph.IDs()); err != nil {
		return err
	}
	if err := a.manager.Save(ctx, s); err != nil {
		return err
	}

	counts := s.Graph.StatusCounts()
	fmt.Printf("scaffolded: %d stubbed, %d implemented\n",
		counts[project.StatusStubbed], counts[project.StatusImplemented])
	return nil
}

func runImplement(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	s, err := a.loadSession(cmd.Context())
	if err != nil {
		return err
	}
	if s.Phase != session.PhaseImplementing {
		return fmt.Errorf("session %s is in phase %s; implement applies to implementing", s.ID, s.Phase)
	}
	if s.Graph == nil {
		return fmt.Errorf("session %s has no project graph", s.ID)
	}

	ex, err := a.newExpander()
	if err != nil {
		return err
	}

	ctx := sessionContext(cmd, s.ID)
	report, err := ex.Run(ctx, s.ID, s.Graph, s.Masterplan, s.Graph.IDs())
	if err != nil {
		return err
	}
	recordExpansion(s, report)

	if err := a.manager.Save(ctx, s); err != nil {
		return err
	}
	printExpansion(report)
	return nil
}

// recordExpansion mirrors an expansion report onto the session's pending
// questions: newly implemented nodes clear theirs, ambiguities block.
func recordExpansion(s *session.Session, report *expand.Report) {
	for _, path := range report.Implemented {
		if n, ok := s.Graph.NodeByPath(path); ok {
			s.ClearPending(n.ID)
		}
	}
	for _, amb := range report.Ambiguities {
		s.ClearPending(amb.Node)
		s.Ask(amb.Node, amb.Path, amb.Err.Questions)
	}
}

func printExpansion(report *expand.Report) {
	fmt.Printf("implemented: %d\n", len(report.Implemented))
	for _, path := range report.Implemented {
		fmt.Printf("  %s\n", path)
	}
	for _, amb := range report.Ambiguities {
		fmt.Printf("ambiguous: %s\n", amb.Path)
		for _, q := range amb.Err.Questions {
			fmt.Printf("  ? %s\n", q)
		}
	}
	for _, d := range report.Drifts {
		fmt.Printf("interface drift: %s: %v\n", d.Path, d.Err)
	}
	for _, path := range report.Remaining {
		fmt.Printf("blocked on dependencies: %s\n", path)
	}
	if report.Done() {
		fmt.Println("all nodes implemented; next: planward advance --approve")
	}
}
