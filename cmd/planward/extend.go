package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/planward/internal/expand"
	"github.com/fyrsmithlabs/planward/internal/integrate"
	"github.com/fyrsmithlabs/planward/internal/project"
	"github.com/fyrsmithlabs/planward/internal/scaffold"
)

var (
	// featureLine is the new feature in checklist line syntax
	featureLine string
	// amendNote describes the masterplan amendment
	amendNote string
)

func init() {
	extendCmd.Flags().StringVar(&featureLine, "feature", "", `feature line: "name: summary [aspects] (requires ...)"`)
	extendCmd.Flags().StringVar(&amendNote, "note", "", "amendment description for the masterplan log")
	rootCmd.AddCommand(extendCmd)
}

// extendCmd integrates one incremental feature into an implemented graph
var extendCmd = &cobra.Command{
	Use:   "extend",
	Short: "Integrate an incremental feature",
	Long: `Run one extension cycle: amend the masterplan with the new feature,
derive its delta nodes, stub and expand them. Existing implemented
nodes the delta depends on are re-validated against their declared
interfaces but their content is never rewritten.

The feature uses the same line syntax as the features checklist topic:

  name: summary [aspects] (requires existing-feature)

Examples:
  planward extend --feature "price alerts: notify on threshold [data,service,ui] (requires watchlist)" -s <id>`,
	Args: cobra.NoArgs,
	RunE: runExtend,
}

func runExtend(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if featureLine == "" {
		return fmt.Errorf("--feature is required")
	}
	features, err := project.ParseFeatureList(featureLine)
	if err != nil {
		return err
	}
	if len(features) != 1 {
		return fmt.Errorf("--feature must describe exactly one feature, got %d", len(features))
	}
	f := features[0]

	s, err := a.loadSession(cmd.Context())
	if err != nil {
		return err
	}

	ex, err := a.newExpander()
	if err != nil {
		return err
	}
	integrator := integrate.New(
		project.NewBuilder(),
		scaffold.NewGenerator(a.store, a.logger.Underlying()),
		ex,
		a.logger.Underlying(),
	)

	note := amendNote
	if note == "" {
		note = "add feature " + f.Name
	}

	ctx := sessionContext(cmd, s.ID)
	result, err := integrator.Integrate(ctx, s, f, note)
	if err != nil {
		return err
	}
	recordExpansion(s, result.Expansion)

	if err := a.manager.Save(ctx, s); err != nil {
		return err
	}

	fmt.Printf("feature %q integrated: %d new nodes\n", f.Name, len(result.Added))
	for _, path := range result.Revalidated {
		fmt.Printf("revalidated: %s\n", path)
	}
	printDrifts(result.Drifts)
	printExpansion(result.Expansion)
	if result.Expansion.Done() {
		fmt.Println("delta complete; settle the cycle with: planward advance --approve")
	}
	return nil
}

func printDrifts(drifts []expand.Drift) {
	for _, d := range drifts {
		fmt.Printf("existing node drifted, reverted to stubbed: %s: %v\n", d.Path, d.Err)
	}
}
