package main

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/planward/internal/phase"
	"github.com/fyrsmithlabs/planward/internal/session"
)

var (
	// approve carries the operator's explicit approval for advance
	approve bool
	// abortReason records why the operator cancelled the phase
	abortReason string
)

func init() {
	advanceCmd.Flags().BoolVar(&approve, "approve", false, "explicitly approve the transition")
	abortCmd.Flags().StringVar(&abortReason, "reason", "", "why the phase is being cancelled")
	rootCmd.AddCommand(gateCmd)
	rootCmd.AddCommand(advanceCmd)
	rootCmd.AddCommand(abortCmd)
}

// gateCmd evaluates the current phase's exit gate without advancing
var gateCmd = &cobra.Command{
	Use:   "gate",
	Short: "Check the current phase's exit gate",
	Long: `Evaluate every exit criterion of the session's current phase
without attempting a transition.

Examples:
  planward gate -s <session-id>`,
	Args: cobra.NoArgs,
	RunE: runGate,
}

// advanceCmd attempts the gated transition to the next phase
var advanceCmd = &cobra.Command{
	Use:   "advance",
	Short: "Advance to the next phase",
	Long: `Attempt the transition out of the current phase. Advancing requires
every exit criterion to be met plus explicit operator approval via
--approve; without the flag the transition is always refused. On an
unmet gate every failed criterion is listed and the session is left
unchanged.

Examples:
  planward advance --approve -s <session-id>`,
	Args: cobra.NoArgs,
	RunE: runAdvance,
}

// abortCmd cancels the in-flight phase
var abortCmd = &cobra.Command{
	Use:   "abort",
	Short: "Cancel the in-flight phase",
	Long: `Cancel the current phase before its exit gate passes. Partial
artifacts stay in the store for inspection; an aborted extension's
delta nodes leave the graph so gates never count them.

Examples:
  planward abort --reason "wrong feature split" -s <session-id>`,
	Args: cobra.NoArgs,
	RunE: runAbort,
}

func runGate(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	s, err := a.loadSession(cmd.Context())
	if err != nil {
		return err
	}

	criteria, err := a.machine.Check(sessionContext(cmd, s.ID), s)
	if err != nil {
		return err
	}
	printCriteria(s.Phase, criteria)
	return nil
}

func runAdvance(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	s, err := a.loadSession(ctx)
	if err != nil {
		return err
	}

	t, err := a.machine.Advance(sessionContext(cmd, s.ID), s, approve)
	if err != nil {
		var unmet *phase.GateUnmetError
		if errors.As(err, &unmet) {
			fmt.Printf("gate unmet: staying in %s\n", unmet.Phase)
			printCriteria(unmet.Phase, unmet.Criteria)
		}
		return err
	}

	if err := a.manager.Save(sessionContext(cmd, s.ID), s); err != nil {
		return err
	}
	fmt.Printf("advanced %s -> %s\n", t.From, t.To)
	fmt.Printf("next: %s\n", t.Entry)
	return nil
}

func runAbort(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if abortReason == "" {
		return fmt.Errorf("--reason is required")
	}

	ctx := cmd.Context()
	s, err := a.loadSession(ctx)
	if err != nil {
		return err
	}
	if err := a.manager.Abort(sessionContext(cmd, s.ID), s, abortReason); err != nil {
		return err
	}
	fmt.Printf("aborted %s phase of session %s\n", s.Phase, s.ID)
	return nil
}

func printCriteria(p session.Phase, criteria []session.CriterionResult) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "PHASE: %s\n", p)
	for _, c := range criteria {
		mark := "MET"
		if !c.Met {
			mark = "UNMET"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", mark, c.Name, c.Detail)
	}
	w.Flush()
}
