package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/planward/internal/elicit"
	"github.com/fyrsmithlabs/planward/internal/project"
)

func init() {
	sessionCmd.AddCommand(sessionNewCmd)
	sessionCmd.AddCommand(sessionListCmd)
	sessionCmd.AddCommand(sessionDeleteCmd)
	rootCmd.AddCommand(sessionCmd)
	rootCmd.AddCommand(statusCmd)
}

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage orchestration sessions",
}

// sessionNewCmd starts a fresh session in the eliciting phase
var sessionNewCmd = &cobra.Command{
	Use:   "new",
	Short: "Start a new session",
	Long: `Start a new orchestration session in the eliciting phase.

Examples:
  planward session new`,
	Args: cobra.NoArgs,
	RunE: runSessionNew,
}

var sessionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all sessions",
	Args:  cobra.NoArgs,
	RunE:  runSessionList,
}

var sessionDeleteCmd = &cobra.Command{
	Use:   "delete <session-id>",
	Short: "Delete a session and its artifacts",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionDelete,
}

// statusCmd reports the session's phase, checklist and graph state
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show session status",
	Long: `Show the session's current phase, elicitation checklist progress,
graph status counts and pending operator questions.

Examples:
  planward status -s <session-id>`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func runSessionNew(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	s, err := a.manager.Create(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Printf("session %s created (phase: %s)\n", s.ID, s.Phase)
	return nil
}

func runSessionList(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ids, err := a.manager.List(cmd.Context())
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		fmt.Println("no sessions")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SESSION\tPHASE\tUPDATED")
	for _, id := range ids {
		s, err := a.manager.Get(cmd.Context(), id)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", s.ID, s.Phase, s.UpdatedAt.Format("2006-01-02 15:04:05"))
	}
	return w.Flush()
}

func runSessionDelete(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.manager.Delete(cmd.Context(), args[0]); err != nil {
		return err
	}
	fmt.Printf("session %s deleted\n", args[0])
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	s, err := a.loadSession(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Printf("session:  %s\n", s.ID)
	fmt.Printf("phase:    %s\n", s.Phase)
	fmt.Printf("updated:  %s\n", s.UpdatedAt.Format("2006-01-02 15:04:05"))

	if s.Elicitation != nil && !s.Elicitation.Finalized {
		report := elicit.NewEngine(s.Elicitation).Report()
		fmt.Printf("checklist: %d/%d topics answered\n",
			len(report.Answered), len(report.Answered)+len(report.Unanswered))
		for _, t := range report.Unanswered {
			fmt.Printf("  missing: %s\n", t)
		}
	}

	if s.Masterplan != nil {
		fmt.Printf("masterplan: %d features, %d amendments\n",
			len(s.Masterplan.Features), len(s.Masterplan.Amendments))
	}

	if s.Graph != nil {
		counts := s.Graph.StatusCounts()
		fmt.Printf("graph: %d nodes (%d planned, %d stubbed, %d implemented)\n",
			len(s.Graph.Nodes),
			counts[project.StatusPlanned],
			counts[project.StatusStubbed],
			counts[project.StatusImplemented],
		)
	}

	if len(s.ActiveDelta) > 0 {
		fmt.Printf("extension in flight: %d delta nodes\n", len(s.ActiveDelta))
	}

	if len(s.Pending) > 0 {
		fmt.Printf("pending questions (%d):\n", len(s.Pending))
		for _, q := range s.Pending {
			fmt.Printf("  %s:\n", q.Path)
			for _, question := range q.Questions {
				fmt.Printf("    - %s\n", question)
			}
		}
	}

	if n := len(s.PhaseLog); n > 0 {
		last := s.PhaseLog[n-1]
		fmt.Printf("last record: [%s] passed=%t %s\n", last.Phase, last.Passed, last.Note)
	}
	return nil
}
