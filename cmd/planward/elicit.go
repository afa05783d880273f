package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/planward/internal/elicit"
	"github.com/fyrsmithlabs/planward/internal/session"
)

func init() {
	rootCmd.AddCommand(topicsCmd)
	rootCmd.AddCommand(answerCmd)
	rootCmd.AddCommand(finalizeCmd)
}

// topicsCmd lists the elicitation checklist with answered state
var topicsCmd = &cobra.Command{
	Use:   "topics",
	Short: "List the elicitation checklist",
	Long: `List every checklist topic with its prompt and, when --session is
given, whether it has been answered.

Examples:
  planward topics
  planward topics -s <session-id>`,
	Args: cobra.NoArgs,
	RunE: runTopics,
}

// answerCmd records the operator's answer for one topic
var answerCmd = &cobra.Command{
	Use:   "answer <topic> [text]",
	Short: "Answer a checklist topic",
	Long: `Record the answer for one checklist topic. Text comes from the
argument, or from stdin when the argument is omitted or "-".
Re-answering a topic replaces the previous answer.

Examples:
  planward answer purpose "Track a stock watchlist with price alerts" -s <id>
  cat features.txt | planward answer features - -s <id>`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runAnswer,
}

// finalizeCmd assembles the masterplan from the completed checklist
var finalizeCmd = &cobra.Command{
	Use:   "finalize",
	Short: "Finalize elicitation into a masterplan",
	Long: `Assemble the draft masterplan from the answered checklist. Fails,
naming each blank topic, while any remain unanswered. After
finalization the masterplan changes only via logged amendments.

Examples:
  planward finalize -s <session-id>`,
	Args: cobra.NoArgs,
	RunE: runFinalize,
}

func runTopics(cmd *cobra.Command, args []string) error {
	var state *elicit.State
	if sessionID != "" {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()
		s, err := a.loadSession(cmd.Context())
		if err != nil {
			return err
		}
		state = s.Elicitation
	}

	for _, t := range elicit.Topics() {
		mark := " "
		if state != nil {
			if _, ok := state.Answers[t]; ok {
				mark = "x"
			}
		}
		fmt.Printf("[%s] %-18s %s\n", mark, t, elicit.Prompt(t))
	}
	return nil
}

func runAnswer(cmd *cobra.Command, args []string) error {
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

	var text string
	if len(args) == 2 && args[1] != "-" {
		text = args[1]
	} else {
		raw, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("failed to read from stdin: %w", err)
		}
		text = string(raw)
	}

	engine := elicit.NewEngine(s.Elicitation)
	topic := elicit.Topic(strings.ToLower(args[0]))
	if err := engine.Answer(topic, text); err != nil {
		return err
	}
	s.Elicitation = engine.State()

	if err := a.manager.Save(sessionContext(cmd, s.ID), s); err != nil {
		return err
	}

	report := engine.Report()
	fmt.Printf("answered %s (%d/%d topics)\n", topic,
		len(report.Answered), len(report.Answered)+len(report.Unanswered))
	return nil
}

func runFinalize(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	s, err := a.loadSession(cmd.Context())
	if err != nil {
		return err
	}
	if s.Phase != session.PhaseEliciting {
		return fmt.Errorf("session %s is in phase %s; finalize applies to eliciting", s.ID, s.Phase)
	}

	engine := elicit.NewEngine(s.Elicitation)
	plan, err := engine.Finalize()
	if err != nil {
		return err
	}
	s.Elicitation = engine.State()
	s.Masterplan = plan
	s.Log(session.Record{
		Phase:    session.PhaseEliciting,
		Passed:   true,
		Approved: true,
		Note:     fmt.Sprintf("masterplan finalized: %d features", len(plan.Features)),
	})

	if err := a.manager.Save(sessionContext(cmd, s.ID), s); err != nil {
		return err
	}

	fmt.Printf("masterplan finalized: %d features, %d milestones\n",
		len(plan.Features), len(plan.Milestones))
	fmt.Println("review it, then: planward advance --approve")
	return nil
}
