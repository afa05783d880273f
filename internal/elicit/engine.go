package elicit

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fyrsmithlabs/planward/internal/project"
)

// Topic is one entry in the elicitation checklist.
type Topic string

const (
	TopicPurpose      Topic = "purpose"
	TopicAudience     Topic = "audience"
	TopicFeatures     Topic = "features"
	TopicPlatform     Topic = "platform"
	TopicUI           Topic = "ui"
	TopicData         Topic = "data"
	TopicSecurity     Topic = "security"
	TopicIntegrations Topic = "integrations"
	TopicScalability  Topic = "scalability"
	TopicRisks        Topic = "risks"
	TopicVisualRefs   Topic = "visual-references"
)

// Topics returns the full checklist in prompt order.
func Topics() []Topic {
	return []Topic{
		TopicPurpose, TopicAudience, TopicFeatures, TopicPlatform,
		TopicUI, TopicData, TopicSecurity, TopicIntegrations,
		TopicScalability, TopicRisks, TopicVisualRefs,
	}
}

// Prompt returns the operator-facing question for a topic.
func Prompt(t Topic) string {
	switch t {
	case TopicPurpose:
		return "What problem should the application solve, and what is its core objective?"
	case TopicAudience:
		return "Who is the target audience?"
	case TopicFeatures:
		return "List the core features, one per line: name: summary [aspects] (requires ...)"
	case TopicPlatform:
		return "What platform should it target, and which technology directions are acceptable?"
	case TopicUI:
		return "Describe the UI concept and key principles."
	case TopicData:
		return "What data does the application need to store and query?"
	case TopicSecurity:
		return "What are the authentication and security requirements?"
	case TopicIntegrations:
		return "Which external services or APIs must it integrate with?"
	case TopicScalability:
		return "What are the scalability expectations?"
	case TopicRisks:
		return "What known technical risks exist, one per line?"
	case TopicVisualRefs:
		return "Are there visual references or existing designs to follow?"
	}
	return string(t)
}

// State is the checklist-completion state of one elicitation: a mapping
// from topic to its answer. It is stored on the session so elicitation
// resumes across interruptions.
type State struct {
	Answers   map[Topic]string `json:"answers"`
	Finalized bool             `json:"finalized"`
}

// NewState returns an empty elicitation state.
func NewState() *State {
	return &State{Answers: make(map[Topic]string)}
}

// Report summarizes checklist completeness. It is consumed by the
// eliciting exit gate.
type Report struct {
	Answered   []Topic
	Unanswered []Topic
}

// Complete reports whether every topic has an answer.
func (r Report) Complete() bool {
	return len(r.Unanswered) == 0
}

// Engine merges operator answers into the checklist state and produces
// the masterplan once the checklist is complete.
type Engine struct {
	state *State
}

// NewEngine wraps an elicitation state. A nil state starts fresh.
func NewEngine(state *State) *Engine {
	if state == nil {
		state = NewState()
	}
	if state.Answers == nil {
		state.Answers = make(map[Topic]string)
	}
	return &Engine{state: state}
}

// State returns the underlying checklist state.
func (e *Engine) State() *State {
	return e.state
}

// Answer records the operator's answer for a topic. Re-answering a topic
// replaces the previous answer; answering after finalization is rejected
// (the masterplan changes only via logged amendments from then on).
func (e *Engine) Answer(topic Topic, text string) error {
	if e.state.Finalized {
		return fmt.Errorf("elicitation already finalized; amend the masterplan instead")
	}
	if !knownTopic(topic) {
		return fmt.Errorf("unknown topic %q (known: %s)", topic, topicNames())
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return fmt.Errorf("topic %q: empty answer", topic)
	}
	e.state.Answers[topic] = text
	return nil
}

// Report lists answered and unanswered topics.
func (e *Engine) Report() Report {
	var r Report
	for _, t := range Topics() {
		if _, ok := e.state.Answers[t]; ok {
			r.Answered = append(r.Answered, t)
		} else {
			r.Unanswered = append(r.Unanswered, t)
		}
	}
	return r
}

// Finalize assembles the draft masterplan from the answered checklist.
// It fails, naming each blank topic, while any remain unanswered: the
// operator must be re-prompted rather than the gap papered over.
func (e *Engine) Finalize() (*project.Masterplan, error) {
	report := e.Report()
	if !report.Complete() {
		names := make([]string, 0, len(report.Unanswered))
		for _, t := range report.Unanswered {
			names = append(names, string(t))
		}
		return nil, fmt.Errorf("unanswered topics: %s", strings.Join(names, ", "))
	}

	features, err := project.ParseFeatureList(e.state.Answers[TopicFeatures])
	if err != nil {
		return nil, fmt.Errorf("finalize: %w", err)
	}

	m := &project.Masterplan{
		Objective: e.state.Answers[TopicPurpose],
		Audience:  e.state.Answers[TopicAudience],
		Features:  features,
		Technology: []string{
			"platform: " + e.state.Answers[TopicPlatform],
			"integrations: " + e.state.Answers[TopicIntegrations],
			"scalability: " + e.state.Answers[TopicScalability],
		},
		DataModel:  e.state.Answers[TopicData],
		UI:         mergeUI(e.state.Answers[TopicUI], e.state.Answers[TopicVisualRefs]),
		Security:   e.state.Answers[TopicSecurity],
		Milestones: deriveMilestones(features),
		Risks:      splitLines(e.state.Answers[TopicRisks]),
	}

	if missing := m.Validate(); len(missing) > 0 {
		return nil, fmt.Errorf("masterplan incomplete: %s", strings.Join(missing, "; "))
	}

	e.state.Finalized = true
	return m, nil
}

// deriveMilestones lays features out as phased milestones: dependencies
// of a feature are always delivered in an earlier or equal milestone.
func deriveMilestones(features []project.Feature) []string {
	ordered := make([]project.Feature, len(features))
	copy(ordered, features)
	sort.SliceStable(ordered, func(i, j int) bool {
		return len(ordered[i].Requires) < len(ordered[j].Requires)
	})

	out := make([]string, 0, len(ordered)+1)
	out = append(out, "Milestone 1: project scaffold and shared foundations")
	for i, f := range ordered {
		out = append(out, fmt.Sprintf("Milestone %d: deliver %s", i+2, f.Name))
	}
	return out
}

func mergeUI(concept, refs string) string {
	if strings.EqualFold(refs, "none") || refs == "" {
		return concept
	}
	return concept + "\nVisual references: " + refs
}

func splitLines(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

func knownTopic(t Topic) bool {
	for _, known := range Topics() {
		if known == t {
			return true
		}
	}
	return false
}

func topicNames() string {
	names := make([]string, 0, len(Topics()))
	for _, t := range Topics() {
		names = append(names, string(t))
	}
	return strings.Join(names, ", ")
}
