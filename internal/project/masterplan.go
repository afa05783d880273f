package project

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Masterplan is the approved requirements document produced by elicitation.
// It is immutable once approved except via an explicit, logged amendment.
type Masterplan struct {
	Objective  string    `json:"objective" validate:"required"`
	Audience   string    `json:"audience" validate:"required"`
	Features   []Feature `json:"features" validate:"required,min=1,dive"`
	Technology []string  `json:"technology" validate:"required,min=1"`
	DataModel  string    `json:"data_model" validate:"required"`
	UI         string    `json:"ui" validate:"required"`
	Security   string    `json:"security" validate:"required"`
	Milestones []string  `json:"milestones" validate:"required,min=1"`
	Risks      []string  `json:"risks" validate:"required,min=1"`
	Future     []string  `json:"future,omitempty"`

	ApprovedAt time.Time   `json:"approved_at,omitempty"`
	Amendments []Amendment `json:"amendments,omitempty"`
}

// Feature is one entry in the masterplan feature list. Aspects determine
// which FileNodes the graph builder derives from it; Requires names other
// features this one builds on.
type Feature struct {
	Name     string   `json:"name" validate:"required"`
	Summary  string   `json:"summary" validate:"required"`
	Behavior string   `json:"behavior,omitempty"`
	Aspects  []Aspect `json:"aspects" validate:"required,min=1"`
	Requires []string `json:"requires,omitempty"`
}

// Aspect classifies one facet of a feature. Each aspect of a feature
// yields its own FileNode.
type Aspect string

const (
	// AspectUI is a user-facing surface (page, view, command).
	AspectUI Aspect = "ui"

	// AspectData is a data-access or persistence layer.
	AspectData Aspect = "data"

	// AspectService is domain logic with no direct user surface.
	AspectService Aspect = "service"

	// AspectAuth is authentication or access control.
	AspectAuth Aspect = "auth"
)

// Amendment records one explicit change to an approved masterplan.
// Amendments never silently invalidate already-implemented nodes.
type Amendment struct {
	At          time.Time `json:"at"`
	Description string    `json:"description"`
	Feature     string    `json:"feature,omitempty"`
}

var planValidator = validator.New(validator.WithRequiredStructEnabled())

// Validate reports which required masterplan sections are missing. The
// returned slice is empty when the plan is complete.
func (m *Masterplan) Validate() []string {
	err := planValidator.Struct(m)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []string{err.Error()}
	}

	missing := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		missing = append(missing, fmt.Sprintf("section %s: %s", fe.Namespace(), fe.Tag()))
	}
	return missing
}

// FeatureByName returns the named feature, matching case-insensitively.
func (m *Masterplan) FeatureByName(name string) (*Feature, bool) {
	for i := range m.Features {
		if strings.EqualFold(m.Features[i].Name, name) {
			return &m.Features[i], true
		}
	}
	return nil, false
}

// Amend appends a feature through an explicit, logged amendment and
// returns the amendment record. The caller is responsible for mirroring
// the amendment into the session's phase log.
func (m *Masterplan) Amend(f Feature, description string) Amendment {
	a := Amendment{
		At:          time.Now().UTC(),
		Description: description,
		Feature:     f.Name,
	}
	m.Features = append(m.Features, f)
	m.Amendments = append(m.Amendments, a)
	return a
}

// Retract removes a feature through an explicit, logged reversal
// amendment and returns the amendment record. It reports false when the
// plan holds no such feature. Used when an extension cycle is aborted:
// the plan must not keep advertising a feature no graph node realizes.
func (m *Masterplan) Retract(name, description string) (Amendment, bool) {
	for i := range m.Features {
		if strings.EqualFold(m.Features[i].Name, name) {
			a := Amendment{
				At:          time.Now().UTC(),
				Description: description,
				Feature:     m.Features[i].Name,
			}
			m.Features = append(m.Features[:i], m.Features[i+1:]...)
			m.Amendments = append(m.Amendments, a)
			return a, true
		}
	}
	return Amendment{}, false
}

// featureLinePattern matches one feature list entry:
//
//	name: summary [ui,data] (requires other, another)
//
// Aspect and requires clauses are optional.
var featureLinePattern = regexp.MustCompile(
	`^\s*([^:\[\]]+?)\s*:\s*([^\[\(]+?)\s*(?:\[([^\]]*)\])?\s*(?:\(requires\s+([^)]+)\))?\s*$`)

// ParseFeatureList parses the operator's feature answer, one feature per
// line. Blank lines are skipped. Lines that do not match the entry form
// are rejected rather than guessed at.
func ParseFeatureList(text string) ([]Feature, error) {
	var features []Feature
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		match := featureLinePattern.FindStringSubmatch(line)
		if match == nil {
			return nil, fmt.Errorf("unparseable feature entry %q (want \"name: summary [aspects] (requires ...)\")", line)
		}

		f := Feature{
			Name:    strings.TrimSpace(match[1]),
			Summary: strings.TrimSpace(match[2]),
		}
		if match[3] != "" {
			for _, raw := range strings.Split(match[3], ",") {
				aspect, err := parseAspect(raw)
				if err != nil {
					return nil, fmt.Errorf("feature %q: %w", f.Name, err)
				}
				f.Aspects = append(f.Aspects, aspect)
			}
		}
		if len(f.Aspects) == 0 {
			f.Aspects = []Aspect{AspectUI}
		}
		if match[4] != "" {
			for _, raw := range strings.Split(match[4], ",") {
				f.Requires = append(f.Requires, strings.TrimSpace(raw))
			}
		}
		features = append(features, f)
	}
	return features, nil
}

func parseAspect(raw string) (Aspect, error) {
	switch Aspect(strings.ToLower(strings.TrimSpace(raw))) {
	case AspectUI:
		return AspectUI, nil
	case AspectData:
		return AspectData, nil
	case AspectService:
		return AspectService, nil
	case AspectAuth:
		return AspectAuth, nil
	}
	return "", fmt.Errorf("unknown aspect %q", strings.TrimSpace(raw))
}
