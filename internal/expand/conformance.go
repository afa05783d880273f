package expand

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/fyrsmithlabs/planward/internal/project"
	"github.com/fyrsmithlabs/planward/internal/scaffold"
)

// InterfaceDriftError reports divergence between a node's declared
// interface and its content. The node is reverted to stubbed; recovery is
// re-expansion or an explicit interface amendment.
type InterfaceDriftError struct {
	Path    string
	Missing []string // declared but absent
	Extra   []string // exposed but undeclared
	Marked  bool     // unexpanded scaffold markers remain
}

func (e *InterfaceDriftError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing operations: "+strings.Join(e.Missing, ", "))
	}
	if len(e.Extra) > 0 {
		parts = append(parts, "undeclared operations: "+strings.Join(e.Extra, ", "))
	}
	if e.Marked {
		parts = append(parts, "unexpanded markers remain")
	}
	return fmt.Sprintf("interface drift in %s: %s", e.Path, strings.Join(parts, "; "))
}

// AmbiguousRequirementError reports that the masterplan underspecifies a
// node. Blocking: it requires operator clarification and is never
// resolved silently.
type AmbiguousRequirementError struct {
	Path      string
	Questions []string
}

func (e *AmbiguousRequirementError) Error() string {
	return fmt.Sprintf("ambiguous requirement for %s: %s", e.Path, strings.Join(e.Questions, "; "))
}

// operationPattern extracts exposed operation names from artifact
// content. The check is structural, not a static analysis of the target
// language.
var operationPattern = regexp.MustCompile(`(?m)^def\s+([A-Za-z_][A-Za-z0-9_]*)\s*\(`)

// CheckInterface verifies content against the node's declared interface:
// every declared operation present, no undeclared operation exposed, no
// scaffold markers left behind. A nil return means the content conforms.
func CheckInterface(n *project.FileNode, content string) error {
	drift := &InterfaceDriftError{Path: n.Path}

	exposed := make(map[string]bool)
	for _, match := range operationPattern.FindAllStringSubmatch(content, -1) {
		exposed[match[1]] = true
	}

	declared := make(map[string]bool, len(n.Interface))
	for _, op := range n.Interface {
		declared[op.Name] = true
		if !exposed[op.Name] {
			drift.Missing = append(drift.Missing, op.Name)
		}
	}
	for name := range exposed {
		if !declared[name] {
			drift.Extra = append(drift.Extra, name)
		}
	}
	sort.Strings(drift.Extra)
	if strings.Contains(content, scaffold.Marker) || strings.TrimSpace(content) == "" {
		drift.Marked = true
	}

	if len(drift.Missing) > 0 || len(drift.Extra) > 0 || drift.Marked {
		return drift
	}
	return nil
}
