package generate

import (
	"context"
	"fmt"
	"strings"
	"text/template"

	"github.com/fyrsmithlabs/planward/internal/project"
)

// TemplateGenerator is the deterministic offline generator: it expands a
// stub into conventional per-operation bodies without calling a model.
// It carries no business knowledge, so a service node whose feature has
// no stated behavior is reported as ambiguous, never improvised.
type TemplateGenerator struct{}

// NewTemplateGenerator returns the offline generator.
func NewTemplateGenerator() *TemplateGenerator {
	return &TemplateGenerator{}
}

var implTemplate = template.Must(template.New("impl").Parse(`# {{.Path}}
# {{.Purpose}}
{{range .Operations}}
def {{.Name}}(**kwargs):
    """{{.Signature}}"""
    {{.Body}}
{{end}}`))

type implOperation struct {
	Name      string
	Signature string
	Body      string
}

type implData struct {
	Path       string
	Purpose    string
	Operations []implOperation
}

// Generate renders conventional bodies for the declared interface.
func (g *TemplateGenerator) Generate(ctx context.Context, req *Request) (*Artifact, error) {
	if req.Masterplan != nil {
		if f, ok := req.Masterplan.FeatureByName(req.Node.Feature); ok {
			if f.Behavior == "" && req.Node.Aspect == project.AspectService {
				return &Artifact{
					Ambiguities: []string{fmt.Sprintf(
						"feature %q states no behavior for its domain logic; what should %s do?",
						f.Name, req.Node.Path)},
				}, nil
			}
		}
	}

	data := implData{
		Path:    req.Node.Path,
		Purpose: req.Node.Purpose,
	}
	for _, op := range req.Node.Interface {
		data.Operations = append(data.Operations, implOperation{
			Name:      op.Name,
			Signature: op.Signature,
			Body:      fmt.Sprintf("return _dispatch(%q, locals())", op.Name),
		})
	}

	var b strings.Builder
	if err := implTemplate.Execute(&b, data); err != nil {
		return nil, fmt.Errorf("render %s: %w", req.Node.Path, err)
	}
	return &Artifact{Content: b.String()}, nil
}
