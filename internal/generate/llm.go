package generate

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// ambiguityMarker is the line prefix the model is instructed to use when
// the masterplan underspecifies required behavior.
const ambiguityMarker = "AMBIGUOUS:"

// LLMConfig configures the assistant-backed generator. BaseURL accepts
// any OpenAI-compatible endpoint.
type LLMConfig struct {
	BaseURL string
	Model   string
	APIKey  string
}

// LLMGenerator produces content through an OpenAI-compatible model via
// langchaingo.
type LLMGenerator struct {
	llm llms.Model
}

// NewLLMGenerator builds the assistant-backed generator.
func NewLLMGenerator(cfg LLMConfig) (*LLMGenerator, error) {
	apiKey := cfg.APIKey
	if apiKey == "" {
		// langchaingo requires a token even for keyless local endpoints.
		apiKey = "placeholder"
	}

	opts := []openai.Option{
		openai.WithModel(cfg.Model),
		openai.WithToken(apiKey),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}

	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("creating LLM client: %w", err)
	}
	return &LLMGenerator{llm: llm}, nil
}

// Generate prompts the model with the node's stub and contracts, then
// splits ambiguity reports out of the response.
func (g *LLMGenerator) Generate(ctx context.Context, req *Request) (*Artifact, error) {
	prompt := buildPrompt(req)

	completion, err := llms.GenerateFromSinglePrompt(ctx, g.llm, prompt,
		llms.WithTemperature(0.2),
	)
	if err != nil {
		return nil, fmt.Errorf("generate %s: %w", req.Node.Path, err)
	}

	artifact := &Artifact{}
	var content []string
	for _, line := range strings.Split(completion, "\n") {
		if q, ok := strings.CutPrefix(strings.TrimSpace(line), ambiguityMarker); ok {
			artifact.Ambiguities = append(artifact.Ambiguities, strings.TrimSpace(q))
			continue
		}
		content = append(content, line)
	}
	artifact.Content = strings.TrimSpace(strings.Join(content, "\n")) + "\n"
	return artifact, nil
}

// buildPrompt assembles the contract-constrained prompt. The declared
// interface is restated verbatim so conformance can be checked against
// the same names afterwards.
func buildPrompt(req *Request) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Implement the file %q.\n", req.Node.Path)
	fmt.Fprintf(&b, "Purpose: %s\n\n", req.Node.Purpose)

	b.WriteString("Declared public interface; expose exactly these operations, no additions or removals:\n")
	for _, op := range req.Node.Interface {
		fmt.Fprintf(&b, "  - %s\n", op.Signature)
	}

	if req.Masterplan != nil {
		if f, ok := req.Masterplan.FeatureByName(req.Node.Feature); ok {
			fmt.Fprintf(&b, "\nFeature %q: %s\n", f.Name, f.Summary)
			if f.Behavior != "" {
				fmt.Fprintf(&b, "Specified behavior: %s\n", f.Behavior)
			}
		}
	}

	if len(req.Dependencies) > 0 {
		b.WriteString("\nImplemented dependencies:\n")
		for path, content := range req.Dependencies {
			fmt.Fprintf(&b, "--- %s ---\n%s\n", path, content)
		}
	}

	b.WriteString("\nStart from this stub:\n")
	b.WriteString(req.Stub)

	fmt.Fprintf(&b, "\nIf required behavior is not stated above, do not invent it: "+
		"emit a line starting with %q naming the open question instead of guessing.\n", ambiguityMarker)
	b.WriteString("Respond with the file content only.\n")

	return b.String()
}
