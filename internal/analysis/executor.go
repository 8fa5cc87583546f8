package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/marcus/talent-tracker/internal/assembly"
	"github.com/marcus/talent-tracker/internal/db"
	"github.com/marcus/talent-tracker/internal/llm"
	"github.com/marcus/talent-tracker/internal/prompts"
	"github.com/marcus/talent-tracker/internal/schemas"
)

// Result is a parsed, schema-valid analysis output.
type Result struct {
	Category string          `json:"category"`
	Raw      json.RawMessage `json:"raw"`
	Fields   map[string]any  `json:"fields,omitempty"`
	Summary  string          `json:"summary,omitempty"`
}

// Executor drives one inference call per job: prompt construction, the
// capability call, response parsing, and schema validation.
type Executor struct {
	client llm.Client
}

// NewExecutor creates an executor over an inference client.
func NewExecutor(client llm.Client) *Executor {
	return &Executor{client: client}
}

// Execute sends instructions plus the assembled context to the inference
// capability and parses the structured response for the given output
// category. Transient capability failures surface as *llm.InferenceError;
// shape mismatches as *MalformedOutputError.
func (e *Executor) Execute(ctx context.Context, systemInstructions, instructions string, bundle *assembly.ContextBundle, category string, tier llm.ModelTier) (*Result, error) {
	if systemInstructions == "" {
		systemInstructions = prompts.MustGet("analysis.json", "analyst_system")
	}

	prompt := buildPrompt(instructions, bundle, category)

	raw, err := e.client.InferJSON(ctx, systemInstructions, prompt, tier)
	if err != nil {
		return nil, err
	}

	return ParseResult(raw, category)
}

// buildPrompt joins the prompt's instructions, the output contract for its
// category, and the rendered context bundle.
func buildPrompt(instructions string, bundle *assembly.ContextBundle, category string) string {
	var sb strings.Builder
	sb.WriteString(strings.TrimSpace(instructions))
	sb.WriteString("\n\n")
	sb.WriteString(prompts.MustGet("analysis.json", "contract_"+category))
	sb.WriteString("\n\n# Context\n\n")
	sb.WriteString(bundle.Render())
	return sb.String()
}

// ParseResult parses raw capability output and validates it against the
// category's schema.
func ParseResult(raw, category string) (*Result, error) {
	cleaned := llm.CleanJSONBlock(raw)

	var parsed map[string]any
	if err := json.Unmarshal([]byte(cleaned), &parsed); err != nil {
		return nil, &MalformedOutputError{Category: category, Message: "response is not valid JSON", Cause: err}
	}

	if err := schemas.ValidateCategory(category, cleaned); err != nil {
		var validationErr *schemas.ValidationError
		if errors.As(err, &validationErr) {
			return nil, &MalformedOutputError{Category: category, Message: "schema validation failed", Cause: err}
		}
		return nil, err
	}

	result := &Result{
		Category: category,
		Raw:      json.RawMessage(cleaned),
	}

	switch category {
	case db.CategoryProfile, db.CategoryPreferences:
		result.Fields = parsed

	case db.CategorySummary:
		summary, _ := parsed["summary"].(string)
		if summary == "" {
			return nil, &MalformedOutputError{Category: category, Message: "summary field is empty"}
		}
		result.Summary = summary

	case db.CategoryMetadata:
		summary, _ := parsed["summary"].(string)
		result.Summary = summary
		if fields, ok := parsed["fields"].(map[string]any); ok {
			result.Fields = fields
		}

	default:
		return nil, fmt.Errorf("unknown output category: %s", category)
	}

	return result, nil
}
