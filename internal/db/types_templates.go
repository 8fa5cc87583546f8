package db

import (
	"time"

	"github.com/google/uuid"
)

// PipelineTemplate is a reusable definition of ordered hiring stages.
type PipelineTemplate struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Stage is a named phase within a template. OrderIndex is unique per template
// and defines the pipeline position.
type Stage struct {
	ID                 uuid.UUID `json:"id"`
	TemplateID         uuid.UUID `json:"template_id"`
	Name               string    `json:"name"`
	DisplayName        string    `json:"display_name"`
	Description        string    `json:"description"`
	SystemInstructions *string   `json:"system_instructions,omitempty"`
	OrderIndex         int       `json:"order_index"`
}

// Prompt is a configured unit of AI analysis: instructions plus the context
// sources it consumes. OrderIndex is the execution order within the stage.
type Prompt struct {
	ID             uuid.UUID `json:"id"`
	StageID        uuid.UUID `json:"stage_id"`
	Name           string    `json:"name"`
	Instructions   string    `json:"instructions"`
	ContextSources []string  `json:"context_sources"`
	OutputCategory string    `json:"output_category"`
	OrderIndex     int       `json:"order_index"`
}

// StagePrompts pairs a stage with its prompts in stored order.
type StagePrompts struct {
	Stage   Stage    `json:"stage"`
	Prompts []Prompt `json:"prompts"`
}

// TemplateTree is a full template hierarchy as read in one load.
type TemplateTree struct {
	Template PipelineTemplate `json:"template"`
	Stages   []StagePrompts   `json:"stages"`
}

// TemplateInput holds fields for creating a template.
type TemplateInput struct {
	Name        string
	Description string
}

// StageInput holds fields for creating a stage.
type StageInput struct {
	TemplateID         uuid.UUID
	Name               string
	DisplayName        string
	Description        string
	SystemInstructions *string
	OrderIndex         int
}

// PromptInput holds fields for creating a prompt.
type PromptInput struct {
	StageID        uuid.UUID
	Name           string
	Instructions   string
	ContextSources []string
	OutputCategory string
	OrderIndex     int
}
