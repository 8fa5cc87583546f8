package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// CreateTemplate creates a pipeline template and returns it.
func (db *DB) CreateTemplate(ctx context.Context, input *TemplateInput) (*PipelineTemplate, error) {
	var t PipelineTemplate
	err := db.pool.QueryRow(ctx,
		`INSERT INTO pipeline_templates (name, description)
		 VALUES ($1, $2)
		 RETURNING id, name, description, created_at, updated_at`,
		input.Name, input.Description,
	).Scan(&t.ID, &t.Name, &t.Description, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create template: %w", err)
	}
	return &t, nil
}

// GetTemplate retrieves a template by ID. Returns nil if not found.
func (db *DB) GetTemplate(ctx context.Context, id uuid.UUID) (*PipelineTemplate, error) {
	var t PipelineTemplate
	err := db.pool.QueryRow(ctx,
		`SELECT id, name, description, created_at, updated_at
		 FROM pipeline_templates WHERE id = $1`,
		id,
	).Scan(&t.ID, &t.Name, &t.Description, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get template: %w", err)
	}
	return &t, nil
}

// ListTemplates retrieves all templates ordered by name.
func (db *DB) ListTemplates(ctx context.Context) ([]PipelineTemplate, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, name, description, created_at, updated_at
		 FROM pipeline_templates ORDER BY name`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	defer rows.Close()

	var templates []PipelineTemplate
	for rows.Next() {
		var t PipelineTemplate
		if err := rows.Scan(&t.ID, &t.Name, &t.Description, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan template: %w", err)
		}
		templates = append(templates, t)
	}
	return templates, nil
}

// CreateStage creates a stage within a template.
func (db *DB) CreateStage(ctx context.Context, input *StageInput) (*Stage, error) {
	var s Stage
	err := db.pool.QueryRow(ctx,
		`INSERT INTO stages (template_id, name, display_name, description, system_instructions, order_index)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, template_id, name, display_name, description, system_instructions, order_index`,
		input.TemplateID, input.Name, input.DisplayName, input.Description, input.SystemInstructions, input.OrderIndex,
	).Scan(&s.ID, &s.TemplateID, &s.Name, &s.DisplayName, &s.Description, &s.SystemInstructions, &s.OrderIndex)
	if err != nil {
		return nil, fmt.Errorf("failed to create stage: %w", err)
	}
	return &s, nil
}

// CreatePrompt creates a prompt within a stage.
func (db *DB) CreatePrompt(ctx context.Context, input *PromptInput) (*Prompt, error) {
	var p Prompt
	err := db.pool.QueryRow(ctx,
		`INSERT INTO prompts (stage_id, name, instructions, context_sources, output_category, order_index)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, stage_id, name, instructions, context_sources, output_category, order_index`,
		input.StageID, input.Name, input.Instructions, input.ContextSources, input.OutputCategory, input.OrderIndex,
	).Scan(&p.ID, &p.StageID, &p.Name, &p.Instructions, &p.ContextSources, &p.OutputCategory, &p.OrderIndex)
	if err != nil {
		return nil, fmt.Errorf("failed to create prompt: %w", err)
	}
	return &p, nil
}

// LoadTemplateTree reads a template with all its stages and prompts in one
// pass. Stages come back in order-index order; prompts in order-index order
// with ties broken by id so resolution stays deterministic.
func (db *DB) LoadTemplateTree(ctx context.Context, templateID uuid.UUID) (*TemplateTree, error) {
	template, err := db.GetTemplate(ctx, templateID)
	if err != nil {
		return nil, err
	}
	if template == nil {
		return nil, nil
	}

	tree := &TemplateTree{Template: *template}

	stageRows, err := db.pool.Query(ctx,
		`SELECT id, template_id, name, display_name, description, system_instructions, order_index
		 FROM stages WHERE template_id = $1 ORDER BY order_index`,
		templateID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load stages: %w", err)
	}
	defer stageRows.Close()

	stageIndex := make(map[uuid.UUID]int)
	for stageRows.Next() {
		var s Stage
		if err := stageRows.Scan(&s.ID, &s.TemplateID, &s.Name, &s.DisplayName, &s.Description, &s.SystemInstructions, &s.OrderIndex); err != nil {
			return nil, fmt.Errorf("failed to scan stage: %w", err)
		}
		stageIndex[s.ID] = len(tree.Stages)
		tree.Stages = append(tree.Stages, StagePrompts{Stage: s})
	}
	stageRows.Close()

	promptRows, err := db.pool.Query(ctx,
		`SELECT p.id, p.stage_id, p.name, p.instructions, p.context_sources, p.output_category, p.order_index
		 FROM prompts p
		 JOIN stages s ON s.id = p.stage_id
		 WHERE s.template_id = $1
		 ORDER BY p.order_index, p.id`,
		templateID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load prompts: %w", err)
	}
	defer promptRows.Close()

	for promptRows.Next() {
		var p Prompt
		if err := promptRows.Scan(&p.ID, &p.StageID, &p.Name, &p.Instructions, &p.ContextSources, &p.OutputCategory, &p.OrderIndex); err != nil {
			return nil, fmt.Errorf("failed to scan prompt: %w", err)
		}
		if idx, ok := stageIndex[p.StageID]; ok {
			tree.Stages[idx].Prompts = append(tree.Stages[idx].Prompts, p)
		}
	}

	return tree, nil
}
