package catalog

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/marcus/talent-tracker/internal/db"
)

// TreeLoader is the persistence capability the catalog needs.
type TreeLoader interface {
	LoadTemplateTree(ctx context.Context, templateID uuid.UUID) (*db.TemplateTree, error)
}

// Snapshot is an immutable view of one template's stages and prompts, taken
// when an orchestration run is triggered.
type Snapshot struct {
	template db.PipelineTemplate
	stages   []db.StagePrompts
	byName   map[string]int
}

// Load reads a template tree and freezes it into a Snapshot.
func Load(ctx context.Context, loader TreeLoader, templateID uuid.UUID) (*Snapshot, error) {
	tree, err := loader.LoadTemplateTree(ctx, templateID)
	if err != nil {
		return nil, err
	}
	if tree == nil {
		return nil, &NotFoundError{Kind: "template", Name: templateID.String()}
	}
	return FromTree(tree), nil
}

// FromTree builds a Snapshot from an already-loaded tree. Prompt order within
// each stage follows the stored order index with ties broken by id, keeping
// resolution deterministic.
func FromTree(tree *db.TemplateTree) *Snapshot {
	s := &Snapshot{
		template: tree.Template,
		stages:   make([]db.StagePrompts, len(tree.Stages)),
		byName:   make(map[string]int, len(tree.Stages)),
	}
	copy(s.stages, tree.Stages)

	sort.SliceStable(s.stages, func(i, j int) bool {
		return s.stages[i].Stage.OrderIndex < s.stages[j].Stage.OrderIndex
	})
	for i := range s.stages {
		prompts := make([]db.Prompt, len(s.stages[i].Prompts))
		copy(prompts, s.stages[i].Prompts)
		sort.SliceStable(prompts, func(a, b int) bool {
			if prompts[a].OrderIndex != prompts[b].OrderIndex {
				return prompts[a].OrderIndex < prompts[b].OrderIndex
			}
			return prompts[a].ID.String() < prompts[b].ID.String()
		})
		s.stages[i].Prompts = prompts
		s.byName[s.stages[i].Stage.Name] = i
	}
	return s
}

// Template returns the snapshot's template record.
func (s *Snapshot) Template() db.PipelineTemplate {
	return s.template
}

// Stages returns the stages in pipeline order.
func (s *Snapshot) Stages() []db.StagePrompts {
	return s.stages
}

// ResolveStage returns the stage by name.
func (s *Snapshot) ResolveStage(stageName string) (*db.Stage, error) {
	idx, ok := s.byName[stageName]
	if !ok {
		return nil, &NotFoundError{Kind: "stage", Name: stageName}
	}
	stage := s.stages[idx].Stage
	return &stage, nil
}

// ResolveStagePrompts returns the ordered prompts for a stage.
func (s *Snapshot) ResolveStagePrompts(stageName string) ([]db.Prompt, error) {
	idx, ok := s.byName[stageName]
	if !ok {
		return nil, &NotFoundError{Kind: "stage", Name: stageName}
	}
	return s.stages[idx].Prompts, nil
}

// ResolveSystemInstructions returns the stage's system-level instructions,
// with ok=false when the stage declares none.
func (s *Snapshot) ResolveSystemInstructions(stageName string) (string, bool, error) {
	idx, ok := s.byName[stageName]
	if !ok {
		return "", false, &NotFoundError{Kind: "stage", Name: stageName}
	}
	instructions := s.stages[idx].Stage.SystemInstructions
	if instructions == nil || *instructions == "" {
		return "", false, nil
	}
	return *instructions, true, nil
}

// ValidateCandidateStage checks that a candidate's stage-name reference still
// resolves, returning *OrphanedStageError if it does not.
func (s *Snapshot) ValidateCandidateStage(candidate *db.Candidate) error {
	if candidate.PipelineStage == "" {
		return nil
	}
	if _, ok := s.byName[candidate.PipelineStage]; !ok {
		return &OrphanedStageError{
			CandidateID: candidate.ID,
			StageName:   candidate.PipelineStage,
			TemplateID:  s.template.ID,
		}
	}
	return nil
}
