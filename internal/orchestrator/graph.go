package orchestrator

import (
	"fmt"
	"strings"

	"github.com/marcus/talent-tracker/internal/assembly"
	"github.com/marcus/talent-tracker/internal/db"
)

// buildWaves arranges a stage's prompts into execution waves: every prompt in
// a wave depends only on prompts in earlier waves, so prompts within a wave
// may run concurrently. Dependencies are read from each prompt's declared
// context sources; references to prompts outside this stage are resolved at
// assembly time from historical results and do not order execution here.
func buildWaves(stagePrompts []db.Prompt) ([][]db.Prompt, error) {
	inStage := make(map[string]bool, len(stagePrompts))
	for _, p := range stagePrompts {
		inStage[p.Name] = true
	}

	deps := make(map[string][]string, len(stagePrompts))
	for _, p := range stagePrompts {
		for _, source := range p.ContextSources {
			if name, ok := assembly.PromptDependency(source); ok && inStage[name] && name != p.Name {
				deps[p.Name] = append(deps[p.Name], name)
			}
		}
	}

	var waves [][]db.Prompt
	placed := make(map[string]bool, len(stagePrompts))
	remaining := stagePrompts

	for len(remaining) > 0 {
		var wave []db.Prompt
		var blocked []db.Prompt

		for _, p := range remaining {
			ready := true
			for _, dep := range deps[p.Name] {
				if !placed[dep] {
					ready = false
					break
				}
			}
			if ready {
				wave = append(wave, p)
			} else {
				blocked = append(blocked, p)
			}
		}

		if len(wave) == 0 {
			names := make([]string, 0, len(blocked))
			for _, p := range blocked {
				names = append(names, p.Name)
			}
			return nil, fmt.Errorf("dependency cycle among prompts: %s", strings.Join(names, ", "))
		}

		for _, p := range wave {
			placed[p.Name] = true
		}
		waves = append(waves, wave)
		remaining = blocked
	}

	return waves, nil
}
