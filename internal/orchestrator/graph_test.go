package orchestrator

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcus/talent-tracker/internal/db"
)

func prompt(name string, sources ...string) db.Prompt {
	return db.Prompt{ID: uuid.New(), Name: name, ContextSources: sources}
}

func waveNames(wave []db.Prompt) []string {
	names := make([]string, len(wave))
	for i, p := range wave {
		names[i] = p.Name
	}
	return names
}

func TestBuildWaves_NoDependencies(t *testing.T) {
	waves, err := buildWaves([]db.Prompt{
		prompt("a", "attachment_text"),
		prompt("b", "profile"),
	})

	require.NoError(t, err)
	require.Len(t, waves, 1)
	assert.ElementsMatch(t, []string{"a", "b"}, waveNames(waves[0]))
}

func TestBuildWaves_Chain(t *testing.T) {
	waves, err := buildWaves([]db.Prompt{
		prompt("extract_profile", "attachment_text"),
		prompt("assess_fit", "prompt:extract_profile"),
		prompt("final_call", "prompt:assess_fit"),
	})

	require.NoError(t, err)
	require.Len(t, waves, 3)
	assert.Equal(t, []string{"extract_profile"}, waveNames(waves[0]))
	assert.Equal(t, []string{"assess_fit"}, waveNames(waves[1]))
	assert.Equal(t, []string{"final_call"}, waveNames(waves[2]))
}

func TestBuildWaves_Diamond(t *testing.T) {
	waves, err := buildWaves([]db.Prompt{
		prompt("root", "attachment_text"),
		prompt("left", "prompt:root"),
		prompt("right", "prompt:root"),
		prompt("merge", "prompt:left", "prompt:right"),
	})

	require.NoError(t, err)
	require.Len(t, waves, 3)
	assert.Equal(t, []string{"root"}, waveNames(waves[0]))
	assert.ElementsMatch(t, []string{"left", "right"}, waveNames(waves[1]))
	assert.Equal(t, []string{"merge"}, waveNames(waves[2]))
}

func TestBuildWaves_ExternalDependencyIgnored(t *testing.T) {
	// A reference to a prompt outside this stage resolves from history at
	// assembly time and does not constrain execution order.
	waves, err := buildWaves([]db.Prompt{
		prompt("assess_fit", "prompt:earlier_stage_prompt"),
	})

	require.NoError(t, err)
	require.Len(t, waves, 1)
	assert.Equal(t, []string{"assess_fit"}, waveNames(waves[0]))
}

func TestBuildWaves_SelfReferenceIgnored(t *testing.T) {
	waves, err := buildWaves([]db.Prompt{
		prompt("summarize", "prompt:summarize", "stage_results"),
	})

	require.NoError(t, err)
	require.Len(t, waves, 1)
}

func TestBuildWaves_Cycle(t *testing.T) {
	_, err := buildWaves([]db.Prompt{
		prompt("a", "prompt:b"),
		prompt("b", "prompt:a"),
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "dependency cycle")
	assert.Contains(t, err.Error(), "a")
	assert.Contains(t, err.Error(), "b")
}

func TestBuildWaves_Empty(t *testing.T) {
	waves, err := buildWaves(nil)
	require.NoError(t, err)
	assert.Empty(t, waves)
}
