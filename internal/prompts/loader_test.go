package prompts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet(t *testing.T) {
	ClearCache()

	prompt, err := Get("analysis.json", "analyst_system")
	require.NoError(t, err)
	assert.NotEmpty(t, prompt)
}

func TestGet_UnknownKey(t *testing.T) {
	_, err := Get("analysis.json", "nonexistent_key")
	assert.ErrorContains(t, err, "nonexistent_key")
}

func TestGet_UnknownFile(t *testing.T) {
	_, err := Get("missing.json", "any")
	assert.Error(t, err)
}

func TestMustGet_PanicsOnMissing(t *testing.T) {
	assert.Panics(t, func() {
		MustGet("analysis.json", "nonexistent_key")
	})
}

func TestFormat(t *testing.T) {
	result := Format("Summarize the {{.Stage}} stage.", map[string]string{"Stage": "screening"})
	assert.Equal(t, "Summarize the screening stage.", result)
}

func TestFormat_MissingKeyLeftAlone(t *testing.T) {
	result := Format("Hello {{.Name}}", map[string]string{"Other": "x"})
	assert.Equal(t, "Hello {{.Name}}", result)
}

func TestStageSummaryPrompt(t *testing.T) {
	user := MustGet("analysis.json", "stage_summary_user")
	formatted := Format(user, map[string]string{"Stage": "screening"})
	assert.Contains(t, formatted, "screening")
	assert.NotContains(t, formatted, "{{.")
}

func TestList(t *testing.T) {
	keys, err := List("analysis.json")
	require.NoError(t, err)

	assert.Contains(t, keys, "analyst_system")
	assert.Contains(t, keys, "stage_summary_system")
	for _, category := range []string{"profile", "preferences", "summary", "metadata"} {
		assert.Contains(t, keys, "contract_"+category)
	}
}
