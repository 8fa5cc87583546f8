package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, ProviderGemini, cfg.Provider)
	assert.NotEmpty(t, cfg.Models[TierLite])
	assert.NotEmpty(t, cfg.Models[TierStandard])
	assert.NotEmpty(t, cfg.Models[TierAdvanced])
}

func TestGetModel_ConfiguredTier(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, cfg.Models[TierAdvanced], cfg.GetModel(TierAdvanced))
}

func TestGetModel_FallsBackToStandard(t *testing.T) {
	cfg := &Config{Models: map[ModelTier]string{TierStandard: "standard-model"}}
	assert.Equal(t, "standard-model", cfg.GetModel(TierAdvanced))
}

func TestGetModel_FallsBackToLite(t *testing.T) {
	cfg := &Config{Models: map[ModelTier]string{TierLite: "lite-model"}}
	assert.Equal(t, "lite-model", cfg.GetModel(TierStandard))
}

func TestGetModel_NothingConfigured(t *testing.T) {
	cfg := &Config{Models: map[ModelTier]string{}}
	assert.Equal(t, "", cfg.GetModel(TierAdvanced))
}
