package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetDefaults(t *testing.T) {
	var c Config
	c.SetDefaults()

	assert.Equal(t, 5, c.Engine.KStar)
	assert.Equal(t, 2, c.Engine.MaxCenterRounds)
	assert.Equal(t, 30*time.Second, c.Engine.OfferTimeout)
	assert.Equal(t, 300*time.Second, c.Engine.ConfirmationTimeout)
	assert.Equal(t, "info", c.Logger.Level)
	assert.Equal(t, "text", c.Logger.Format)
	assert.Equal(t, ":8080", c.Server.Addr)
}

func TestSetDefaults_DoesNotOverrideExplicitValues(t *testing.T) {
	c := Config{Engine: EngineConfig{KStar: 3, MaxCenterRounds: 1}}
	c.SetDefaults()
	assert.Equal(t, 3, c.Engine.KStar)
	assert.Equal(t, 1, c.Engine.MaxCenterRounds)
}

func TestValidate_RequiresLLMAndEmbedderType(t *testing.T) {
	c := Config{Engine: EngineConfig{MaxCenterRounds: 2}}
	err := c.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "llm.type")

	c.LLM.Type = "anthropic"
	err = c.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "embedder.type")

	c.Embedder.Type = "openai"
	assert.NoError(t, c.Validate())
}

func TestValidate_RejectsBadEngineBudgets(t *testing.T) {
	c := Config{LLM: ProviderConfig{Type: "anthropic"}, Embedder: ProviderConfig{Type: "openai"}}
	c.Engine.KStar = -1
	c.Engine.MaxCenterRounds = 2
	assert.Error(t, c.Validate())

	c.Engine.KStar = 5
	c.Engine.MaxCenterRounds = 0
	assert.Error(t, c.Validate())
}

func TestExpandEnvVars_BracedAndBareForms(t *testing.T) {
	t.Setenv("NEGOTIATOR_TEST_KEY", "secret-value")

	input := map[string]any{
		"api_key": "${NEGOTIATOR_TEST_KEY}",
		"bare":    "$NEGOTIATOR_TEST_KEY-suffix",
		"nested":  map[string]any{"inner": "${NEGOTIATOR_TEST_KEY}"},
		"list":    []any{"${NEGOTIATOR_TEST_KEY}"},
		"missing": "${NEGOTIATOR_DOES_NOT_EXIST}",
	}

	out := expandEnvVars(input)
	assert.Equal(t, "secret-value", out["api_key"])
	assert.Equal(t, "secret-value-suffix", out["bare"])
	assert.Equal(t, "secret-value", out["nested"].(map[string]any)["inner"])
	assert.Equal(t, "secret-value", out["list"].([]any)[0])
	assert.Equal(t, "${NEGOTIATOR_DOES_NOT_EXIST}", out["missing"])
}

func TestLoad_ParsesExpandsAndValidates(t *testing.T) {
	t.Setenv("NEGOTIATOR_TEST_API_KEY", "abc123")

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "negotiator.yaml")
	yamlContent := `
llm:
  type: anthropic
  model: claude-3
  api_key: "${NEGOTIATOR_TEST_API_KEY}"
embedder:
  type: openai
engine:
  k_star: 3
  max_center_rounds: 4
  offer_timeout: 15s
`
	require.NoError(t, os.WriteFile(cfgPath, []byte(yamlContent), 0644))

	cfg, err := Load(cfgPath, "")
	require.NoError(t, err)
	assert.Equal(t, "abc123", cfg.LLM.APIKey)
	assert.Equal(t, "anthropic", cfg.LLM.Type)
	assert.Equal(t, 3, cfg.Engine.KStar)
	assert.Equal(t, 4, cfg.Engine.MaxCenterRounds)
	assert.Equal(t, 15*time.Second, cfg.Engine.OfferTimeout)
	assert.Equal(t, 300*time.Second, cfg.Engine.ConfirmationTimeout)
}

func TestLoad_MissingRequiredFieldFails(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "negotiator.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("engine:\n  k_star: 1\n"), 0644))

	_, err := Load(cfgPath, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "llm.type")
}
