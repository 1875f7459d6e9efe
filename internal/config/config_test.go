package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearProviderKeys pins every provider key to empty so ambient environment
// variables cannot leak into assertions.
func clearProviderKeys(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("VENTURELENS_DB", "")
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "venturelens", cfg.Name)
	assert.Equal(t, "anthropic", cfg.LLM.Provider)
	assert.Equal(t, "120s", cfg.Pipeline.CallTimeout)
	assert.Equal(t, "data/venturelens.db", cfg.Storage.DatabasePath)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	clearProviderKeys(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Name, cfg.Name)
	assert.Equal(t, DefaultConfig().Pipeline.CallTimeout, cfg.Pipeline.CallTimeout)
}

func TestLoadYAML(t *testing.T) {
	clearProviderKeys(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
llm:
  provider: gemini
  api_key: file-key
models:
  validator: gemini-2.5-pro
pipeline:
  call_timeout: 45s
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "gemini", cfg.LLM.Provider)
	assert.Equal(t, "file-key", cfg.LLM.APIKey)
	assert.Equal(t, "gemini-2.5-pro", cfg.Models.Validator)
	assert.Equal(t, "45s", cfg.Pipeline.CallTimeout)
	// Untouched sections keep their defaults.
	assert.Equal(t, "data/venturelens.db", cfg.Storage.DatabasePath)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	clearProviderKeys(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("llm: [not a mapping"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Run("ANTHROPIC_API_KEY sets provider", func(t *testing.T) {
		clearProviderKeys(t)
		t.Setenv("ANTHROPIC_API_KEY", "ant-key")

		cfg := &Config{}
		cfg.applyEnvOverrides()

		assert.Equal(t, "ant-key", cfg.LLM.APIKey)
		assert.Equal(t, "anthropic", cfg.LLM.Provider)
	})

	t.Run("Precedence: OPENAI overrides ANTHROPIC", func(t *testing.T) {
		clearProviderKeys(t)
		t.Setenv("ANTHROPIC_API_KEY", "ant-key")
		t.Setenv("OPENAI_API_KEY", "oa-key")

		cfg := &Config{}
		cfg.applyEnvOverrides()

		assert.Equal(t, "oa-key", cfg.LLM.APIKey)
		assert.Equal(t, "openai", cfg.LLM.Provider)
	})

	t.Run("Precedence: GEMINI overrides OPENAI", func(t *testing.T) {
		clearProviderKeys(t)
		t.Setenv("OPENAI_API_KEY", "oa-key")
		t.Setenv("GEMINI_API_KEY", "gem-key")

		cfg := &Config{}
		cfg.applyEnvOverrides()

		assert.Equal(t, "gem-key", cfg.LLM.APIKey)
		assert.Equal(t, "gemini", cfg.LLM.Provider)
	})

	t.Run("VENTURELENS_DB overrides database path", func(t *testing.T) {
		clearProviderKeys(t)
		t.Setenv("VENTURELENS_DB", "/tmp/custom.db")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()

		assert.Equal(t, "/tmp/custom.db", cfg.Storage.DatabasePath)
	})
}

func TestGetCallTimeout(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 120*time.Second, cfg.GetCallTimeout())

	cfg.Pipeline.CallTimeout = "30s"
	assert.Equal(t, 30*time.Second, cfg.GetCallTimeout())

	cfg.Pipeline.CallTimeout = "not a duration"
	assert.Equal(t, 120*time.Second, cfg.GetCallTimeout())
}

func TestModelFor(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Models.ResearchEngine = "gpt-4o-mini"

	assert.Equal(t, "gpt-4o-mini", cfg.ModelFor("research_engine"))
	assert.Equal(t, "", cfg.ModelFor("context_analyzer"))
	assert.Equal(t, "", cfg.ModelFor("not_a_role"))
}

func TestValidate(t *testing.T) {
	t.Run("missing API key", func(t *testing.T) {
		cfg := DefaultConfig()
		assert.Error(t, cfg.Validate())
	})

	t.Run("invalid provider", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.LLM.APIKey = "key"
		cfg.LLM.Provider = "mystery"
		assert.Error(t, cfg.Validate())
	})

	t.Run("valid", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.LLM.APIKey = "key"
		assert.NoError(t, cfg.Validate())
	})
}

func TestSaveRoundTrip(t *testing.T) {
	clearProviderKeys(t)

	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := DefaultConfig()
	cfg.LLM.Provider = "openai"
	cfg.LLM.APIKey = "saved-key"
	cfg.Models.SolutionArchitect = "gpt-4o"

	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "openai", loaded.LLM.Provider)
	assert.Equal(t, "saved-key", loaded.LLM.APIKey)
	assert.Equal(t, "gpt-4o", loaded.Models.SolutionArchitect)
}
