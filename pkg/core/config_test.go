package core_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hozonlabs/hozon-go/pkg/core"
)

func TestLoadConfigFromEnv_Defaults(t *testing.T) {
	for _, key := range []string{
		"DATABASE_PROVIDER", "LLM_PROVIDER", "LLM_MODEL", "EMBEDDING_PROVIDER",
		"MEMORY_TTL_DAYS", "MEMORY_MAX_ENTRIES", "MEMORY_ADMISSION_THRESHOLD",
		"MEMORY_COMPACTION_WINDOW_DAYS",
	} {
		t.Setenv(key, "")
	}

	config, err := core.LoadConfigFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", config.VectorStore.Provider)
	assert.Equal(t, "ollama", config.LLM.Provider)
	assert.Equal(t, "qwen3:8b", config.LLM.Model)
	assert.Equal(t, "ollama", config.Embedder.Provider)

	assert.Equal(t, 90, config.Memory.TTLDays)
	assert.Equal(t, 1000, config.Memory.MaxEntries)
	assert.Equal(t, 6.0, config.Memory.AdmissionThreshold)
	assert.Equal(t, 7, config.Memory.CompactionWindowDays)

	assert.NoError(t, config.Validate())
}

func TestLoadConfigFromEnv_Overrides(t *testing.T) {
	t.Setenv("DATABASE_PROVIDER", "postgres")
	t.Setenv("POSTGRES_HOST", "db.internal")
	t.Setenv("POSTGRES_PORT", "5433")
	t.Setenv("LLM_PROVIDER", "openai")
	t.Setenv("LLM_MODEL", "gpt-4o")
	t.Setenv("MEMORY_TTL_DAYS", "30")
	t.Setenv("MEMORY_MAX_ENTRIES", "200")
	t.Setenv("MEMORY_ADMISSION_THRESHOLD", "7.5")

	config, err := core.LoadConfigFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "postgres", config.VectorStore.Provider)
	assert.Equal(t, "db.internal", config.VectorStore.Config["host"])
	assert.Equal(t, 5433, config.VectorStore.Config["port"])
	assert.Equal(t, "openai", config.LLM.Provider)
	assert.Equal(t, "gpt-4o", config.LLM.Model)
	assert.Equal(t, 30, config.Memory.TTLDays)
	assert.Equal(t, 200, config.Memory.MaxEntries)
	assert.Equal(t, 7.5, config.Memory.AdmissionThreshold)
}

func TestConfigValidate(t *testing.T) {
	valid := func() *core.Config {
		return &core.Config{
			LLM:         core.LLMConfig{Provider: "ollama"},
			Embedder:    core.EmbedderConfig{Provider: "mock"},
			VectorStore: core.VectorStoreConfig{Provider: "sqlite"},
			Memory:      core.DefaultMemoryConfig(),
		}
	}

	assert.NoError(t, valid().Validate())

	c := valid()
	c.LLM.Provider = ""
	assert.ErrorIs(t, c.Validate(), core.ErrInvalidConfig)

	c = valid()
	c.Embedder.Provider = ""
	assert.ErrorIs(t, c.Validate(), core.ErrInvalidConfig)

	c = valid()
	c.VectorStore.Provider = ""
	assert.ErrorIs(t, c.Validate(), core.ErrInvalidConfig)

	c = valid()
	c.Memory.TTLDays = 0
	assert.ErrorIs(t, c.Validate(), core.ErrInvalidConfig)

	c = valid()
	c.Memory.MaxEntries = -1
	assert.ErrorIs(t, c.Validate(), core.ErrInvalidConfig)

	c = valid()
	c.Memory.AdmissionThreshold = 11
	assert.ErrorIs(t, c.Validate(), core.ErrInvalidConfig)

	c = valid()
	c.Memory.CompactionWindowDays = 0
	assert.ErrorIs(t, c.Validate(), core.ErrInvalidConfig)
}

func TestNewMemoryError(t *testing.T) {
	err := core.NewMemoryError("AddChat", core.ErrInvalidInput)
	require.Error(t, err)
	assert.Equal(t, "hozon: AddChat: invalid input", err.Error())
	assert.True(t, errors.Is(err, core.ErrInvalidInput))

	assert.Nil(t, core.NewMemoryError("AddChat", nil))
}
