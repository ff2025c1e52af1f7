package core

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config contains the complete configuration for a Hozon client.
//
// It includes settings for:
//   - LLM provider (importance judgment and weekly summarization)
//   - Embedding provider (vector generation)
//   - Vector store (memory persistence)
//   - Memory policy (TTL, capacity, admission, compaction window)
//
// Example:
//
//	config := &core.Config{
//	    LLM: core.LLMConfig{
//	        Provider: "ollama",
//	        Model:    "qwen3:8b",
//	    },
//	    Embedder: core.EmbedderConfig{
//	        Provider: "ollama",
//	        Model:    "nomic-embed-text",
//	    },
//	    VectorStore: core.VectorStoreConfig{
//	        Provider: "sqlite",
//	        Config: map[string]interface{}{
//	            "db_path": "./memories.db",
//	        },
//	    },
//	    Memory: core.DefaultMemoryConfig(),
//	}
type Config struct {
	// LLM contains LLM provider configuration.
	LLM LLMConfig `json:"llm"`

	// Embedder contains embedding provider configuration.
	Embedder EmbedderConfig `json:"embedder"`

	// VectorStore contains vector store configuration.
	VectorStore VectorStoreConfig `json:"vector_store"`

	// Memory contains retention policy configuration.
	Memory MemoryConfig `json:"memory"`
}

// LLMConfig contains configuration for the LLM provider.
//
// Supported providers: ollama, openai
type LLMConfig struct {
	// Provider is the LLM provider name (ollama, openai).
	Provider string `json:"provider"`

	// APIKey is the API key for the LLM provider.
	APIKey string `json:"api_key"`

	// Model is the model name to use (e.g., "qwen3:8b", "gpt-4o-mini").
	Model string `json:"model"`

	// BaseURL is the base URL for the API (optional, uses provider default if empty).
	BaseURL string `json:"base_url,omitempty"`
}

// EmbedderConfig contains configuration for the embedding provider.
//
// Supported providers: ollama, openai, mock
type EmbedderConfig struct {
	// Provider is the embedding provider name (ollama, openai, mock).
	Provider string `json:"provider"`

	// APIKey is the API key for the embedding provider.
	APIKey string `json:"api_key"`

	// Model is the embedding model name (e.g., "nomic-embed-text").
	Model string `json:"model"`

	// BaseURL is the base URL for the API (optional, uses provider default if empty).
	BaseURL string `json:"base_url,omitempty"`

	// Dimensions is the dimension of the embedding vectors (e.g., 768, 1536).
	Dimensions int `json:"dimensions,omitempty"`
}

// VectorStoreConfig contains configuration for the vector store.
//
// Supported providers: sqlite, postgres, mysql
type VectorStoreConfig struct {
	// Provider is the vector store provider name (sqlite, postgres, mysql).
	Provider string `json:"provider"`

	// Config contains provider-specific configuration.
	// For SQLite: db_path
	// For PostgreSQL: host, port, user, password, db_name, ssl_mode, embedding_model_dims
	// For MySQL: host, port, user, password, db_name
	Config map[string]interface{} `json:"config"`
}

// MemoryConfig contains the retention policy.
type MemoryConfig struct {
	// TTLDays is how long entries live before the cleanup pass deletes
	// them. Default 90.
	TTLDays int `json:"ttl_days"`

	// MaxEntries is the per-collection capacity. When exceeded, the
	// cleanup pass evicts lowest-importance entries first. Default 1000.
	MaxEntries int `json:"max_entries"`

	// AdmissionThreshold is the minimum importance for a chat exchange
	// to be persisted. Default 6.0.
	AdmissionThreshold float64 `json:"admission_threshold"`

	// CompactionWindowDays is the lookback window for weekly
	// summarization. Default 7.
	CompactionWindowDays int `json:"compaction_window_days"`
}

// DefaultMemoryConfig returns the default retention policy: 90 day TTL,
// 1000 entry capacity, admission threshold 6.0, 7 day compaction window.
func DefaultMemoryConfig() MemoryConfig {
	return MemoryConfig{
		TTLDays:              90,
		MaxEntries:           1000,
		AdmissionThreshold:   6.0,
		CompactionWindowDays: 7,
	}
}

// LoadConfigFromEnv loads configuration from environment variables.
//
// The function:
//  1. Searches for .env or .env.example files (up to 5 directory levels up)
//  2. Loads environment variables from the found file
//  3. Parses environment variables into a Config struct
//
// Supported environment variables:
//   - DATABASE_PROVIDER (sqlite, postgres, mysql)
//   - SQLITE_PATH
//   - POSTGRES_HOST, POSTGRES_PORT, POSTGRES_USER, POSTGRES_PASSWORD, etc.
//   - MYSQL_HOST, MYSQL_PORT, MYSQL_USER, MYSQL_PASSWORD, MYSQL_DATABASE
//   - LLM_PROVIDER, LLM_API_KEY, LLM_MODEL, LLM_BASE_URL
//   - EMBEDDING_PROVIDER, EMBEDDING_API_KEY, EMBEDDING_MODEL, EMBEDDING_BASE_URL
//   - MEMORY_TTL_DAYS, MEMORY_MAX_ENTRIES, MEMORY_ADMISSION_THRESHOLD,
//     MEMORY_COMPACTION_WINDOW_DAYS
func LoadConfigFromEnv() (*Config, error) {
	envPath, found := FindEnvFile()
	if found {
		_ = godotenv.Load(envPath)
	} else {
		_ = godotenv.Load()
	}

	provider := getEnvOrDefault("DATABASE_PROVIDER", "sqlite")

	vectorStoreConfig := make(map[string]interface{})

	switch provider {
	case "sqlite":
		vectorStoreConfig = map[string]interface{}{
			"db_path": getEnvOrDefault("SQLITE_PATH", "./hozon.db"),
		}
	case "postgres":
		port, _ := strconv.Atoi(getEnvOrDefault("POSTGRES_PORT", "5432"))
		dims, _ := strconv.Atoi(getEnvOrDefault("POSTGRES_EMBEDDING_MODEL_DIMS", "768"))

		vectorStoreConfig = map[string]interface{}{
			"host":                 getEnvOrDefault("POSTGRES_HOST", "localhost"),
			"port":                 port,
			"user":                 getEnvOrDefault("POSTGRES_USER", "postgres"),
			"password":             os.Getenv("POSTGRES_PASSWORD"),
			"db_name":              getEnvOrDefault("POSTGRES_DATABASE", "hozon"),
			"embedding_model_dims": dims,
			"ssl_mode":             getEnvOrDefault("POSTGRES_SSLMODE", "disable"),
		}
	case "mysql":
		port, _ := strconv.Atoi(getEnvOrDefault("MYSQL_PORT", "3306"))

		vectorStoreConfig = map[string]interface{}{
			"host":     getEnvOrDefault("MYSQL_HOST", "127.0.0.1"),
			"port":     port,
			"user":     getEnvOrDefault("MYSQL_USER", "root"),
			"password": os.Getenv("MYSQL_PASSWORD"),
			"db_name":  getEnvOrDefault("MYSQL_DATABASE", "hozon"),
		}
	}

	llmProvider := getEnvOrDefault("LLM_PROVIDER", "ollama")
	var llmBaseURL string
	var defaultModel string

	switch llmProvider {
	case "ollama":
		llmBaseURL = os.Getenv("OLLAMA_LLM_BASE_URL")
		if llmBaseURL == "" {
			llmBaseURL = "http://localhost:11434"
		}
		defaultModel = "qwen3:8b"
	default:
		llmBaseURL = os.Getenv("LLM_BASE_URL")
		defaultModel = "gpt-4o-mini"
	}

	embedderProvider := getEnvOrDefault("EMBEDDING_PROVIDER", "ollama")
	embedderModel := os.Getenv("EMBEDDING_MODEL")
	embedderDims, _ := strconv.Atoi(getEnvOrDefault("EMBEDDING_DIMS", "0"))

	var embedderBaseURL string
	switch embedderProvider {
	case "ollama":
		embedderBaseURL = os.Getenv("OLLAMA_EMBEDDING_BASE_URL")
		if embedderBaseURL == "" {
			embedderBaseURL = "http://localhost:11434"
		}
		if embedderModel == "" {
			embedderModel = "nomic-embed-text"
		}
	case "openai":
		embedderBaseURL = os.Getenv("OPENAI_EMBEDDING_BASE_URL")
		if embedderModel == "" {
			embedderModel = "text-embedding-3-small"
		}
	}

	ttlDays, _ := strconv.Atoi(getEnvOrDefault("MEMORY_TTL_DAYS", "90"))
	maxEntries, _ := strconv.Atoi(getEnvOrDefault("MEMORY_MAX_ENTRIES", "1000"))
	threshold, _ := strconv.ParseFloat(getEnvOrDefault("MEMORY_ADMISSION_THRESHOLD", "6.0"), 64)
	windowDays, _ := strconv.Atoi(getEnvOrDefault("MEMORY_COMPACTION_WINDOW_DAYS", "7"))

	config := &Config{
		LLM: LLMConfig{
			Provider: llmProvider,
			APIKey:   os.Getenv("LLM_API_KEY"),
			Model:    getEnvOrDefault("LLM_MODEL", defaultModel),
			BaseURL:  llmBaseURL,
		},
		Embedder: EmbedderConfig{
			Provider:   embedderProvider,
			APIKey:     os.Getenv("EMBEDDING_API_KEY"),
			Model:      embedderModel,
			BaseURL:    embedderBaseURL,
			Dimensions: embedderDims,
		},
		VectorStore: VectorStoreConfig{
			Provider: provider,
			Config:   vectorStoreConfig,
		},
		Memory: MemoryConfig{
			TTLDays:              ttlDays,
			MaxEntries:           maxEntries,
			AdmissionThreshold:   threshold,
			CompactionWindowDays: windowDays,
		},
	}

	return config, nil
}

// LoadConfigFromEnvFile loads configuration from a specific .env file.
func LoadConfigFromEnvFile(envPath string) (*Config, error) {
	if err := godotenv.Load(envPath); err != nil {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}
	return LoadConfigFromEnv()
}

// LoadConfigFromJSON loads configuration from a JSON file.
func LoadConfigFromJSON(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, NewMemoryError("LoadConfigFromJSON", err)
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, NewMemoryError("LoadConfigFromJSON", err)
	}

	return &config, nil
}

// Validate validates the configuration.
//
// Checks that all required fields are set and the retention policy is
// coherent. Returns an error if validation fails, nil otherwise.
func (c *Config) Validate() error {
	if c.LLM.Provider == "" {
		return NewMemoryError("Validate", fmt.Errorf("%w: llm provider is required", ErrInvalidConfig))
	}
	if c.Embedder.Provider == "" {
		return NewMemoryError("Validate", fmt.Errorf("%w: embedder provider is required", ErrInvalidConfig))
	}
	if c.VectorStore.Provider == "" {
		return NewMemoryError("Validate", fmt.Errorf("%w: vector store provider is required", ErrInvalidConfig))
	}
	if c.Memory.TTLDays <= 0 {
		return NewMemoryError("Validate", fmt.Errorf("%w: ttl_days must be positive", ErrInvalidConfig))
	}
	if c.Memory.MaxEntries <= 0 {
		return NewMemoryError("Validate", fmt.Errorf("%w: max_entries must be positive", ErrInvalidConfig))
	}
	if c.Memory.AdmissionThreshold < 0 || c.Memory.AdmissionThreshold > 10 {
		return NewMemoryError("Validate", fmt.Errorf("%w: admission_threshold must be in [0, 10]", ErrInvalidConfig))
	}
	if c.Memory.CompactionWindowDays <= 0 {
		return NewMemoryError("Validate", fmt.Errorf("%w: compaction_window_days must be positive", ErrInvalidConfig))
	}
	return nil
}

// getEnvOrDefault gets an environment variable or returns the default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// FindEnvFile searches for .env or .env.example files.
//
// The search:
//  1. Checks the current directory
//  2. Searches up to 5 directory levels up
//  3. Returns the first .env or .env.example file found
func FindEnvFile() (string, bool) {
	if _, err := os.Stat(".env"); err == nil {
		return ".env", true
	}
	if _, err := os.Stat(".env.example"); err == nil {
		return ".env.example", true
	}

	dir, _ := os.Getwd()
	for i := 0; i < 5; i++ {
		envPath := filepath.Join(dir, ".env")
		envExamplePath := filepath.Join(dir, ".env.example")

		if _, err := os.Stat(envPath); err == nil {
			return envPath, true
		}
		if _, err := os.Stat(envExamplePath); err == nil {
			return envExamplePath, true
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", false
}
