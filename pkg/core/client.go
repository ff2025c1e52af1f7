package core

import (
	"context"
	"sync"

	"github.com/bwmarrin/snowflake"

	"github.com/hozonlabs/hozon-go/pkg/embedder"
	mockEmbedder "github.com/hozonlabs/hozon-go/pkg/embedder/mock"
	ollamaEmbedder "github.com/hozonlabs/hozon-go/pkg/embedder/ollama"
	openaiEmbedder "github.com/hozonlabs/hozon-go/pkg/embedder/openai"
	"github.com/hozonlabs/hozon-go/pkg/intelligence"
	"github.com/hozonlabs/hozon-go/pkg/llm"
	ollamaLLM "github.com/hozonlabs/hozon-go/pkg/llm/ollama"
	openaiLLM "github.com/hozonlabs/hozon-go/pkg/llm/openai"
	"github.com/hozonlabs/hozon-go/pkg/storage"
	mysqlStore "github.com/hozonlabs/hozon-go/pkg/storage/mysql"
	postgresStore "github.com/hozonlabs/hozon-go/pkg/storage/postgres"
	sqliteStore "github.com/hozonlabs/hozon-go/pkg/storage/sqlite"
)

// Summarizer compresses a batch of entry texts into a single summary.
type Summarizer interface {
	Summarize(ctx context.Context, entries []string) (string, error)
}

// ImportanceJudge scores a conversation exchange on a 0-10 scale.
type ImportanceJudge interface {
	JudgeImportance(ctx context.Context, sender, message, response string) (float64, error)
}

// Client is the main Hozon client for agent memory management.
//
// It provides:
//   - Redacted, importance-gated retention of chat and research entries
//   - TTL and capacity cleanup
//   - Weekly compaction of recent entries into summaries
//   - Routed semantic search across private, public and agent collections
//
// The client is safe for concurrent use. Cleanup and CompactWindow are
// serialized against each other so the two maintenance passes never
// interleave.
//
// Example usage:
//
//	config, _ := core.LoadConfigFromEnv()
//	client, _ := core.NewClient(config)
//	defer client.Close()
//
//	id, _ := client.AddChat(ctx, "alice", "I moved to Kyoto", "Noted!")
type Client struct {
	// config contains the client configuration.
	config *Config

	// store is the vector store for memory persistence.
	store storage.VectorStore

	// llm is the LLM provider backing the default judge and summarizer.
	llm llm.Provider

	// embedder is the embedding provider for vector generation.
	embedder embedder.Provider

	// summarizer compresses weekly entries.
	summarizer Summarizer

	// judge scores chat exchanges for admission.
	judge ImportanceJudge

	// node generates unique IDs for entries.
	node *snowflake.Node

	// maintenanceMu serializes Cleanup and CompactWindow.
	maintenanceMu sync.Mutex
}

// NewClient creates a new Hozon client.
//
// Components not supplied via options are built from the configuration:
//   - Vector store (SQLite, PostgreSQL, or MySQL)
//   - Embedding provider (Ollama, OpenAI, or mock)
//   - LLM provider (Ollama or OpenAI), backing the default importance
//     judge and weekly summarizer
//
// Returns a new Client instance, or an error if initialization fails.
func NewClient(cfg *Config, opts ...ClientOption) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return nil, NewMemoryError("NewClient", err)
	}

	client := &Client{
		config: cfg,
		node:   node,
	}

	for _, opt := range opts {
		opt(client)
	}

	if client.store == nil {
		store, err := initStorage(cfg.VectorStore)
		if err != nil {
			return nil, err
		}
		client.store = store
	}

	if client.embedder == nil {
		provider, err := initEmbedder(cfg.Embedder)
		if err != nil {
			return nil, err
		}
		client.embedder = provider
	}

	// The LLM is only needed when the default judge or summarizer is in
	// play.
	if client.summarizer == nil || client.judge == nil {
		provider, err := initLLM(cfg.LLM)
		if err != nil {
			return nil, err
		}
		client.llm = provider

		if client.summarizer == nil {
			client.summarizer = intelligence.NewWeeklySummarizer(provider)
		}
		if client.judge == nil {
			client.judge = intelligence.NewChatJudge(provider)
		}
	}

	return client, nil
}

// Close closes the client and all providers it owns.
//
// Returns the first error encountered, but attempts to close every
// component regardless.
func (c *Client) Close() error {
	var errs []error

	if c.store != nil {
		if err := c.store.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if c.llm != nil {
		if err := c.llm.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if c.embedder != nil {
		if err := c.embedder.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return errs[0]
	}

	return nil
}

// initStorage initializes the storage backend.
func initStorage(cfg VectorStoreConfig) (storage.VectorStore, error) {
	switch cfg.Provider {
	case "sqlite":
		return sqliteStore.NewClient(&sqliteStore.Config{
			DBPath: stringValue(cfg.Config, "db_path", "./hozon.db"),
		})
	case "postgres":
		return postgresStore.NewClient(&postgresStore.Config{
			Host:               stringValue(cfg.Config, "host", "localhost"),
			Port:               intValue(cfg.Config, "port", 5432),
			User:               stringValue(cfg.Config, "user", "postgres"),
			Password:           stringValue(cfg.Config, "password", ""),
			DBName:             stringValue(cfg.Config, "db_name", "hozon"),
			EmbeddingModelDims: intValue(cfg.Config, "embedding_model_dims", 768),
			SSLMode:            stringValue(cfg.Config, "ssl_mode", "disable"),
		})
	case "mysql":
		return mysqlStore.NewClient(&mysqlStore.Config{
			Host:     stringValue(cfg.Config, "host", "127.0.0.1"),
			Port:     intValue(cfg.Config, "port", 3306),
			User:     stringValue(cfg.Config, "user", "root"),
			Password: stringValue(cfg.Config, "password", ""),
			DBName:   stringValue(cfg.Config, "db_name", "hozon"),
		})
	default:
		return nil, NewMemoryError("initStorage", ErrInvalidConfig)
	}
}

// initLLM initializes the LLM provider.
func initLLM(cfg LLMConfig) (llm.Provider, error) {
	switch cfg.Provider {
	case "ollama":
		return ollamaLLM.NewClient(&ollamaLLM.Config{
			APIKey:  cfg.APIKey,
			Model:   cfg.Model,
			BaseURL: cfg.BaseURL,
		})
	case "openai":
		return openaiLLM.NewClient(&openaiLLM.Config{
			APIKey:  cfg.APIKey,
			Model:   cfg.Model,
			BaseURL: cfg.BaseURL,
		})
	default:
		return nil, NewMemoryError("initLLM", ErrInvalidConfig)
	}
}

// initEmbedder initializes the embedder provider.
func initEmbedder(cfg EmbedderConfig) (embedder.Provider, error) {
	switch cfg.Provider {
	case "ollama":
		return ollamaEmbedder.NewClient(&ollamaEmbedder.Config{
			Model:      cfg.Model,
			BaseURL:    cfg.BaseURL,
			Dimensions: cfg.Dimensions,
		})
	case "openai":
		return openaiEmbedder.NewClient(&openaiEmbedder.Config{
			APIKey:     cfg.APIKey,
			Model:      cfg.Model,
			BaseURL:    cfg.BaseURL,
			Dimensions: cfg.Dimensions,
		})
	case "mock":
		return mockEmbedder.New(cfg.Dimensions), nil
	default:
		return nil, NewMemoryError("initEmbedder", ErrInvalidConfig)
	}
}

func stringValue(m map[string]interface{}, key, fallback string) string {
	if v, ok := m[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

func intValue(m map[string]interface{}, key string, fallback int) int {
	switch v := m[key].(type) {
	case int:
		if v != 0 {
			return v
		}
	case float64:
		if v != 0 {
			return int(v)
		}
	}
	return fallback
}
