// Package postgres provides the PostgreSQL + pgvector vector store backend.
//
// Unlike the SQLite backend, distance ranking is pushed into SQL using
// pgvector's <=> cosine-distance operator. Each collection maps to its own
// table, created lazily on first use.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/lib/pq"

	"github.com/hozonlabs/hozon-go/pkg/storage"
)

// Client is a PostgreSQL + pgvector client.
type Client struct {
	db         *sql.DB
	dimensions int

	mu     sync.Mutex
	tables map[string]bool
}

// Config contains PostgreSQL configuration.
type Config struct {
	Host               string
	Port               int
	User               string
	Password           string
	DBName             string
	EmbeddingModelDims int
	SSLMode            string
}

// NewClient connects to PostgreSQL and enables the pgvector extension.
func NewClient(cfg *Config) (*Client, error) {
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, sslMode)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("NewPostgresClient: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("NewPostgresClient: %w", err)
	}

	if _, err := db.ExecContext(context.Background(), "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return nil, fmt.Errorf("NewPostgresClient: create extension: %w", err)
	}

	return &Client{
		db:         db,
		dimensions: cfg.EmbeddingModelDims,
		tables:     make(map[string]bool),
	}, nil
}

// ensureCollection creates the table backing a collection if needed.
func (c *Client) ensureCollection(ctx context.Context, collection string) error {
	if err := validateCollectionName(collection); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.tables[collection] {
		return nil
	}

	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id BIGINT PRIMARY KEY,
			content TEXT NOT NULL,
			embedding vector(%d) NOT NULL,
			metadata JSONB,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`, collection, c.dimensions)

	if _, err := c.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("ensureCollection: %w", err)
	}

	c.tables[collection] = true
	return nil
}

// Put appends documents to the collection.
func (c *Client) Put(ctx context.Context, collection string, docs []*storage.Document) (int, error) {
	if len(docs) == 0 {
		return 0, nil
	}
	if err := c.ensureCollection(ctx, collection); err != nil {
		return 0, err
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, content, embedding, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, collection)

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("Put: %w", err)
	}

	for _, doc := range docs {
		metadataJSON, err := json.Marshal(doc.Metadata)
		if err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("Put: %w", err)
		}

		createdAt := doc.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now()
		}

		if _, err := tx.ExecContext(ctx, query,
			doc.ID,
			doc.Content,
			vectorToString(doc.Embedding),
			string(metadataJSON),
			createdAt,
		); err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("Put: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("Put: %w", err)
	}

	return len(docs), nil
}

// Delete removes the documents with the given ids. Missing ids are a no-op.
func (c *Client) Delete(ctx context.Context, collection string, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	if err := c.ensureCollection(ctx, collection); err != nil {
		return err
	}

	query := fmt.Sprintf("DELETE FROM %s WHERE id = ANY($1)", collection)

	if _, err := c.db.ExecContext(ctx, query, pq.Array(ids)); err != nil {
		return fmt.Errorf("Delete: %w", err)
	}

	return nil
}

// Query ranks the collection by ascending cosine distance using pgvector's
// <=> operator. The optional metadata filter uses JSONB containment.
func (c *Client) Query(ctx context.Context, collection string, embedding []float64, k int, filter map[string]interface{}) ([]*storage.Document, error) {
	if err := c.ensureCollection(ctx, collection); err != nil {
		return nil, err
	}

	args := []interface{}{vectorToString(embedding)}
	whereClause := ""
	if len(filter) > 0 {
		filterJSON, err := json.Marshal(filter)
		if err != nil {
			return nil, fmt.Errorf("Query: %w", err)
		}
		whereClause = "WHERE metadata @> $2"
		args = append(args, string(filterJSON))
	}

	limitClause := ""
	if k > 0 {
		limitClause = fmt.Sprintf("LIMIT $%d", len(args)+1)
		args = append(args, k)
	}

	query := fmt.Sprintf(`
		SELECT id, content, metadata, created_at, embedding <=> $1 AS distance
		FROM %s
		%s
		ORDER BY embedding <=> $1
		%s
	`, collection, whereClause, limitClause)

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("Query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	docs := []*storage.Document{}
	for rows.Next() {
		var doc storage.Document
		var metadataStr sql.NullString
		if err := rows.Scan(&doc.ID, &doc.Content, &metadataStr, &doc.CreatedAt, &doc.Distance); err != nil {
			return nil, fmt.Errorf("Query: %w", err)
		}
		if metadataStr.Valid && metadataStr.String != "" {
			if err := json.Unmarshal([]byte(metadataStr.String), &doc.Metadata); err != nil {
				return nil, fmt.Errorf("Query: parse metadata: %w", err)
			}
		}
		docs = append(docs, &doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("Query: %w", err)
	}

	return docs, nil
}

// Count returns the number of documents in the collection.
func (c *Client) Count(ctx context.Context, collection string) (int, error) {
	if err := c.ensureCollection(ctx, collection); err != nil {
		return 0, err
	}

	var count int
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", collection)
	if err := c.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("Count: %w", err)
	}

	return count, nil
}

// ListAll returns a full snapshot of the collection.
func (c *Client) ListAll(ctx context.Context, collection string, includeEmbeddings bool) ([]*storage.Document, error) {
	if err := c.ensureCollection(ctx, collection); err != nil {
		return nil, err
	}

	columns := "id, content, metadata, created_at"
	if includeEmbeddings {
		columns = "id, content, metadata, created_at, embedding::text"
	}

	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY id", columns, collection)

	rows, err := c.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ListAll: %w", err)
	}
	defer func() { _ = rows.Close() }()

	docs := []*storage.Document{}
	for rows.Next() {
		var doc storage.Document
		var metadataStr sql.NullString
		var embeddingStr string

		var err error
		if includeEmbeddings {
			err = rows.Scan(&doc.ID, &doc.Content, &metadataStr, &doc.CreatedAt, &embeddingStr)
		} else {
			err = rows.Scan(&doc.ID, &doc.Content, &metadataStr, &doc.CreatedAt)
		}
		if err != nil {
			return nil, fmt.Errorf("ListAll: %w", err)
		}

		if metadataStr.Valid && metadataStr.String != "" {
			if err := json.Unmarshal([]byte(metadataStr.String), &doc.Metadata); err != nil {
				return nil, fmt.Errorf("ListAll: parse metadata: %w", err)
			}
		}
		if includeEmbeddings {
			embedding, err := stringToVector(embeddingStr)
			if err != nil {
				return nil, fmt.Errorf("ListAll: %w", err)
			}
			doc.Embedding = embedding
		}

		docs = append(docs, &doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListAll: %w", err)
	}

	return docs, nil
}

// Close closes the database connection.
func (c *Client) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}
