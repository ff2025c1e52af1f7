// Package sqlite provides the SQLite implementation of the vector store.
//
// SQLite is the default local backend. Vectors are stored as JSON strings in
// TEXT columns and similarity is computed in memory over a full scan, which
// is adequate for the bounded collection sizes this store is designed for.
// Each collection maps to its own table, created lazily on first use.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hozonlabs/hozon-go/pkg/storage"
)

// Client implements storage.VectorStore using SQLite as the backend.
type Client struct {
	db *sql.DB

	// mu guards the lazily-created collection set.
	mu     sync.Mutex
	tables map[string]bool
}

// Config contains configuration for creating a SQLite vector store.
type Config struct {
	// DBPath is the path to the SQLite database file.
	DBPath string
}

// NewClient opens (or creates) the database file and returns a client.
func NewClient(cfg *Config) (*Client, error) {
	dbDir := filepath.Dir(cfg.DBPath)
	if dbDir != "" && dbDir != "." {
		if err := os.MkdirAll(dbDir, 0755); err != nil {
			return nil, fmt.Errorf("NewSQLiteClient: create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", cfg.DBPath+"?_foreign_keys=1&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("NewSQLiteClient: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("NewSQLiteClient: %w", err)
	}

	return &Client{
		db:     db,
		tables: make(map[string]bool),
	}, nil
}

// ensureCollection creates the table backing a collection if needed.
// Creation is idempotent, so racing callers are harmless.
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
			id INTEGER PRIMARY KEY,
			content TEXT NOT NULL,
			embedding TEXT NOT NULL,
			metadata TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`, collection)

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
		VALUES (?, ?, ?, ?, ?)
	`, collection)

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("Put: %w", err)
	}

	for _, doc := range docs {
		embeddingJSON, err := json.Marshal(doc.Embedding)
		if err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("Put: %w", err)
		}
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
			string(embeddingJSON),
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

	placeholders := make([]string, len(ids))
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}

	query := fmt.Sprintf("DELETE FROM %s WHERE id IN (%s)",
		collection, strings.Join(placeholders, ", "))

	if _, err := c.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("Delete: %w", err)
	}

	return nil
}

// Query ranks the collection by ascending cosine distance from the query
// embedding. SQLite has no native vector operations, so distance is
// computed in memory after a full scan.
func (c *Client) Query(ctx context.Context, collection string, embedding []float64, k int, filter map[string]interface{}) ([]*storage.Document, error) {
	if err := c.ensureCollection(ctx, collection); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		SELECT id, content, embedding, metadata, created_at
		FROM %s
		ORDER BY id
	`, collection)

	rows, err := c.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("Query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	docs := []*storage.Document{}
	for rows.Next() {
		doc, err := scanDocument(rows, true)
		if err != nil {
			return nil, fmt.Errorf("Query: %w", err)
		}
		if !matchesFilter(doc.Metadata, filter) {
			continue
		}
		doc.Distance = 1 - cosineSimilarity(embedding, doc.Embedding)
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("Query: %w", err)
	}

	return rankByDistance(docs, k), nil
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
		columns = "id, content, embedding, metadata, created_at"
	}

	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY id", columns, collection)

	rows, err := c.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ListAll: %w", err)
	}
	defer func() { _ = rows.Close() }()

	docs := []*storage.Document{}
	for rows.Next() {
		doc, err := scanDocument(rows, includeEmbeddings)
		if err != nil {
			return nil, fmt.Errorf("ListAll: %w", err)
		}
		docs = append(docs, doc)
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

// scanDocument scans one row into a Document. The column order must match
// the SELECT lists above.
func scanDocument(rows *sql.Rows, withEmbedding bool) (*storage.Document, error) {
	var doc storage.Document
	var embeddingStr string
	var metadataStr sql.NullString

	var err error
	if withEmbedding {
		err = rows.Scan(&doc.ID, &doc.Content, &embeddingStr, &metadataStr, &doc.CreatedAt)
	} else {
		err = rows.Scan(&doc.ID, &doc.Content, &metadataStr, &doc.CreatedAt)
	}
	if err != nil {
		return nil, err
	}

	if withEmbedding {
		if err := json.Unmarshal([]byte(embeddingStr), &doc.Embedding); err != nil {
			return nil, fmt.Errorf("parse embedding: %w", err)
		}
	}

	if metadataStr.Valid && metadataStr.String != "" {
		if err := json.Unmarshal([]byte(metadataStr.String), &doc.Metadata); err != nil {
			return nil, fmt.Errorf("parse metadata: %w", err)
		}
	}

	return &doc, nil
}
