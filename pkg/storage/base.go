// Package storage provides interfaces and types for vector storage backends.
//
// It defines the VectorStore interface that all storage implementations must
// satisfy. The store is partitioned into named collections: every operation
// is scoped to one collection, and collections are fully independent
// namespaces (an id is unique only within its collection).
package storage

import (
	"context"
	"time"
)

// Document is a single stored record inside one collection.
//
// This type is defined in the storage package so backends do not depend on
// the core package. The core package owns the interpretation of Metadata;
// storage treats it as an opaque map and persists it in full.
type Document struct {
	// ID is the unique identifier of the document within its collection.
	ID int64

	// Content is the text body of the document.
	Content string

	// Embedding is the vector embedding used for similarity search.
	// Backends require it on Put; ListAll may omit it unless asked.
	Embedding []float64

	// Metadata contains the full metadata map supplied by the writer.
	Metadata map[string]interface{}

	// CreatedAt is when the document was persisted.
	CreatedAt time.Time

	// Distance is the cosine distance from the query vector, set on
	// Query results only. Lower means more similar.
	Distance float64
}

// VectorStore defines the contract for vector storage backends.
//
// All implementations (SQLite, PostgreSQL, MySQL) must satisfy it.
// Collections are created lazily and idempotently on first use. Every
// operation persists synchronously from the caller's perspective.
type VectorStore interface {
	// Put appends the given documents to the collection. The caller
	// guarantees id uniqueness per collection. Returns the number of
	// documents written.
	Put(ctx context.Context, collection string, docs []*Document) (int, error)

	// Delete removes the documents with the given ids. Deleting an id
	// that does not exist is a no-op, not an error, so ids obtained from
	// an earlier ListAll are always safe to delete.
	Delete(ctx context.Context, collection string, ids []int64) error

	// Query returns up to k documents ranked by ascending cosine
	// distance from the query embedding. An optional filter restricts
	// results to documents whose metadata contains every key/value pair.
	// An empty collection yields an empty slice, never an error, and a
	// collection holding fewer than k documents yields fewer than k.
	Query(ctx context.Context, collection string, embedding []float64, k int, filter map[string]interface{}) ([]*Document, error)

	// Count returns the number of documents in the collection.
	Count(ctx context.Context, collection string) (int, error)

	// ListAll returns a full snapshot of the collection. Embeddings are
	// loaded only when includeEmbeddings is true; metadata is always
	// included.
	ListAll(ctx context.Context, collection string, includeEmbeddings bool) ([]*Document, error)

	// Close closes the store and releases resources.
	Close() error
}
