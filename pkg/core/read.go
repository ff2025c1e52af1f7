package core

import (
	"context"
	"sort"
	"time"

	"github.com/hozonlabs/hozon-go/pkg/storage"
)

// Get returns a single entry from the agent memory collection, or
// ErrNotFound when no entry has the given id.
func (c *Client) Get(ctx context.Context, id int64) (*Entry, error) {
	docs, err := c.store.ListAll(ctx, CollectionMemory, false)
	if err != nil {
		return nil, NewMemoryError("Get", err)
	}
	for _, doc := range docs {
		if doc.ID == id {
			return entryFromDocument(doc), nil
		}
	}
	return nil, NewMemoryError("Get", ErrNotFound)
}

// List returns every entry in the agent memory collection, oldest first.
func (c *Client) List(ctx context.Context) ([]*Entry, error) {
	docs, err := c.store.ListAll(ctx, CollectionMemory, false)
	if err != nil {
		return nil, NewMemoryError("List", err)
	}

	entries := make([]*Entry, 0, len(docs))
	for _, doc := range docs {
		entries = append(entries, entryFromDocument(doc))
	}
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].CreatedAt.Equal(entries[j].CreatedAt) {
			return entries[i].CreatedAt.Before(entries[j].CreatedAt)
		}
		return entries[i].ID < entries[j].ID
	})
	return entries, nil
}

// entryFromDocument maps a stored document onto the client-facing Entry.
func entryFromDocument(doc *storage.Document) *Entry {
	entry := &Entry{
		ID:         doc.ID,
		Kind:       Kind(metaString(doc, MetaType)),
		Content:    doc.Content,
		Importance: metaImportance(doc),
		Topic:      metaString(doc, MetaTopic),
		CreatedAt:  doc.CreatedAt,
	}
	if raw := metaString(doc, MetaExpiresAt); raw != "" {
		if expires, err := time.Parse(time.RFC3339, raw); err == nil {
			entry.ExpiresAt = expires
		}
	}
	return entry
}
