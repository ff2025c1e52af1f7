package core

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/hozonlabs/hozon-go/pkg/storage"
)

// CompactWindow compresses recent chat and research entries into a single
// summary entry.
//
// Entries of kind chat or research created within the last windowDays are
// collected oldest first and handed to the summarizer. The summary entry
// inherits the maximum importance of its inputs, carries the topic
// "weekly_summary", and gets a fresh TTL. The source entries are deleted
// after the summary is persisted.
//
// A windowDays of 0 or less uses the configured compaction window. When
// no entries fall in the window the method returns (0, nil). If the
// summarizer fails, no entry is written and the sources stay untouched.
// If deleting the sources fails after the summary was stored, the summary
// is kept and the error is returned alongside its id.
func (c *Client) CompactWindow(ctx context.Context, windowDays int) (int64, error) {
	c.maintenanceMu.Lock()
	defer c.maintenanceMu.Unlock()

	if windowDays <= 0 {
		windowDays = c.config.Memory.CompactionWindowDays
	}
	cutoff := time.Now().AddDate(0, 0, -windowDays)

	docs, err := c.store.ListAll(ctx, CollectionMemory, false)
	if err != nil {
		return 0, NewMemoryError("CompactWindow", err)
	}

	var sources []*storage.Document
	for _, doc := range docs {
		kind := Kind(metaString(doc, MetaType))
		if kind != KindChat && kind != KindResearch {
			continue
		}
		if doc.CreatedAt.Before(cutoff) {
			continue
		}
		sources = append(sources, doc)
	}

	if len(sources) == 0 {
		log.Printf("hozon: compaction: no entries in the last %d days", windowDays)
		return 0, nil
	}

	sort.Slice(sources, func(i, j int) bool {
		if !sources[i].CreatedAt.Equal(sources[j].CreatedAt) {
			return sources[i].CreatedAt.Before(sources[j].CreatedAt)
		}
		return sources[i].ID < sources[j].ID
	})

	texts := make([]string, 0, len(sources))
	maxImportance := 0.0
	for _, doc := range sources {
		texts = append(texts, doc.Content)
		if imp := metaImportance(doc); imp > maxImportance {
			maxImportance = imp
		}
	}

	summary, err := c.summarizer.Summarize(ctx, texts)
	if err != nil {
		return 0, NewMemoryError("CompactWindow", err)
	}

	summaryID, err := c.persist(ctx, KindSummary, "[summary] "+summary, maxImportance, "weekly_summary", "")
	if err != nil {
		return 0, NewMemoryError("CompactWindow", err)
	}

	ids := make([]int64, 0, len(sources))
	for _, doc := range sources {
		ids = append(ids, doc.ID)
	}
	if err := c.store.Delete(ctx, CollectionMemory, ids); err != nil {
		// The summary is already durable. Surface the error so the
		// caller knows the sources were not removed.
		return summaryID, NewMemoryError("CompactWindow", fmt.Errorf("summary %d stored but source delete failed: %w", summaryID, err))
	}

	log.Printf("hozon: compaction: %d entries summarized into id=%d importance=%.1f",
		len(sources), summaryID, maxImportance)
	return summaryID, nil
}
