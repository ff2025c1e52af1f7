package core

import (
	"context"
	"fmt"
	"log"
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/hozonlabs/hozon-go/pkg/redact"
	"github.com/hozonlabs/hozon-go/pkg/storage"
)

// defaultImportance is assigned to chat exchanges when the judge is
// unavailable.
const defaultImportance = 5.0

// AddChat stores a conversation exchange in the agent memory collection.
//
// The exchange is redacted, then scored by the importance judge (unless
// WithImportance supplied a score), then admitted only if the score meets
// the configured threshold. Rejection is not an error: the method returns
// (0, nil) for exchanges below the threshold.
//
// If the judge is unavailable the exchange is scored at 5.0, which falls
// below the default threshold of 6.0.
func (c *Client) AddChat(ctx context.Context, sender, message, response string, opts ...AddOption) (int64, error) {
	if sender == "" || message == "" {
		return 0, NewMemoryError("AddChat", fmt.Errorf("%w: sender and message are required", ErrInvalidInput))
	}

	o := applyAddOptions(opts)

	message = redact.Redact(message)
	response = redact.Redact(response)

	var importance float64
	if o.importance != nil {
		importance = *o.importance
	} else {
		score, err := c.judge.JudgeImportance(ctx, sender, message, response)
		if err != nil {
			log.Printf("hozon: AddChat: importance judge unavailable, using default %.1f: %v", defaultImportance, err)
			score = defaultImportance
		}
		importance = score
	}
	importance = clampImportance(importance)

	if importance < c.config.Memory.AdmissionThreshold {
		return 0, nil
	}

	topic := o.topic
	if topic == "" {
		topic = "chat"
	}

	text := fmt.Sprintf("[chat] %s: %s\n→ %s", sender, message, response)
	id, err := c.persist(ctx, KindChat, text, importance, topic, "")
	if err != nil {
		return 0, NewMemoryError("AddChat", err)
	}

	log.Printf("hozon: chat saved: id=%d importance=%.1f", id, importance)
	return id, nil
}

// AddResearch stores a research finding in the agent memory collection.
//
// The reflect score on a 0-100 scale is converted to importance with
// round(score/10, 1). Research is always admitted; there is no threshold.
// A source URL supplied via WithSourceURL is recorded in metadata only
// when it is not a sensitive source.
func (c *Client) AddResearch(ctx context.Context, date, topic, theme string, score float64, summary string, opts ...AddOption) (int64, error) {
	if theme == "" || summary == "" {
		return 0, NewMemoryError("AddResearch", fmt.Errorf("%w: theme and summary are required", ErrInvalidInput))
	}

	o := applyAddOptions(opts)

	theme = redact.Redact(theme)
	summary = redact.Redact(summary)

	importance := clampImportance(math.Round(score) / 10.0)
	if o.importance != nil {
		importance = clampImportance(*o.importance)
	}

	if o.topic != "" {
		topic = o.topic
	}

	sourceURL := o.sourceURL
	if sourceURL != "" && redact.IsSensitiveSource(sourceURL) {
		log.Printf("hozon: AddResearch: sensitive source url dropped")
		sourceURL = ""
	}

	text := fmt.Sprintf("[research] %s - %s\n%s", date, theme, summary)
	id, err := c.persist(ctx, KindResearch, text, importance, topic, sourceURL)
	if err != nil {
		return 0, NewMemoryError("AddResearch", err)
	}

	log.Printf("hozon: research saved: id=%d importance=%.1f topic=%s", id, importance, topic)
	return id, nil
}

// Cleanup runs one retention pass over the agent memory collection:
// expired entries are deleted first, then lowest-importance entries are
// evicted until the collection is back under the capacity limit.
//
// Both steps always run. Any storage error aborts the pass and is
// returned; partial progress is not rolled back.
func (c *Client) Cleanup(ctx context.Context) (*CleanupStats, error) {
	c.maintenanceMu.Lock()
	defer c.maintenanceMu.Unlock()

	stats := &CleanupStats{}
	now := time.Now()

	docs, err := c.store.ListAll(ctx, CollectionMemory, false)
	if err != nil {
		return nil, NewMemoryError("Cleanup", err)
	}

	var expired []int64
	for _, doc := range docs {
		if isExpired(doc, now) {
			expired = append(expired, doc.ID)
		}
	}
	if len(expired) > 0 {
		if err := c.store.Delete(ctx, CollectionMemory, expired); err != nil {
			return nil, NewMemoryError("Cleanup", err)
		}
		stats.ExpiredDeleted = len(expired)
	}

	count, err := c.store.Count(ctx, CollectionMemory)
	if err != nil {
		return nil, NewMemoryError("Cleanup", err)
	}

	if count > c.config.Memory.MaxEntries {
		overflow := count - c.config.Memory.MaxEntries

		docs, err := c.store.ListAll(ctx, CollectionMemory, false)
		if err != nil {
			return nil, NewMemoryError("Cleanup", err)
		}
		sortForEviction(docs)

		victims := make([]int64, 0, overflow)
		for _, doc := range docs[:overflow] {
			victims = append(victims, doc.ID)
		}
		if err := c.store.Delete(ctx, CollectionMemory, victims); err != nil {
			return nil, NewMemoryError("Cleanup", err)
		}
		stats.OverflowDeleted = len(victims)
	}

	remaining, err := c.store.Count(ctx, CollectionMemory)
	if err != nil {
		return nil, NewMemoryError("Cleanup", err)
	}
	stats.Remaining = remaining

	log.Printf("hozon: cleanup done: expired=%d overflow=%d remaining=%d",
		stats.ExpiredDeleted, stats.OverflowDeleted, stats.Remaining)
	return stats, nil
}

// Stats reports entry counts for the agent memory collection.
func (c *Client) Stats(ctx context.Context) (*Stats, error) {
	docs, err := c.store.ListAll(ctx, CollectionMemory, false)
	if err != nil {
		return nil, NewMemoryError("Stats", err)
	}

	stats := &Stats{
		Total: len(docs),
		ByKind: map[Kind]int{
			KindChat:     0,
			KindResearch: 0,
			KindSummary:  0,
		},
	}
	for _, doc := range docs {
		kind := Kind(metaString(doc, MetaType))
		if _, ok := stats.ByKind[kind]; ok {
			stats.ByKind[kind]++
		}
	}
	return stats, nil
}

// persist embeds the text and writes a single document to the agent
// memory collection with the standard metadata schema.
func (c *Client) persist(ctx context.Context, kind Kind, text string, importance float64, topic, sourceURL string) (int64, error) {
	embedding, err := c.embedder.Embed(ctx, text)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrEmbeddingFailed, err)
	}

	now := time.Now()
	metadata := map[string]interface{}{
		MetaType:       string(kind),
		MetaImportance: importance,
		MetaTimestamp:  now.Format(time.RFC3339),
		MetaExpiresAt:  now.AddDate(0, 0, c.config.Memory.TTLDays).Format(time.RFC3339),
		MetaTopic:      topic,
	}
	if sourceURL != "" {
		metadata[MetaSourceURL] = sourceURL
	}

	doc := &storage.Document{
		ID:        c.node.Generate().Int64(),
		Content:   text,
		Embedding: embedding,
		Metadata:  metadata,
		CreatedAt: now,
	}

	if _, err := c.store.Put(ctx, CollectionMemory, []*storage.Document{doc}); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStorageOperation, err)
	}
	return doc.ID, nil
}

// isExpired reports whether a document's TTL has elapsed. Entries with
// missing or unparsable expires_at metadata count as expired.
func isExpired(doc *storage.Document, now time.Time) bool {
	raw := metaString(doc, MetaExpiresAt)
	if raw == "" {
		return true
	}
	expires, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return true
	}
	return expires.Before(now)
}

// sortForEviction orders documents lowest importance first, with creation
// time then id as tie breaks, so eviction victims are deterministic.
func sortForEviction(docs []*storage.Document) {
	sort.Slice(docs, func(i, j int) bool {
		ii, ji := metaImportance(docs[i]), metaImportance(docs[j])
		if ii != ji {
			return ii < ji
		}
		if !docs[i].CreatedAt.Equal(docs[j].CreatedAt) {
			return docs[i].CreatedAt.Before(docs[j].CreatedAt)
		}
		return docs[i].ID < docs[j].ID
	})
}

// metaImportance reads the importance score from document metadata,
// tolerating both float64 and string encodings. Missing or unparsable
// values score 0 so malformed entries are evicted first.
func metaImportance(doc *storage.Document) float64 {
	switch v := doc.Metadata[MetaImportance].(type) {
	case float64:
		return v
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

func metaString(doc *storage.Document, key string) string {
	if v, ok := doc.Metadata[key].(string); ok {
		return v
	}
	return ""
}

func clampImportance(v float64) float64 {
	return math.Max(0.0, math.Min(10.0, v))
}
