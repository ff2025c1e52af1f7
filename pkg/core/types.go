package core

import "time"

// Kind classifies a memory entry.
type Kind string

const (
	// KindChat is a saved conversation exchange.
	KindChat Kind = "chat"

	// KindResearch is a saved research finding.
	KindResearch Kind = "research"

	// KindSummary is a weekly compaction of chat and research entries.
	KindSummary Kind = "summary"
)

// Collection names. Retention and compaction operate on CollectionMemory;
// search additionally reads the personal collections.
const (
	// CollectionPrivate holds personal private documents.
	CollectionPrivate = "personal_private"

	// CollectionPublic holds public knowledge documents.
	CollectionPublic = "personal_public"

	// CollectionMemory holds the agent's own chat, research and summary
	// entries.
	CollectionMemory = "agent_memory"
)

// Metadata keys used on stored documents.
const (
	// MetaType is the entry kind (chat, research, summary).
	MetaType = "type"

	// MetaImportance is the importance score, stored as a float.
	MetaImportance = "importance"

	// MetaTimestamp is the RFC 3339 creation time.
	MetaTimestamp = "timestamp"

	// MetaExpiresAt is the RFC 3339 expiry time.
	MetaExpiresAt = "expires_at"

	// MetaTopic is the free-form topic label.
	MetaTopic = "topic"

	// MetaSourceURL is where research content came from. Only recorded
	// for non-sensitive sources.
	MetaSourceURL = "source_url"
)

// Entry is a memory entry as seen through the client API.
type Entry struct {
	// ID is the unique identifier of the entry.
	ID int64 `json:"id"`

	// Kind classifies the entry (chat, research, summary).
	Kind Kind `json:"kind"`

	// Content is the formatted text of the entry.
	Content string `json:"content"`

	// Importance is the entry's importance score on a 0-10 scale.
	Importance float64 `json:"importance"`

	// Topic is the free-form topic label.
	Topic string `json:"topic,omitempty"`

	// CreatedAt is when the entry was stored.
	CreatedAt time.Time `json:"created_at"`

	// ExpiresAt is when the entry becomes eligible for cleanup.
	ExpiresAt time.Time `json:"expires_at"`
}

// SearchResult is one routed search hit.
type SearchResult struct {
	// Content is the matched document text.
	Content string `json:"content"`

	// Metadata is the stored document metadata.
	Metadata map[string]interface{} `json:"metadata,omitempty"`

	// Source is the collection the hit came from.
	Source string `json:"source"`

	// Distance is the cosine distance to the query. Lower is closer.
	Distance float64 `json:"distance"`
}

// CleanupStats reports the outcome of a cleanup pass.
type CleanupStats struct {
	// ExpiredDeleted is the number of entries removed because their TTL
	// had elapsed.
	ExpiredDeleted int `json:"expired_deleted"`

	// OverflowDeleted is the number of entries evicted to enforce the
	// capacity limit.
	OverflowDeleted int `json:"overflow_deleted"`

	// Remaining is the number of entries left after the pass.
	Remaining int `json:"remaining"`
}

// Stats reports collection statistics.
type Stats struct {
	// Total is the number of entries in the agent memory collection.
	Total int `json:"total"`

	// ByKind counts entries per kind.
	ByKind map[Kind]int `json:"by_kind"`
}
