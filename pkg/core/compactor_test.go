package core_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hozonlabs/hozon-go/pkg/core"
)

func TestCompactWindow_SummarizesRecentEntries(t *testing.T) {
	summarizer := &fakeSummarizer{summary: "今週の要約"}
	client, store := newTestClient(t, &fakeJudge{score: 8.0}, summarizer)
	ctx := context.Background()
	now := time.Now()

	seedEntry(t, store, 1, core.KindChat, 6.5, now.AddDate(0, 0, -3), now.AddDate(0, 0, 90), "[chat] a: x\n→ y")
	seedEntry(t, store, 2, core.KindResearch, 8.2, now.AddDate(0, 0, -2), now.AddDate(0, 0, 90), "[research] r1")
	seedEntry(t, store, 3, core.KindChat, 7.0, now.AddDate(0, 0, -1), now.AddDate(0, 0, 90), "[chat] b: p\n→ q")
	seedEntry(t, store, 4, core.KindResearch, 9.9, now.AddDate(0, 0, -10), now.AddDate(0, 0, 90), "[research] old")

	summaryID, err := client.CompactWindow(ctx, 7)
	require.NoError(t, err)
	require.NotZero(t, summaryID)

	// The summarizer saw only the three recent entries, oldest first.
	assert.Equal(t, []string{"[chat] a: x\n→ y", "[research] r1", "[chat] b: p\n→ q"}, summarizer.entries)

	docs, err := store.ListAll(ctx, core.CollectionMemory, false)
	require.NoError(t, err)
	require.Len(t, docs, 2)

	var summaries, old int
	for _, doc := range docs {
		switch doc.ID {
		case summaryID:
			summaries++
			assert.Equal(t, "[summary] 今週の要約", doc.Content)
			assert.Equal(t, "summary", doc.Metadata[core.MetaType])
			assert.Equal(t, "weekly_summary", doc.Metadata[core.MetaTopic])
			// Max importance of the three inputs, not the out-of-window entry.
			assert.Equal(t, 8.2, doc.Metadata[core.MetaImportance])
		case 4:
			old++
		default:
			t.Fatalf("unexpected surviving entry %d", doc.ID)
		}
	}
	assert.Equal(t, 1, summaries)
	assert.Equal(t, 1, old)
}

func TestCompactWindow_EmptyWindow(t *testing.T) {
	summarizer := &fakeSummarizer{summary: "unused"}
	client, store := newTestClient(t, &fakeJudge{score: 8.0}, summarizer)
	ctx := context.Background()
	now := time.Now()

	seedEntry(t, store, 1, core.KindChat, 7.0, now.AddDate(0, 0, -30), now.AddDate(0, 0, 90), "old chat")

	summaryID, err := client.CompactWindow(ctx, 7)
	require.NoError(t, err)
	assert.Zero(t, summaryID)
	assert.Nil(t, summarizer.entries)

	count, err := store.Count(ctx, core.CollectionMemory)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestCompactWindow_SummariesNotRecompacted(t *testing.T) {
	summarizer := &fakeSummarizer{summary: "unused"}
	client, store := newTestClient(t, &fakeJudge{score: 8.0}, summarizer)
	ctx := context.Background()
	now := time.Now()

	seedEntry(t, store, 1, core.KindSummary, 9.0, now.AddDate(0, 0, -1), now.AddDate(0, 0, 90), "[summary] last week")

	summaryID, err := client.CompactWindow(ctx, 7)
	require.NoError(t, err)
	assert.Zero(t, summaryID)
}

func TestCompactWindow_SummarizerFailureLeavesSourcesIntact(t *testing.T) {
	summarizer := &fakeSummarizer{err: errors.New("ollama unreachable")}
	client, store := newTestClient(t, &fakeJudge{score: 8.0}, summarizer)
	ctx := context.Background()
	now := time.Now()

	seedEntry(t, store, 1, core.KindChat, 7.0, now.AddDate(0, 0, -1), now.AddDate(0, 0, 90), "recent chat")

	summaryID, err := client.CompactWindow(ctx, 7)
	require.Error(t, err)
	assert.Zero(t, summaryID)

	docs, err := store.ListAll(ctx, core.CollectionMemory, false)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "recent chat", docs[0].Content)
}

func TestCompactWindow_SourceDeleteFailureKeepsSummary(t *testing.T) {
	summarizer := &fakeSummarizer{summary: "今週の要約"}
	client, flaky := newFlakyTestClient(t, &fakeJudge{score: 8.0}, summarizer)
	ctx := context.Background()
	now := time.Now()

	seedEntry(t, flaky, 1, core.KindChat, 6.5, now.AddDate(0, 0, -2), now.AddDate(0, 0, 90), "[chat] a: x\n→ y")
	seedEntry(t, flaky, 2, core.KindResearch, 8.2, now.AddDate(0, 0, -1), now.AddDate(0, 0, 90), "[research] r1")

	flaky.deleteErr = errors.New("database is locked")

	// The summary is durable before the delete runs, so the id comes
	// back together with the error.
	summaryID, err := client.CompactWindow(ctx, 7)
	require.Error(t, err)
	assert.ErrorContains(t, err, "database is locked")
	require.NotZero(t, summaryID)

	entry, err := client.Get(ctx, summaryID)
	require.NoError(t, err)
	assert.Equal(t, core.KindSummary, entry.Kind)
	assert.Equal(t, "[summary] 今週の要約", entry.Content)
	assert.Equal(t, 8.2, entry.Importance)

	// The undeleted sources survive alongside the summary.
	docs, err := flaky.ListAll(ctx, core.CollectionMemory, false)
	require.NoError(t, err)
	assert.Len(t, docs, 3)
}

func TestCompactWindow_DefaultWindow(t *testing.T) {
	summarizer := &fakeSummarizer{summary: "要約"}
	client, store := newTestClient(t, &fakeJudge{score: 8.0}, summarizer)
	ctx := context.Background()
	now := time.Now()

	seedEntry(t, store, 1, core.KindChat, 7.0, now.AddDate(0, 0, -1), now.AddDate(0, 0, 90), "recent")

	// windowDays <= 0 falls back to the configured 7 day window.
	summaryID, err := client.CompactWindow(ctx, 0)
	require.NoError(t, err)
	assert.NotZero(t, summaryID)
}
