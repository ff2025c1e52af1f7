package core_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hozonlabs/hozon-go/pkg/core"
	"github.com/hozonlabs/hozon-go/pkg/storage"
)

func TestAddChat_AdmittedAtThreshold(t *testing.T) {
	client, store := newTestClient(t, &fakeJudge{score: 6.0}, &fakeSummarizer{})
	ctx := context.Background()

	id, err := client.AddChat(ctx, "alice", "来月京都に引っ越す", "覚えておきます")
	require.NoError(t, err)
	require.NotZero(t, id)

	docs, err := store.ListAll(ctx, core.CollectionMemory, false)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, id, docs[0].ID)
	assert.Equal(t, "chat", docs[0].Metadata[core.MetaType])
	assert.Equal(t, 6.0, docs[0].Metadata[core.MetaImportance])
	assert.Equal(t, "[chat] alice: 来月京都に引っ越す\n→ 覚えておきます", docs[0].Content)
}

func TestAddChat_RejectedBelowThreshold(t *testing.T) {
	client, store := newTestClient(t, &fakeJudge{score: 5.9}, &fakeSummarizer{})
	ctx := context.Background()

	id, err := client.AddChat(ctx, "alice", "今日は晴れ", "そうですね")
	require.NoError(t, err)
	assert.Zero(t, id)

	count, err := store.Count(ctx, core.CollectionMemory)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestAddChat_JudgeUnavailableDefaultsToFive(t *testing.T) {
	client, store := newTestClient(t, &fakeJudge{err: errors.New("llm down")}, &fakeSummarizer{})
	ctx := context.Background()

	// Default 5.0 is below the 6.0 threshold, so the exchange is dropped.
	id, err := client.AddChat(ctx, "alice", "大事な話", "なるほど")
	require.NoError(t, err)
	assert.Zero(t, id)

	count, err := store.Count(ctx, core.CollectionMemory)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestAddChat_ExplicitImportanceBypassesJudge(t *testing.T) {
	client, store := newTestClient(t, &fakeJudge{err: errors.New("llm down")}, &fakeSummarizer{})
	ctx := context.Background()

	id, err := client.AddChat(ctx, "alice", "msg", "resp", core.WithImportance(9.0))
	require.NoError(t, err)
	require.NotZero(t, id)

	docs, err := store.ListAll(ctx, core.CollectionMemory, false)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, 9.0, docs[0].Metadata[core.MetaImportance])
}

func TestAddChat_RedactsPII(t *testing.T) {
	client, store := newTestClient(t, &fakeJudge{score: 8.0}, &fakeSummarizer{})
	ctx := context.Background()

	_, err := client.AddChat(ctx, "alice",
		"連絡先は taro@example.com、電話は090-1234-5678",
		"控えました")
	require.NoError(t, err)

	docs, err := store.ListAll(ctx, core.CollectionMemory, false)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.NotContains(t, docs[0].Content, "taro@example.com")
	assert.NotContains(t, docs[0].Content, "090-1234-5678")
	assert.Contains(t, docs[0].Content, "[EMAIL]")
	assert.Contains(t, docs[0].Content, "[PHONE]")
}

func TestAddChat_InvalidInput(t *testing.T) {
	client, _ := newTestClient(t, &fakeJudge{score: 8.0}, &fakeSummarizer{})

	_, err := client.AddChat(context.Background(), "", "msg", "resp")
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrInvalidInput))
}

func TestAddResearch_ScoreConversion(t *testing.T) {
	client, store := newTestClient(t, &fakeJudge{score: 0}, &fakeSummarizer{})
	ctx := context.Background()

	id, err := client.AddResearch(ctx, "2026-09-01", "rag", "検索手法", 87.0, "ハイブリッド検索が有効だった")
	require.NoError(t, err)
	require.NotZero(t, id)

	docs, err := store.ListAll(ctx, core.CollectionMemory, false)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "research", docs[0].Metadata[core.MetaType])
	assert.Equal(t, 8.7, docs[0].Metadata[core.MetaImportance])
	assert.Equal(t, "rag", docs[0].Metadata[core.MetaTopic])
	assert.Equal(t, "[research] 2026-09-01 - 検索手法\nハイブリッド検索が有効だった", docs[0].Content)
}

func TestAddResearch_AlwaysAdmitted(t *testing.T) {
	client, store := newTestClient(t, &fakeJudge{score: 0}, &fakeSummarizer{})
	ctx := context.Background()

	// Even a zero quality score is persisted.
	id, err := client.AddResearch(ctx, "2026-09-01", "misc", "低評価テーマ", 0.0, "要約")
	require.NoError(t, err)
	require.NotZero(t, id)

	count, err := store.Count(ctx, core.CollectionMemory)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestAddResearch_SourceURLScreening(t *testing.T) {
	client, store := newTestClient(t, &fakeJudge{score: 0}, &fakeSummarizer{})
	ctx := context.Background()

	_, err := client.AddResearch(ctx, "2026-09-01", "sec", "theme a", 50, "summary a",
		core.WithSourceURL("https://bank.example.co.jp/statement"))
	require.NoError(t, err)

	_, err = client.AddResearch(ctx, "2026-09-01", "sec", "theme b", 50, "summary b",
		core.WithSourceURL("https://arxiv.org/abs/2301.00001"))
	require.NoError(t, err)

	docs, err := store.ListAll(ctx, core.CollectionMemory, false)
	require.NoError(t, err)
	require.Len(t, docs, 2)

	for _, doc := range docs {
		switch {
		case doc.Content == "[research] 2026-09-01 - theme a\nsummary a":
			assert.NotContains(t, doc.Metadata, core.MetaSourceURL)
		default:
			assert.Equal(t, "https://arxiv.org/abs/2301.00001", doc.Metadata[core.MetaSourceURL])
		}
	}
}

func TestCleanup_ExpiredEntries(t *testing.T) {
	client, store := newTestClient(t, &fakeJudge{score: 8.0}, &fakeSummarizer{})
	ctx := context.Background()
	now := time.Now()

	seedEntry(t, store, 1, core.KindChat, 7.0, now.AddDate(0, 0, -100), now.AddDate(0, 0, -10), "expired")
	seedEntry(t, store, 2, core.KindChat, 7.0, now, now.AddDate(0, 0, 90), "live")

	stats, err := client.Cleanup(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.ExpiredDeleted)
	assert.Equal(t, 0, stats.OverflowDeleted)
	assert.Equal(t, 1, stats.Remaining)

	docs, err := store.ListAll(ctx, core.CollectionMemory, false)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "live", docs[0].Content)
}

func TestCleanup_MissingExpiryCountsAsExpired(t *testing.T) {
	client, store := newTestClient(t, &fakeJudge{score: 8.0}, &fakeSummarizer{})
	ctx := context.Background()

	doc := &storage.Document{
		ID:        1,
		Content:   "no expiry metadata",
		Embedding: []float64{1, 0},
		Metadata:  map[string]interface{}{core.MetaType: "chat"},
	}
	_, err := store.Put(ctx, core.CollectionMemory, []*storage.Document{doc})
	require.NoError(t, err)

	stats, err := client.Cleanup(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.ExpiredDeleted)
	assert.Equal(t, 0, stats.Remaining)
}

func TestCleanup_CapacityEviction(t *testing.T) {
	client, store := newTestClient(t, &fakeJudge{score: 8.0}, &fakeSummarizer{})
	ctx := context.Background()
	now := time.Now()

	// 1005 live entries with strictly increasing importance. The five
	// lowest-importance entries (ids 1-5) must be evicted.
	docs := make([]*storage.Document, 0, 1005)
	for i := 1; i <= 1005; i++ {
		docs = append(docs, &storage.Document{
			ID:        int64(i),
			Content:   fmt.Sprintf("entry %d", i),
			Embedding: []float64{1, 0},
			Metadata: map[string]interface{}{
				core.MetaType:       "research",
				core.MetaImportance: float64(i) / 1000.0,
				core.MetaTimestamp:  now.Format(time.RFC3339),
				core.MetaExpiresAt:  now.AddDate(0, 0, 90).Format(time.RFC3339),
				core.MetaTopic:      "seed",
			},
			CreatedAt: now,
		})
	}
	_, err := store.Put(ctx, core.CollectionMemory, docs)
	require.NoError(t, err)

	stats, err := client.Cleanup(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.ExpiredDeleted)
	assert.Equal(t, 5, stats.OverflowDeleted)
	assert.Equal(t, 1000, stats.Remaining)

	remaining, err := store.ListAll(ctx, core.CollectionMemory, false)
	require.NoError(t, err)
	for _, doc := range remaining {
		assert.Greater(t, doc.ID, int64(5))
	}
}

func TestCleanup_ScanFailureAborts(t *testing.T) {
	client, flaky := newFlakyTestClient(t, &fakeJudge{score: 8.0}, &fakeSummarizer{})

	flaky.listAllErr = errors.New("database is locked")

	stats, err := client.Cleanup(context.Background())
	require.Error(t, err)
	assert.ErrorContains(t, err, "database is locked")
	assert.Nil(t, stats)
}

func TestCleanup_DeleteFailureAborts(t *testing.T) {
	client, flaky := newFlakyTestClient(t, &fakeJudge{score: 8.0}, &fakeSummarizer{})
	ctx := context.Background()
	now := time.Now()

	seedEntry(t, flaky, 1, core.KindChat, 7.0, now.AddDate(0, 0, -100), now.AddDate(0, 0, -10), "expired")

	flaky.deleteErr = errors.New("disk I/O error")

	// The pass aborts without counters, and the expired entry survives
	// for the next scheduled run.
	stats, err := client.Cleanup(ctx)
	require.Error(t, err)
	assert.ErrorContains(t, err, "disk I/O error")
	assert.Nil(t, stats)

	docs, err := flaky.ListAll(ctx, core.CollectionMemory, false)
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}

func TestStats(t *testing.T) {
	client, store := newTestClient(t, &fakeJudge{score: 8.0}, &fakeSummarizer{})
	ctx := context.Background()
	now := time.Now()

	seedEntry(t, store, 1, core.KindChat, 7.0, now, now.AddDate(0, 0, 90), "a")
	seedEntry(t, store, 2, core.KindChat, 7.0, now, now.AddDate(0, 0, 90), "b")
	seedEntry(t, store, 3, core.KindResearch, 5.0, now, now.AddDate(0, 0, 90), "c")
	seedEntry(t, store, 4, core.KindSummary, 9.0, now, now.AddDate(0, 0, 90), "d")

	stats, err := client.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.Total)
	assert.Equal(t, 2, stats.ByKind[core.KindChat])
	assert.Equal(t, 1, stats.ByKind[core.KindResearch])
	assert.Equal(t, 1, stats.ByKind[core.KindSummary])
}
