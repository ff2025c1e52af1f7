package core_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hozonlabs/hozon-go/pkg/core"
	"github.com/hozonlabs/hozon-go/pkg/embedder/mock"
	"github.com/hozonlabs/hozon-go/pkg/storage"
	sqliteStore "github.com/hozonlabs/hozon-go/pkg/storage/sqlite"
)

// fakeJudge returns a fixed score, or an error when err is set.
type fakeJudge struct {
	score float64
	err   error
}

func (f *fakeJudge) JudgeImportance(ctx context.Context, sender, message, response string) (float64, error) {
	if f.err != nil {
		return 0, f.err
	}
	return f.score, nil
}

// fakeSummarizer records the entries it was given and returns a fixed
// summary, or an error when err is set.
type fakeSummarizer struct {
	summary string
	err     error
	entries []string
}

func (f *fakeSummarizer) Summarize(ctx context.Context, entries []string) (string, error) {
	f.entries = entries
	if f.err != nil {
		return "", f.err
	}
	return f.summary, nil
}

// flakyStore wraps a real store and fails selected operations, so tests
// can drive the maintenance error paths.
type flakyStore struct {
	storage.VectorStore
	listAllErr error
	deleteErr  error
}

func (f *flakyStore) ListAll(ctx context.Context, collection string, includeEmbeddings bool) ([]*storage.Document, error) {
	if f.listAllErr != nil {
		return nil, f.listAllErr
	}
	return f.VectorStore.ListAll(ctx, collection, includeEmbeddings)
}

func (f *flakyStore) Delete(ctx context.Context, collection string, ids []int64) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	return f.VectorStore.Delete(ctx, collection, ids)
}

func testConfig() *core.Config {
	return &core.Config{
		LLM:         core.LLMConfig{Provider: "ollama"},
		Embedder:    core.EmbedderConfig{Provider: "mock"},
		VectorStore: core.VectorStoreConfig{Provider: "sqlite"},
		Memory:      core.DefaultMemoryConfig(),
	}
}

// newTestClient builds a client over a throwaway SQLite store, the
// deterministic mock embedder, and the given fakes.
func newTestClient(t *testing.T, judge core.ImportanceJudge, summarizer core.Summarizer) (*core.Client, storage.VectorStore) {
	t.Helper()

	store, err := sqliteStore.NewClient(&sqliteStore.Config{
		DBPath: filepath.Join(t.TempDir(), "hozon_test.db"),
	})
	require.NoError(t, err)

	client, err := core.NewClient(testConfig(),
		core.WithStore(store),
		core.WithEmbedder(mock.New(8)),
		core.WithJudge(judge),
		core.WithSummarizer(summarizer),
	)
	require.NoError(t, err)

	t.Cleanup(func() { _ = client.Close() })
	return client, store
}

// newFlakyTestClient is newTestClient with the store wrapped in a
// flakyStore whose failures the test can toggle.
func newFlakyTestClient(t *testing.T, judge core.ImportanceJudge, summarizer core.Summarizer) (*core.Client, *flakyStore) {
	t.Helper()

	store, err := sqliteStore.NewClient(&sqliteStore.Config{
		DBPath: filepath.Join(t.TempDir(), "hozon_test.db"),
	})
	require.NoError(t, err)

	flaky := &flakyStore{VectorStore: store}

	client, err := core.NewClient(testConfig(),
		core.WithStore(flaky),
		core.WithEmbedder(mock.New(8)),
		core.WithJudge(judge),
		core.WithSummarizer(summarizer),
	)
	require.NoError(t, err)

	t.Cleanup(func() { _ = client.Close() })
	return client, flaky
}

// seedEntry writes a document straight into the store, bypassing the
// client, so tests can craft arbitrary timestamps and metadata.
func seedEntry(t *testing.T, store storage.VectorStore, id int64, kind core.Kind, importance float64, createdAt, expiresAt time.Time, content string) {
	t.Helper()

	doc := &storage.Document{
		ID:        id,
		Content:   content,
		Embedding: []float64{1, 0},
		Metadata: map[string]interface{}{
			core.MetaType:       string(kind),
			core.MetaImportance: importance,
			core.MetaTimestamp:  createdAt.Format(time.RFC3339),
			core.MetaExpiresAt:  expiresAt.Format(time.RFC3339),
			core.MetaTopic:      "seed",
		},
		CreatedAt: createdAt,
	}
	_, err := store.Put(context.Background(), core.CollectionMemory, []*storage.Document{doc})
	require.NoError(t, err)
}
