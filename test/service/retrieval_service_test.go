package service_test

import (
	"context"
	"crypto/sha256"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/cindyai/internal/ai"
	"github.com/xxxsen/cindyai/internal/model"
	"github.com/xxxsen/cindyai/internal/pkg/timeutil"
	"github.com/xxxsen/cindyai/internal/repo"
	"github.com/xxxsen/cindyai/internal/service"
	"github.com/xxxsen/cindyai/test/testutil"
)

type countingProvider struct {
	embedCalls atomic.Int64
}

func (p *countingProvider) Name() string {
	return "counting"
}

func (p *countingProvider) Generate(ctx context.Context, model string, system string, prompt string) (string, error) {
	return "ok", nil
}

func (p *countingProvider) Embed(ctx context.Context, model string, text string, taskType string) ([]float32, error) {
	p.embedCalls.Add(1)
	sum := sha256.Sum256([]byte(text))
	out := make([]float32, 8)
	for i := range out {
		out[i] = float32(sum[i]) + 1
	}
	return out, nil
}

func setupRetrieval(t *testing.T) (*service.RetrievalService, *repo.ContentRepo, *repo.ChunkRepo, *countingProvider, func()) {
	t.Helper()
	db, cleanup := testutil.OpenTestDB(t)
	for _, table := range []string{"content_chunks", "contents"} {
		_, err := db.Exec("DELETE FROM " + table)
		require.NoError(t, err)
	}
	contents := repo.NewContentRepo(db)
	chunks := repo.NewChunkRepo(db)
	provider := &countingProvider{}
	manager := ai.NewManager(provider, ai.ManagerConfig{
		Model:      "m",
		EmbedModel: "e",
		Timeout:    5,
	})
	retrieval := service.NewRetrievalService(chunks, contents, manager, ai.NewSplitter(20, 5), 3)
	return retrieval, contents, chunks, provider, cleanup
}

func seedContent(t *testing.T, contents *repo.ContentRepo, id, text string) *model.Content {
	t.Helper()
	now := timeutil.NowUnix()
	content := &model.Content{
		ID:          id,
		Title:       "t",
		ContentType: model.ContentTypeVideo,
		ContentText: text,
		Ctime:       now,
		Mtime:       now,
	}
	require.NoError(t, contents.Create(context.Background(), content))
	return content
}

func TestEnsureIndexBuildsOnceUntilTextChanges(t *testing.T) {
	retrieval, contents, chunks, provider, cleanup := setupRetrieval(t)
	defer cleanup()
	ctx := context.Background()

	content := seedContent(t, contents, "c1", "one two three four five six seven eight nine ten")
	require.NoError(t, retrieval.EnsureIndex(ctx, content))
	built := provider.embedCalls.Load()
	require.Greater(t, built, int64(0))

	// unchanged text reuses the stored index
	require.NoError(t, retrieval.EnsureIndex(ctx, content))
	require.Equal(t, built, provider.embedCalls.Load())

	hash1, err := chunks.IndexHash(ctx, "c1")
	require.NoError(t, err)

	// edited text invalidates the index
	content.ContentText = "completely different transcript body"
	content.Mtime = timeutil.NowUnix() + 1
	require.NoError(t, contents.Update(ctx, content))
	require.NoError(t, retrieval.EnsureIndex(ctx, content))
	require.Greater(t, provider.embedCalls.Load(), built)

	hash2, err := chunks.IndexHash(ctx, "c1")
	require.NoError(t, err)
	require.NotEqual(t, hash1, hash2)
}

func TestSearchReturnsRankedChunksAndCachesQueries(t *testing.T) {
	retrieval, contents, _, provider, cleanup := setupRetrieval(t)
	defer cleanup()
	ctx := context.Background()

	// the seeded text splits into 4 chunks at size 20 / overlap 5, so a
	// k-sized request must come back exactly k long
	content := seedContent(t, contents, "c1", "alpha beta gamma delta epsilon zeta eta theta iota kappa")
	found, err := retrieval.Search(ctx, content, "alpha", 3)
	require.NoError(t, err)
	require.Len(t, found, 3)
	for i := 1; i < len(found); i++ {
		require.LessOrEqual(t, found[i-1].Distance, found[i].Distance)
	}

	found, err = retrieval.Search(ctx, content, "alpha", 2)
	require.NoError(t, err)
	require.Len(t, found, 2)

	// a repeated query must not embed again
	calls := provider.embedCalls.Load()
	_, err = retrieval.Search(ctx, content, "alpha", 2)
	require.NoError(t, err)
	require.Equal(t, calls, provider.embedCalls.Load())
}

func TestSyncContentRebuildsStaleIndex(t *testing.T) {
	retrieval, contents, chunks, _, cleanup := setupRetrieval(t)
	defer cleanup()
	ctx := context.Background()

	content := seedContent(t, contents, "c1", "some transcript text to index")
	require.NoError(t, retrieval.SyncContent(ctx, "c1"))

	ids, err := chunks.ListStaleContentIDs(ctx, 10)
	require.NoError(t, err)
	require.Empty(t, ids)

	content.ContentText = "new text after an edit"
	content.Mtime = timeutil.NowUnix() + 5
	require.NoError(t, contents.Update(ctx, content))

	ids, err = chunks.ListStaleContentIDs(ctx, 10)
	require.NoError(t, err)
	require.Equal(t, []string{"c1"}, ids)

	require.NoError(t, retrieval.SyncContent(ctx, "c1"))
	ids, err = chunks.ListStaleContentIDs(ctx, 10)
	require.NoError(t, err)
	require.Empty(t, ids)
}
