package storage

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NewsDigest/internal/config"
	"NewsDigest/internal/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(context.Background(), config.DatabaseConfig{Driver: DriverSQLite, DSN: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.Migrate(context.Background()))
	return store
}

func strPtr(s string) *string { return &s }

func record(url string, batch domain.BatchID, published *time.Time) domain.ArticleRecord {
	return domain.ArticleRecord{
		Candidate: domain.Candidate{
			SourceURL:   url,
			TitleEn:     "Title " + url,
			SourceName:  "TechCrunch",
			SourceHost:  "techcrunch.com",
			PublishedAt: published,
			BatchID:     batch,
		},
		Category:  domain.CategoryResearch,
		TitleZhTW: strPtr("標題"),
		SummaryEn: strPtr("Summary."),
		FetchedAt: time.Date(2024, 3, 5, 0, 30, 0, 0, time.UTC),
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), config.DatabaseConfig{Driver: "mysql", DSN: "x"})
	require.Error(t, err)
}

func TestNewStoreWrapsExistingHandle(t *testing.T) {
	db, err := sql.Open(DriverSQLite, ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = NewStore(db, "mysql")
	require.Error(t, err)

	store, err := NewStore(db, DriverSQLite)
	require.NoError(t, err)
	require.NoError(t, store.Migrate(context.Background()))

	urls, err := store.ExistingURLs(context.Background(), []string{"https://a.example/2024/story-one"})
	require.NoError(t, err)
	assert.Empty(t, urls)
}

func TestMigrateIsIdempotent(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Migrate(context.Background()))
}

func TestInsertBatchSkipsExistingURLs(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	first := []domain.ArticleRecord{
		record("https://a.example/2024/story-one", "2024-03-05-08", nil),
		record("https://a.example/2024/story-two", "2024-03-05-08", nil),
	}
	n, err := store.InsertBatch(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	again := append(first, record("https://a.example/2024/story-three", "2024-03-05-08", nil))
	n, err = store.InsertBatch(ctx, again)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = store.InsertBatch(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestInsertBatchRollsBackOnFailure(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	bad := record("https://a.example/2024/story-bad", "2024-03-05-08", nil)
	bad.Category = "not-a-category"
	batch := []domain.ArticleRecord{
		record("https://a.example/2024/story-good", "2024-03-05-08", nil),
		bad,
	}

	_, err := store.InsertBatch(ctx, batch)
	require.Error(t, err)

	existing, err := store.ExistingURLs(ctx, []string{"https://a.example/2024/story-good"})
	require.NoError(t, err)
	assert.Empty(t, existing)
}

func TestExistingURLs(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	_, err := store.InsertBatch(ctx, []domain.ArticleRecord{record("https://a.example/2024/known-story", "2024-03-05-08", nil)})
	require.NoError(t, err)

	got, err := store.ExistingURLs(ctx, []string{"https://a.example/2024/known-story", "https://a.example/2024/new-story"})
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"https://a.example/2024/known-story": true}, got)

	got, err = store.ExistingURLs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestListByBatchOrdersNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	older := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)
	newer := time.Date(2024, 3, 4, 22, 0, 0, 0, time.UTC)
	_, err := store.InsertBatch(ctx, []domain.ArticleRecord{
		record("https://a.example/2024/undated-story", "2024-03-05-08", nil),
		record("https://a.example/2024/older-story", "2024-03-05-08", &older),
		record("https://a.example/2024/newer-story", "2024-03-05-08", &newer),
		record("https://a.example/2024/other-batch", "2024-03-04-18", &newer),
	})
	require.NoError(t, err)

	got, err := store.ListByBatch(ctx, "2024-03-05-08")
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, "https://a.example/2024/newer-story", got[0].SourceURL)
	assert.Equal(t, "https://a.example/2024/older-story", got[1].SourceURL)
	assert.Equal(t, "https://a.example/2024/undated-story", got[2].SourceURL)

	first := got[0]
	require.NotNil(t, first.PublishedAt)
	assert.True(t, first.PublishedAt.Equal(newer))
	assert.Equal(t, domain.CategoryResearch, first.Category)
	assert.Equal(t, "標題", *first.TitleZhTW)
	assert.Nil(t, first.TitleZhCN)
	assert.Nil(t, first.SummaryZhCN)
	assert.Equal(t, "Summary.", *first.SummaryEn)
	assert.Equal(t, "techcrunch.com", first.SourceHost)
	assert.Empty(t, first.ImageURL)
	assert.Equal(t, domain.BatchID("2024-03-05-08"), first.BatchID)
}

func TestDigestSubscribers(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	save := func(id, email, name string, verified, enabled bool, langs, cats []string) {
		t.Helper()
		pref := domain.NormalizePreference(id, langs, cats, enabled)
		require.NoError(t, store.SaveSubscriber(ctx, domain.Subscriber{Email: email, DisplayName: name, Preference: pref}, verified))
	}
	save("u1", "ann@example.com", "Ann", true, true, []string{"zh-TW", "en"}, []string{"ai-ethics", "ai-business"})
	save("u2", "bob@example.com", "", true, true, nil, nil)
	save("u3", "cat@example.com", "Cat", false, true, []string{"en"}, []string{"ai-research"})
	save("u4", "dan@example.com", "Dan", true, false, []string{"en"}, []string{"ai-research"})

	got, err := store.DigestSubscribers(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)

	ann := got[0]
	assert.Equal(t, "ann@example.com", ann.Email)
	assert.Equal(t, "Ann", ann.Name())
	assert.Equal(t, []domain.Language{domain.LanguageZhTW, domain.LanguageEn}, ann.Preference.Languages)
	assert.Equal(t, []domain.Category{domain.CategoryEthics, domain.CategoryBusiness}, ann.Preference.Categories)

	bob := got[1]
	assert.Equal(t, "bob@example.com", bob.Name())
	assert.Equal(t, domain.DefaultPreference("u2"), bob.Preference)

	// updating preferences replaces the stored lists
	save("u2", "bob@example.com", "Bob", true, true, []string{"zh-CN"}, []string{"ai-research"})
	got, err = store.DigestSubscribers(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.Language{domain.LanguageZhCN}, got[1].Preference.Languages)
	assert.Equal(t, "Bob", got[1].DisplayName)
}
