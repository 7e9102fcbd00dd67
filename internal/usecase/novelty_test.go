package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NewsDigest/internal/domain"
)

func TestNoveltyFilterKeepsOrderAndDropsKnown(t *testing.T) {
	repo := &fakeRepo{existing: map[string]bool{"https://x/2": true}}
	filter := NewNoveltyFilter(repo)

	got, err := filter.Filter(context.Background(), []domain.Candidate{
		candidate("https://x/3"), candidate("https://x/2"), candidate("https://x/1"), candidate("https://x/3"),
	})
	require.NoError(t, err)

	var urls []string
	for _, c := range got {
		urls = append(urls, c.SourceURL)
	}
	assert.Equal(t, []string{"https://x/3", "https://x/1"}, urls)
	assert.Equal(t, 1, repo.lookups)
}

func TestNoveltyFilterEmptyInputSkipsLookup(t *testing.T) {
	repo := &fakeRepo{}
	got, err := NewNoveltyFilter(repo).Filter(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Zero(t, repo.lookups)
}

func TestNoveltyFilterPropagatesLookupError(t *testing.T) {
	repo := &fakeRepo{lookupErr: errors.New("db down")}
	_, err := NewNoveltyFilter(repo).Filter(context.Background(), []domain.Candidate{candidate("https://x/1")})
	require.Error(t, err)
	assert.ErrorIs(t, err, repo.lookupErr)
}
