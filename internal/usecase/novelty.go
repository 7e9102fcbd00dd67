package usecase

import (
	"context"
	"fmt"

	"NewsDigest/internal/domain"
	"NewsDigest/internal/ports"
)

// NoveltyFilter drops candidates whose URL is already stored.
type NoveltyFilter struct {
	repository ports.ArticleRepository
}

// NewNoveltyFilter wires the article repository.
func NewNoveltyFilter(repository ports.ArticleRepository) *NoveltyFilter {
	return &NoveltyFilter{repository: repository}
}

// Filter returns the unseen candidates in their original order using a
// single lookup. Repeated URLs within the input keep their first occurrence.
func (f *NoveltyFilter) Filter(ctx context.Context, candidates []domain.Candidate) ([]domain.Candidate, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	urls := make([]string, 0, len(candidates))
	for _, c := range candidates {
		urls = append(urls, c.SourceURL)
	}

	existing, err := f.repository.ExistingURLs(ctx, urls)
	if err != nil {
		return nil, fmt.Errorf("lookup existing urls: %w", err)
	}

	fresh := make([]domain.Candidate, 0, len(candidates))
	seen := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		if existing[c.SourceURL] || seen[c.SourceURL] {
			continue
		}
		seen[c.SourceURL] = true
		fresh = append(fresh, c)
	}
	return fresh, nil
}
