package usecase

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NewsDigest/internal/domain"
)

func TestAssemblePairsByIndex(t *testing.T) {
	fetched := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	candidates := []domain.Candidate{candidate("https://x/1"), candidate("https://x/2"), candidate("https://x/3")}
	results := []*domain.Enrichment{
		{Category: "AI-Ethics", TitleZhTW: "標題", TitleZhCN: "", SummaryEn: "Summary one.", SummaryZhTW: "  ", SummaryZhCN: "摘要"},
		nil,
		{Category: "sports", SummaryEn: "Summary three.", TitleZhTW: "a", TitleZhCN: "b"},
	}

	records := Assemble(candidates, results, fetched)
	require.Len(t, records, 3)

	first := records[0]
	assert.Equal(t, "https://x/1", first.SourceURL)
	assert.Equal(t, domain.CategoryEthics, first.Category)
	assert.Equal(t, "標題", *first.TitleZhTW)
	assert.Nil(t, first.TitleZhCN)
	assert.Nil(t, first.SummaryZhTW)
	assert.Equal(t, "摘要", *first.SummaryZhCN)
	assert.Equal(t, fetched, first.FetchedAt)

	fallback := records[1]
	assert.Equal(t, domain.DefaultCategory, fallback.Category)
	assert.Nil(t, fallback.TitleZhTW)
	assert.Nil(t, fallback.TitleZhCN)
	assert.Nil(t, fallback.SummaryZhTW)
	assert.Nil(t, fallback.SummaryZhCN)
	require.NotNil(t, fallback.SummaryEn)
	assert.Equal(t, "Raw content for https://x/2", *fallback.SummaryEn)

	assert.Equal(t, domain.DefaultCategory, records[2].Category)
}

func TestAssembleFallbackSummary(t *testing.T) {
	long := candidate("https://x/long")
	long.RawContent = strings.Repeat("新", 400)
	empty := candidate("https://x/empty")
	empty.RawContent = ""

	records := Assemble([]domain.Candidate{long, empty}, nil, time.Now())
	require.Len(t, records, 2)
	assert.Equal(t, 300, len([]rune(*records[0].SummaryEn)))
	assert.Nil(t, records[1].SummaryEn)
}
