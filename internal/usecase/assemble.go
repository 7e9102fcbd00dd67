package usecase

import (
	"strings"
	"time"

	"NewsDigest/internal/domain"
	"NewsDigest/internal/enrichment"
)

// fallbackSummaryRunes is how much raw content stands in for a missing summary.
const fallbackSummaryRunes = 300

// Assemble pairs each candidate with its enrichment by index. Empty model
// fields become NULL; unknown categories fall back to the default. A nil
// enrichment yields default category and a summary cut from the raw content.
func Assemble(candidates []domain.Candidate, results []*domain.Enrichment, fetchedAt time.Time) []domain.ArticleRecord {
	records := make([]domain.ArticleRecord, len(candidates))
	for i, c := range candidates {
		rec := domain.ArticleRecord{
			Candidate: c,
			Category:  domain.DefaultCategory,
			FetchedAt: fetchedAt,
		}

		var res *domain.Enrichment
		if i < len(results) {
			res = results[i]
		}

		if res != nil {
			rec.Category = domain.CategoryOrDefault(res.Category)
			rec.TitleZhTW = optional(res.TitleZhTW)
			rec.TitleZhCN = optional(res.TitleZhCN)
			rec.SummaryEn = optional(res.SummaryEn)
			rec.SummaryZhTW = optional(res.SummaryZhTW)
			rec.SummaryZhCN = optional(res.SummaryZhCN)
		} else {
			rec.SummaryEn = optional(enrichment.Truncate(c.RawContent, fallbackSummaryRunes))
		}

		records[i] = rec
	}
	return records
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
