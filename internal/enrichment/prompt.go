// Package enrichment holds the generation prompt and the recovery ladder that
// turns free-form model output into structured article fields.
package enrichment

import (
	"fmt"

	"NewsDigest/internal/domain"
)

// MaxContentRunes caps the article body sent to the model.
const MaxContentRunes = 1500

// SystemPrompt instructs the model to answer with exactly one six-key JSON object.
const SystemPrompt = `You are an AI news editor. Analyze the given article and return ONLY a valid JSON object with these exact keys:
{
  "category": one of ["ai-business","ai-technology","ai-ethics","ai-research"],
  "title_zh_tw": "Traditional Chinese (繁體中文) translation of the title",
  "title_zh_cn": "Simplified Chinese (简体中文) translation of the title",
  "summary_en": "2-3 sentence English summary of the article",
  "summary_zh_tw": "2-3 sentence Traditional Chinese (繁體中文) summary",
  "summary_zh_cn": "2-3 sentence Simplified Chinese (简体中文) summary"
}

Category definitions:
- ai-business: AI company news, funding, acquisitions, enterprise AI, market analysis, AI products
- ai-technology: AI tools, models, frameworks, technical releases, product launches, engineering
- ai-ethics: AI safety, bias, regulation, policy, societal impact, privacy, governance
- ai-research: AI papers, academic research, benchmarks, scientific discoveries, datasets

Return ONLY the JSON object, no markdown, no explanation, no extra text.`

// UserPrompt renders the per-article message.
func UserPrompt(c domain.Candidate) string {
	return fmt.Sprintf("Title: %s\nContent: %s", c.TitleEn, Truncate(c.RawContent, MaxContentRunes))
}

// Truncate keeps at most n runes of s.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
