package domain

import "time"

// Candidate is a search result considered for ingestion.
type Candidate struct {
	SourceURL   string
	TitleEn     string
	SourceName  string
	SourceHost  string
	ImageURL    string
	PublishedAt *time.Time
	RawContent  string
	BatchID     BatchID
}

// Enrichment carries the model-derived fields for one candidate. Category is
// the raw model output and is validated when the record is assembled.
type Enrichment struct {
	Category    string `json:"category"`
	TitleZhTW   string `json:"title_zh_tw"`
	TitleZhCN   string `json:"title_zh_cn"`
	SummaryEn   string `json:"summary_en"`
	SummaryZhTW string `json:"summary_zh_tw"`
	SummaryZhCN string `json:"summary_zh_cn"`
}

// ArticleRecord is the persisted unit. Nil pointers are stored as NULL.
type ArticleRecord struct {
	Candidate
	Category    Category
	TitleZhTW   *string
	TitleZhCN   *string
	SummaryEn   *string
	SummaryZhTW *string
	SummaryZhCN *string
	FetchedAt   time.Time
}

// Title returns the title in lang, falling back to English.
func (a ArticleRecord) Title(lang Language) string {
	switch lang {
	case LanguageZhTW:
		if a.TitleZhTW != nil && *a.TitleZhTW != "" {
			return *a.TitleZhTW
		}
	case LanguageZhCN:
		if a.TitleZhCN != nil && *a.TitleZhCN != "" {
			return *a.TitleZhCN
		}
	}
	return a.TitleEn
}

// Summary returns the summary in lang, falling back to English and then to "".
func (a ArticleRecord) Summary(lang Language) string {
	switch lang {
	case LanguageZhTW:
		if a.SummaryZhTW != nil && *a.SummaryZhTW != "" {
			return *a.SummaryZhTW
		}
	case LanguageZhCN:
		if a.SummaryZhCN != nil && *a.SummaryZhCN != "" {
			return *a.SummaryZhCN
		}
	}
	if a.SummaryEn != nil {
		return *a.SummaryEn
	}
	return ""
}

// Trigger tells the pipeline who started it.
type Trigger string

const (
	TriggerScheduler Trigger = "scheduler"
	TriggerManual    Trigger = "manual"
)

// ParseTrigger accepts the two known trigger tags.
func ParseTrigger(value string) (Trigger, bool) {
	switch Trigger(value) {
	case TriggerScheduler, TriggerManual:
		return Trigger(value), true
	}
	return "", false
}

// RunResult summarizes one pipeline invocation.
type RunResult struct {
	BatchID       BatchID `json:"batchId"`
	ArticlesAdded int     `json:"articlesAdded"`
}
