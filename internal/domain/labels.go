package domain

import "fmt"

var categoryLabels = map[Category]map[Language]string{
	CategoryBusiness:   {LanguageEn: "AI Business", LanguageZhTW: "AI 商業", LanguageZhCN: "AI 商业"},
	CategoryTechnology: {LanguageEn: "AI Technology", LanguageZhTW: "AI 科技", LanguageZhCN: "AI 科技"},
	CategoryEthics:     {LanguageEn: "AI Ethics", LanguageZhTW: "AI 倫理", LanguageZhCN: "AI 伦理"},
	CategoryResearch:   {LanguageEn: "AI Research", LanguageZhTW: "AI 研究", LanguageZhCN: "AI 研究"},
}

// CategoryLabel returns the section heading for a category in lang.
func CategoryLabel(c Category, lang Language) string {
	labels, ok := categoryLabels[c]
	if !ok {
		return string(c)
	}
	if label, ok := labels[lang]; ok {
		return label
	}
	return labels[LanguageEn]
}

// DigestSubject renders the digest subject line in lang.
func DigestSubject(lang Language, edition Edition, date string) string {
	switch lang {
	case LanguageZhTW:
		label := "晚間"
		if edition == EditionMorning {
			label = "早間"
		}
		return fmt.Sprintf("您的 AI 新聞 — %s版 %s", label, date)
	case LanguageZhCN:
		label := "晚间"
		if edition == EditionMorning {
			label = "早间"
		}
		return fmt.Sprintf("您的 AI 新闻 — %s版 %s", label, date)
	default:
		return fmt.Sprintf("Your AI News — %s Edition, %s", edition, date)
	}
}

// ReadMoreLabel is the per-article link caption in lang.
func ReadMoreLabel(lang Language) string {
	switch lang {
	case LanguageZhTW:
		return "閱讀全文 →"
	case LanguageZhCN:
		return "阅读全文 →"
	default:
		return "Read full article →"
	}
}
