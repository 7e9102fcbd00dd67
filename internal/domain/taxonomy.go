package domain

import "strings"

// Category is the closed set of article categories.
type Category string

const (
	CategoryBusiness   Category = "ai-business"
	CategoryTechnology Category = "ai-technology"
	CategoryEthics     Category = "ai-ethics"
	CategoryResearch   Category = "ai-research"

	DefaultCategory = CategoryTechnology
)

// AllCategories lists categories in display order.
var AllCategories = []Category{CategoryBusiness, CategoryTechnology, CategoryEthics, CategoryResearch}

// ParseCategory converts external text (model output, stored preferences) into a Category.
func ParseCategory(value string) (Category, bool) {
	c := Category(strings.ToLower(strings.TrimSpace(value)))
	for _, known := range AllCategories {
		if c == known {
			return c, true
		}
	}
	return "", false
}

// CategoryOrDefault returns DefaultCategory for unrecognized input.
func CategoryOrDefault(value string) Category {
	if c, ok := ParseCategory(value); ok {
		return c
	}
	return DefaultCategory
}

// Language is the closed set of supported content languages.
type Language string

const (
	LanguageEn   Language = "en"
	LanguageZhTW Language = "zh-TW"
	LanguageZhCN Language = "zh-CN"

	DefaultLanguage = LanguageEn
)

// AllLanguages lists languages in display order.
var AllLanguages = []Language{LanguageEn, LanguageZhTW, LanguageZhCN}

// ParseLanguage converts external text into a Language, ignoring case.
func ParseLanguage(value string) (Language, bool) {
	v := strings.TrimSpace(value)
	for _, known := range AllLanguages {
		if strings.EqualFold(v, string(known)) {
			return known, true
		}
	}
	return "", false
}

// SubscriberPreference is owned by the profile subsystem and read-only here.
type SubscriberPreference struct {
	UserID             string
	Languages          []Language
	Categories         []Category
	EmailDigestEnabled bool
}

// PrimaryLanguage is the first preferred language.
func (p SubscriberPreference) PrimaryLanguage() Language {
	if len(p.Languages) == 0 {
		return DefaultLanguage
	}
	return p.Languages[0]
}

// DefaultPreference is used when a user has no stored preferences.
func DefaultPreference(userID string) SubscriberPreference {
	return SubscriberPreference{
		UserID:             userID,
		Languages:          []Language{DefaultLanguage},
		Categories:         append([]Category(nil), AllCategories...),
		EmailDigestEnabled: true,
	}
}

// NormalizePreference builds a preference from raw stored values. Unknown and
// duplicate entries are dropped; an empty list falls back to the default.
func NormalizePreference(userID string, languages, categories []string, digestEnabled bool) SubscriberPreference {
	pref := DefaultPreference(userID)
	pref.EmailDigestEnabled = digestEnabled

	var langs []Language
	seenLang := map[Language]bool{}
	for _, raw := range languages {
		if l, ok := ParseLanguage(raw); ok && !seenLang[l] {
			seenLang[l] = true
			langs = append(langs, l)
		}
	}
	if len(langs) > 0 {
		pref.Languages = langs
	}

	var cats []Category
	seenCat := map[Category]bool{}
	for _, raw := range categories {
		if c, ok := ParseCategory(raw); ok && !seenCat[c] {
			seenCat[c] = true
			cats = append(cats, c)
		}
	}
	if len(cats) > 0 {
		pref.Categories = cats
	}

	return pref
}

// Subscriber is a verified, digest-enabled recipient.
type Subscriber struct {
	Email       string
	DisplayName string
	Preference  SubscriberPreference
}

// Name returns the display name or the email when none is set.
func (s Subscriber) Name() string {
	if strings.TrimSpace(s.DisplayName) != "" {
		return s.DisplayName
	}
	return s.Email
}
