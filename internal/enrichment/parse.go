package enrichment

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"NewsDigest/internal/domain"
)

// MinFields is the smallest number of non-empty fields accepted as a result.
const MinFields = 3

// ErrUnparseable is returned when no ladder step recovers MinFields fields.
var ErrUnparseable = errors.New("unparseable enrichment response")

// Field names of the six-key response object, in prompt order.
const (
	FieldCategory    = "category"
	FieldTitleZhTW   = "title_zh_tw"
	FieldTitleZhCN   = "title_zh_cn"
	FieldSummaryEn   = "summary_en"
	FieldSummaryZhTW = "summary_zh_tw"
	FieldSummaryZhCN = "summary_zh_cn"
)

var fieldNames = []string{FieldCategory, FieldTitleZhTW, FieldTitleZhCN, FieldSummaryEn, FieldSummaryZhTW, FieldSummaryZhCN}

const responseSchema = `{
  "type": "object",
  "properties": {
    "category":      {"type": ["string", "null"]},
    "title_zh_tw":   {"type": ["string", "null"]},
    "title_zh_cn":   {"type": ["string", "null"]},
    "summary_en":    {"type": ["string", "null"]},
    "summary_zh_tw": {"type": ["string", "null"]},
    "summary_zh_cn": {"type": ["string", "null"]}
  }
}`

var (
	schema = mustSchema(responseSchema)

	fenceOpen  = regexp.MustCompile("(?i)^```(?:json)?\\s*")
	fenceClose = regexp.MustCompile("\\s*```$")

	fieldPatterns = buildFieldPatterns()

	lineBreaks = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")
)

func mustSchema(src string) *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
	if err != nil {
		panic(fmt.Sprintf("enrichment: invalid response schema: %v", err))
	}
	return s
}

// buildFieldPatterns matches `"key": "value` up to the closing quote that is
// followed by another key or the end of the object, with or without a
// trailing comma. Values may therefore contain unescaped quotes and raw newlines.
func buildFieldPatterns() map[string]*regexp.Regexp {
	patterns := make(map[string]*regexp.Regexp, len(fieldNames))
	for _, name := range fieldNames {
		patterns[name] = regexp.MustCompile(`(?s)"` + name + `"\s*:\s*"(.*?)"\s*(?:,\s*"[A-Za-z_]+"\s*:|,?\s*}|$)`)
	}
	return patterns
}

// Parse applies the recovery ladder to a raw model response:
// fence stripping, object extraction, direct decode, decode after newline
// normalization and finally per-field pattern matching.
func Parse(raw string) (*domain.Enrichment, error) {
	text := stripFence(raw)
	text = extractObject(text)

	if fields, ok := decode(text); ok {
		return build(fields)
	}
	if fields, ok := decode(lineBreaks.Replace(text)); ok {
		return build(fields)
	}
	return build(extractFields(text))
}

func stripFence(raw string) string {
	text := strings.TrimSpace(raw)
	text = fenceOpen.ReplaceAllString(text, "")
	text = fenceClose.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

func extractObject(text string) string {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end <= start {
		return text
	}
	return text[start : end+1]
}

func decode(text string) (map[string]string, bool) {
	var doc map[string]interface{}
	if err := json.Unmarshal([]byte(text), &doc); err != nil {
		return nil, false
	}

	result, err := schema.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil || !result.Valid() {
		return nil, false
	}

	fields := make(map[string]string, len(fieldNames))
	for _, name := range fieldNames {
		if v, ok := doc[name].(string); ok {
			fields[name] = strings.TrimSpace(v)
		}
	}
	return fields, true
}

func extractFields(text string) map[string]string {
	fields := make(map[string]string, len(fieldNames))
	for _, name := range fieldNames {
		match := fieldPatterns[name].FindStringSubmatch(text)
		if len(match) < 2 {
			continue
		}
		fields[name] = repairValue(match[1])
	}
	return fields
}

// repairValue escapes stray quotes and raw line breaks so the captured value
// can be decoded as a JSON string, which also resolves legitimate escapes.
func repairValue(raw string) string {
	var b strings.Builder
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		switch {
		case c == '\\' && i+1 < len(raw):
			b.WriteByte(c)
			b.WriteByte(raw[i+1])
			i++
		case c == '"':
			b.WriteString(`\"`)
		case c == '\n' || c == '\r':
			b.WriteByte(' ')
		case c == '\t':
			b.WriteString(`\t`)
		default:
			b.WriteByte(c)
		}
	}

	var out string
	if err := json.Unmarshal([]byte(`"`+b.String()+`"`), &out); err != nil {
		return strings.TrimSpace(lineBreaks.Replace(raw))
	}
	return strings.TrimSpace(out)
}

func build(fields map[string]string) (*domain.Enrichment, error) {
	found := 0
	for _, name := range fieldNames {
		if fields[name] != "" {
			found++
		}
	}
	if found < MinFields {
		return nil, fmt.Errorf("%w: recovered %d of %d fields", ErrUnparseable, found, len(fieldNames))
	}

	return &domain.Enrichment{
		Category:    fields[FieldCategory],
		TitleZhTW:   fields[FieldTitleZhTW],
		TitleZhCN:   fields[FieldTitleZhCN],
		SummaryEn:   fields[FieldSummaryEn],
		SummaryZhTW: fields[FieldSummaryZhTW],
		SummaryZhCN: fields[FieldSummaryZhCN],
	}, nil
}
