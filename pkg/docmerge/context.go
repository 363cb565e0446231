package docmerge

import (
	"sort"
	"strconv"
	"time"
)

// RenderContext is the augmented lookup map built once per render call. It is a
// strict superset of the record's fields: derived entries always use a suffix
// or an alternate name and never displace an original key.
type RenderContext map[string]any

// Enhance builds a RenderContext from a record: convenience time keys, every
// original field verbatim, formatted-text aliases for structured values,
// date-style aliases for date-like fields, and display-name aliases from field
// metadata.
func (f *Formatter) Enhance(rec *Record, meta FieldMeta, now time.Time) RenderContext {
	ctx := make(RenderContext, 2*len(rec.Fields)+12)

	ctx["currentDate"] = now.Format("2006-01-02")
	ctx["currentDateChinese"] = formatDateChinese(now)
	ctx["currentTime"] = now.Format("15:04:05")
	ctx["year"] = strconv.Itoa(now.Year())
	ctx["month"] = strconv.Itoa(int(now.Month()))
	ctx["day"] = strconv.Itoa(now.Day())
	ctx["generatedAt"] = now.Format(time.RFC3339)
	ctx["recordId"] = rec.ID
	ctx["record_id"] = rec.ID

	// Original entries win over every convenience or derived key.
	for key, value := range rec.Fields {
		ctx[key] = value
	}

	for key, value := range rec.Fields {
		switch value.(type) {
		case map[string]any, []any:
			addDerived(ctx, key+"_text", f.FormatString(value, key))
		}
		if t, ok := dateCandidate(key, value); ok {
			addDerived(ctx, key+"_formatted", t.Format("2006-01-02"))
			addDerived(ctx, key+"_chinese", formatDateChinese(t))
		}
	}

	for key, display := range meta {
		if display == "" || display == key {
			continue
		}
		if value, ok := rec.Fields[key]; ok {
			addDerived(ctx, display, value)
		}
	}

	return ctx
}

// addDerived never clobbers an existing entry.
func addDerived(ctx RenderContext, key string, value any) {
	if _, exists := ctx[key]; !exists {
		ctx[key] = value
	}
}

// dateCandidate decides whether a field deserves date-style aliases: either its
// name matches the date keyword heuristic or its value is large enough to read
// as an epoch-millisecond timestamp.
func dateCandidate(key string, value any) (time.Time, bool) {
	n, isNum := asNumber(value)
	if !isDateFieldName(key) && !(isNum && n > epochMillisThreshold) {
		return time.Time{}, false
	}
	switch value.(type) {
	case string, float64, float32, int, int64:
		return asEpochOrDate(value)
	}
	if code, inner, ok := taggedValue(value); ok {
		switch code {
		case fieldTypeDateTime, fieldTypeCreatedTime, fieldTypeModifiedTime:
			return asEpochOrDate(inner)
		}
	}
	return time.Time{}, false
}

func sortedContextKeys(ctx RenderContext) []string {
	keys := make([]string, 0, len(ctx))
	for key := range ctx {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
