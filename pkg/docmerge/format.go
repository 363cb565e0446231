package docmerge

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	// epochMillisThreshold is the magnitude above which a plain number is read
	// as an epoch-millisecond timestamp.
	epochMillisThreshold = 1e12

	// taggedEpochMillisCutoff disambiguates seconds from milliseconds inside
	// tagged date/time values.
	taggedEpochMillisCutoff = 1e10

	// maxFormatDepth bounds recursive unwrapping so cyclic input degrades to
	// the unrepresentable placeholder instead of blowing the stack.
	maxFormatDepth = 32

	// unrepresentableValue stands in for values that cannot be rendered.
	unrepresentableValue = "[object]"
)

// DefaultNumericFields is the reserved set of counting fields whose values keep
// their native numeric type so spreadsheet cells stay numeric instead of
// becoming text. Override with WithNumericFields or Config.NumericFields.
var DefaultNumericFields = []string{"序号"}

// Formatter turns arbitrary field values into display text or typed numeric
// output. Format never fails; unexpected shapes degrade to a best-effort
// string.
type Formatter struct {
	numericFields map[string]bool
}

// NewFormatter creates a formatter preserving numeric type for the given field
// names. A nil slice selects DefaultNumericFields.
func NewFormatter(numericFields []string) *Formatter {
	if numericFields == nil {
		numericFields = DefaultNumericFields
	}
	set := make(map[string]bool, len(numericFields))
	for _, name := range numericFields {
		set[name] = true
	}
	return &Formatter{numericFields: set}
}

// Format renders a field value for display. The result is a string, except for
// the preserve-numeric fields where a parseable value comes back as a float64.
func (f *Formatter) Format(value any, fieldName string) any {
	return f.format(value, fieldName, 0)
}

// FormatString is Format with the result coerced to text.
func (f *Formatter) FormatString(value any, fieldName string) string {
	return toDisplay(f.format(value, fieldName, 0))
}

func (f *Formatter) format(value any, fieldName string, depth int) any {
	if depth > maxFormatDepth {
		return unrepresentableValue
	}
	if value == nil {
		return ""
	}

	if f.numericFields[fieldName] {
		if n, ok := asNumber(value); ok {
			return n
		}
	}

	switch v := value.(type) {
	case string:
		return f.formatText(v, fieldName)
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return f.formatNumber(v, fieldName)
	case float32:
		return f.formatNumber(float64(v), fieldName)
	case int:
		return f.formatNumber(float64(v), fieldName)
	case int64:
		return f.formatNumber(float64(v), fieldName)
	case json.Number:
		if n, err := v.Float64(); err == nil {
			return f.formatNumber(n, fieldName)
		}
		return v.String()
	case time.Time:
		return formatDate(v, fieldName)
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			parts = append(parts, toDisplay(f.format(item, fieldName, depth+1)))
		}
		return strings.Join(parts, ", ")
	case map[string]any:
		if code, inner, ok := taggedValue(v); ok {
			return f.formatTagged(code, inner, fieldName, depth)
		}
		return f.formatAttributed(v, fieldName, depth)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return unrepresentableValue
		}
		return string(b)
	}
}

// formatNumber handles the generic numeric path: large magnitudes read as epoch
// milliseconds, everything else stringifies plainly.
func (f *Formatter) formatNumber(n float64, fieldName string) string {
	if n > epochMillisThreshold {
		return formatDate(time.UnixMilli(int64(n)).UTC(), fieldName)
	}
	return strconv.FormatFloat(n, 'f', -1, 64)
}

// formatText recognizes numeric and date-like strings before falling back to
// returning the text unchanged.
func (f *Formatter) formatText(s string, fieldName string) string {
	if allDigits(s) {
		if n, err := strconv.ParseFloat(s, 64); err == nil {
			return f.formatNumber(n, fieldName)
		}
	}
	if strings.ContainsAny(s, "-/") {
		if t, ok := parseDateString(s); ok {
			return formatDate(t, fieldName)
		}
	}
	return s
}

func (f *Formatter) formatTagged(code int, inner any, fieldName string, depth int) any {
	switch code {
	case fieldTypeText:
		if seq, ok := inner.([]any); ok {
			var b strings.Builder
			for _, item := range seq {
				if m, isMap := item.(map[string]any); isMap {
					if text, isStr := m["text"].(string); isStr {
						b.WriteString(text)
						continue
					}
				}
				b.WriteString(toDisplay(f.format(item, fieldName, depth+1)))
			}
			return b.String()
		}
		if s, ok := inner.(string); ok {
			return s
		}
		return toDisplay(f.format(inner, fieldName, depth+1))

	case fieldTypeNumber, fieldTypeCurrency:
		if n, ok := asNumber(inner); ok {
			return formatCurrency(n)
		}
		return toDisplay(f.format(inner, fieldName, depth+1))

	case fieldTypeDateTime, fieldTypeCreatedTime, fieldTypeModifiedTime:
		if t, ok := asEpochOrDate(inner); ok {
			return t.Format("2006-01-02")
		}
		return toDisplay(f.format(inner, fieldName, depth+1))

	case fieldTypeSingleSelect, fieldTypeMultiSelect:
		if seq, ok := inner.([]any); ok {
			parts := make([]string, 0, len(seq))
			for _, item := range seq {
				if m, isMap := item.(map[string]any); isMap {
					if text, isStr := m["text"].(string); isStr {
						parts = append(parts, text)
						continue
					}
				}
				parts = append(parts, toDisplay(f.format(item, fieldName, depth+1)))
			}
			return strings.Join(parts, ", ")
		}
		return toDisplay(f.format(inner, fieldName, depth+1))

	case fieldTypePerson:
		if seq, ok := inner.([]any); ok {
			var parts []string
			for _, item := range seq {
				if m, isMap := item.(map[string]any); isMap {
					if name, isStr := m["name"].(string); isStr && name != "" {
						parts = append(parts, name)
					}
				}
			}
			return strings.Join(parts, ", ")
		}
		return toDisplay(f.format(inner, fieldName, depth+1))

	default:
		return f.format(inner, fieldName, depth+1)
	}
}

// formatAttributed handles generic objects without a {type, value} tag pair:
// prefer text, then name, then title, then recurse into value.
func (f *Formatter) formatAttributed(m map[string]any, fieldName string, depth int) any {
	for _, key := range []string{"text", "name", "title"} {
		if v, ok := m[key]; ok {
			if s, isStr := v.(string); isStr {
				return s
			}
			return toDisplay(f.format(v, fieldName, depth+1))
		}
	}
	if v, ok := m["value"]; ok {
		return f.format(v, fieldName, depth+1)
	}
	b, err := json.Marshal(m)
	if err != nil {
		return unrepresentableValue
	}
	return string(b)
}

// toDisplay coerces a Format result to text.
func toDisplay(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// isDateFieldName reports whether a field name suggests a date or time value:
// case-insensitive substring match on "date", "time", or the ideograph 日.
func isDateFieldName(name string) bool {
	lower := strings.ToLower(name)
	return strings.Contains(lower, "date") ||
		strings.Contains(lower, "time") ||
		strings.Contains(lower, "日")
}

// formatDate picks the long Chinese-style form for date-named fields and the
// zero-padded short form otherwise.
func formatDate(t time.Time, fieldName string) string {
	if isDateFieldName(fieldName) {
		return formatDateChinese(t)
	}
	return t.Format("2006-01-02")
}

func formatDateChinese(t time.Time) string {
	return fmt.Sprintf("%d年%d月%d日", t.Year(), int(t.Month()), t.Day())
}

// formatCurrency renders a localized currency amount with two decimal places
// and thousands separators.
func formatCurrency(n float64) string {
	s := strconv.FormatFloat(n, 'f', 2, 64)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign = "-"
		s = s[1:]
	}
	intPart, fracPart, _ := strings.Cut(s, ".")
	return sign + "¥" + groupThousands(intPart) + "." + fracPart
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

// dateStringFormats lists the layouts tried for date-looking strings.
var dateStringFormats = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02",
	"2006/1/2",
	"01/02/2006",
	"2006.01.02",
}

func parseDateString(s string) (time.Time, bool) {
	for _, layout := range dateStringFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// asEpochOrDate interprets a value as a point in time: numbers are epoch
// seconds or milliseconds depending on magnitude, strings are epochs when all
// digits and calendar dates otherwise.
func asEpochOrDate(v any) (time.Time, bool) {
	if s, ok := v.(string); ok && !allDigits(s) {
		return parseDateString(s)
	}
	n, ok := asNumber(v)
	if !ok {
		return time.Time{}, false
	}
	if n > taggedEpochMillisCutoff {
		return time.UnixMilli(int64(n)).UTC(), true
	}
	return time.Unix(int64(n), 0).UTC(), true
}
