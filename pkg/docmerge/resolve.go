package docmerge

import "strings"

// Resolve returns the display text for a placeholder name, or "" when nothing
// in the context matches. It is deterministic and never fails.
func (f *Formatter) Resolve(name string, ctx RenderContext) string {
	return toDisplay(f.ResolveValue(name, ctx))
}

// ResolveValue is Resolve with the numeric type preserved: when the placeholder
// names a preserve-numeric field and the value parses as a number, the native
// number comes back instead of its text form. The grid renderer relies on this
// to keep whole-cell placeholders numeric.
//
// The cascade, first match wins:
//  1. exact key, formatted
//  2. <name>_text, taken as-is
//  3. for date-like names, <name>_chinese then <name>_formatted
//  4. case-insensitive fuzzy pass over all keys
//  5. empty string
func (f *Formatter) ResolveValue(name string, ctx RenderContext) any {
	if value, ok := ctx[name]; ok {
		return f.Format(value, name)
	}
	if value, ok := ctx[name+"_text"]; ok {
		return toDisplay(value)
	}

	dateLike := isDateFieldName(name)
	if dateLike {
		if value, ok := ctx[name+"_chinese"]; ok {
			return toDisplay(value)
		}
		if value, ok := ctx[name+"_formatted"]; ok {
			return toDisplay(value)
		}
	}

	// Fuzzy pass. Keys are visited in sorted order so resolution stays
	// deterministic regardless of map iteration.
	lower := strings.ToLower(name)
	keys := sortedContextKeys(ctx)

	if dateLike {
		if key, ok := findKeyContaining(keys, lower, "chinese"); ok {
			return toDisplay(ctx[key])
		}
		if key, ok := findKeyContaining(keys, lower, "formatted"); ok {
			return toDisplay(ctx[key])
		}
	}
	for _, key := range keys {
		if strings.ToLower(key) == lower+"_text" {
			return toDisplay(ctx[key])
		}
	}
	for _, key := range keys {
		if strings.EqualFold(key, name) {
			return f.Format(ctx[key], name)
		}
	}

	return ""
}

func findKeyContaining(keys []string, lowerName, marker string) (string, bool) {
	for _, key := range keys {
		lowerKey := strings.ToLower(key)
		if strings.Contains(lowerKey, lowerName) && strings.Contains(lowerKey, marker) {
			return key, true
		}
	}
	return "", false
}
