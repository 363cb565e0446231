package docmerge

import (
	"regexp"
	"strings"
)

// placeholderRegex matches the shortest string between a { and the next }.
// Nested braces are not supported and no escape for a literal brace exists.
var placeholderRegex = regexp.MustCompile(`\{([^}]*)\}`)

// ExtractPlaceholders scans text left-to-right and returns every {...} interior
// in order of appearance, duplicates preserved. Diagnostic helper; rendering
// itself substitutes in place.
func ExtractPlaceholders(text string) []string {
	matches := placeholderRegex.FindAllStringSubmatch(text, -1)
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, m[1])
	}
	return names
}

// ReplacePlaceholders substitutes every {name} token via resolve.
func ReplacePlaceholders(text string, resolve func(name string) string) string {
	if !strings.Contains(text, "{") {
		return text
	}
	return placeholderRegex.ReplaceAllStringFunc(text, func(token string) string {
		return resolve(token[1 : len(token)-1])
	})
}
