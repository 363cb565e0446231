package docmerge

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"regexp"
	"strings"

	"go.uber.org/zap"
)

var (
	// textNodeRegex captures the text content of a <w:t> run so substitution
	// never touches surrounding markup.
	textNodeRegex = regexp.MustCompile(`(<w:t[^>]*>)([^<]*)(</w:t>)`)

	headerFooterRegex = regexp.MustCompile(`^word/(?:header|footer)\d+\.xml$`)

	paragraphRegex = regexp.MustCompile(`(?s)<w:p(?:\s[^>]*)?>.*?</w:p>`)

	xmlUnescaper = strings.NewReplacer(
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", `"`,
		"&apos;", "'",
		"&amp;", "&",
	)
)

// renderFlowed merges a record into a zip-packaged flowed-text template. An
// unparseable archive is a *TemplateStructureError; any failure after the
// archive opens comes back as a *RenderError for the dispatcher's fallback arm.
func (e *Engine) renderFlowed(templateBytes []byte, rec *Record, meta FieldMeta, templateName string) (out []byte, err error) {
	dr, derr := NewDocxReader(templateBytes)
	if derr != nil {
		return nil, &TemplateStructureError{Kind: KindFlowed, Cause: derr}
	}

	defer func() {
		if r := recover(); r != nil {
			out, err = nil, newRenderError(templateName, rec.ID, RecoverError(r))
		}
	}()

	ctx := e.formatter.Enhance(rec, meta, e.clock())

	buf := new(bytes.Buffer)
	w := zip.NewWriter(buf)
	substituted := 0

	for _, file := range dr.Files() {
		content, perr := dr.Part(file.Name)
		if perr != nil {
			return nil, newRenderError(templateName, rec.ID, perr)
		}

		if file.Name == "word/document.xml" || headerFooterRegex.MatchString(file.Name) {
			var n int
			content, n = e.substituteTextNodes(content, ctx)
			substituted += n
		}

		fw, cerr := w.Create(file.Name)
		if cerr != nil {
			return nil, newRenderError(templateName, rec.ID, cerr)
		}
		if _, werr := fw.Write(content); werr != nil {
			return nil, newRenderError(templateName, rec.ID, werr)
		}
	}

	if cerr := w.Close(); cerr != nil {
		return nil, newRenderError(templateName, rec.ID, cerr)
	}

	Logger().Debug("flowed template rendered",
		zap.String("template", templateName),
		zap.String("record", rec.ID),
		zap.Int("placeholders", substituted))

	return buf.Bytes(), nil
}

// substituteTextNodes rewrites placeholders inside <w:t> nodes, leaving every
// other byte of the part untouched. Unresolvable tags become empty text rather
// than staying visible.
func (e *Engine) substituteTextNodes(part []byte, ctx RenderContext) ([]byte, int) {
	part = mergeSplitPlaceholders(part)

	count := 0
	replaced := textNodeRegex.ReplaceAllFunc(part, func(node []byte) []byte {
		groups := textNodeRegex.FindSubmatch(node)
		text := xmlUnescaper.Replace(string(groups[2]))
		if !strings.Contains(text, "{") {
			return node
		}

		merged := ReplacePlaceholders(text, func(name string) string {
			count++
			return e.formatter.Resolve(name, ctx)
		})

		var b bytes.Buffer
		b.Write(groups[1])
		xml.EscapeText(&b, []byte(merged))
		b.Write(groups[3])
		return b.Bytes()
	})
	return replaced, count
}

// mergeSplitPlaceholders repairs placeholders that editors split across
// consecutive runs (spell-check and formatting insert run boundaries freely).
// Within each paragraph, a { left open by one text node pulls the following
// node texts into it until its } arrives, so substitution sees the whole tag.
// A { with no closing } anywhere in the paragraph is left alone.
func mergeSplitPlaceholders(part []byte) []byte {
	return paragraphRegex.ReplaceAllFunc(part, func(p []byte) []byte {
		locs := textNodeRegex.FindAllSubmatchIndex(p, -1)
		if len(locs) < 2 {
			return p
		}

		texts := make([]string, len(locs))
		for i, loc := range locs {
			texts[i] = xmlUnescaper.Replace(string(p[loc[4]:loc[5]]))
		}

		changed := false
		for i := 0; i < len(texts); i++ {
			for hasOpenBrace(texts[i]) {
				end := -1
				for j := i + 1; j < len(texts); j++ {
					if strings.Contains(texts[j], "}") {
						end = j
						break
					}
				}
				if end == -1 {
					break
				}
				for j := i + 1; j <= end; j++ {
					texts[i] += texts[j]
					texts[j] = ""
				}
				changed = true
			}
		}
		if !changed {
			return p
		}

		var b bytes.Buffer
		prev := 0
		for i, loc := range locs {
			b.Write(p[prev:loc[4]])
			xml.EscapeText(&b, []byte(texts[i]))
			prev = loc[5]
		}
		b.Write(p[prev:])
		return b.Bytes()
	})
}

// hasOpenBrace reports a { not yet closed by a later } in the same text.
func hasOpenBrace(s string) bool {
	return strings.LastIndex(s, "{") > strings.LastIndex(s, "}")
}
