package docmerge

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// reportFallback synthesizes a minimal same-family artifact describing a render
// failure: title, template name, record id, timestamp, error message, and a
// formatted dump of every original field. If building the document itself
// fails, it degrades to a plain-text blob; that last step cannot fail.
func (e *Engine) reportFallback(rec *Record, cause error, templateName string, kind TemplateKind) ([]byte, string) {
	lines := e.fallbackLines(rec, cause, templateName)

	var out []byte
	var err error
	switch kind {
	case KindGrid:
		out, err = buildFallbackGrid(lines)
		if err == nil {
			return out, MimeGrid
		}
	default:
		out, err = buildFallbackFlowed(lines)
		if err == nil {
			return out, MimeFlowed
		}
	}

	Logger().Warn("fallback artifact build failed, degrading to plain text",
		zap.String("template", templateName),
		zap.String("record", rec.ID),
		zap.Error(err))
	return []byte(strings.Join(lines, "\n")), MimeText
}

func (e *Engine) fallbackLines(rec *Record, cause error, templateName string) []string {
	lines := []string{
		"渲染失败报告 (Render Failure Report)",
		"Template: " + templateName,
		"Record: " + rec.ID,
		"Generated: " + e.clock().Format(time.RFC3339),
		"Error: " + cause.Error(),
		"",
		"Fields:",
	}

	keys := make([]string, 0, len(rec.Fields))
	for key := range rec.Fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		lines = append(lines, fmt.Sprintf("%s: %s", key, e.formatter.FormatString(rec.Fields[key], key)))
	}

	return lines
}

const fallbackContentTypesXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"><Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/><Default Extension="xml" ContentType="application/xml"/><Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/></Types>`

const fallbackRelsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"><Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/></Relationships>`

// buildFallbackFlowed assembles a one-paragraph-per-line flowed document from
// scratch.
func buildFallbackFlowed(lines []string) ([]byte, error) {
	var doc bytes.Buffer
	doc.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n")
	doc.WriteString(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`)
	for _, line := range lines {
		doc.WriteString(`<w:p><w:r><w:t xml:space="preserve">`)
		if err := xml.EscapeText(&doc, []byte(line)); err != nil {
			return nil, err
		}
		doc.WriteString(`</w:t></w:r></w:p>`)
	}
	doc.WriteString(`</w:body></w:document>`)

	buf := new(bytes.Buffer)
	w := zip.NewWriter(buf)
	parts := []struct {
		name    string
		content string
	}{
		{"[Content_Types].xml", fallbackContentTypesXML},
		{"_rels/.rels", fallbackRelsXML},
		{"word/document.xml", doc.String()},
	}
	for _, part := range parts {
		fw, err := w.Create(part.name)
		if err != nil {
			return nil, err
		}
		if _, err := fw.Write([]byte(part.content)); err != nil {
			return nil, err
		}
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// buildFallbackGrid assembles a one-cell-per-line workbook.
func buildFallbackGrid(lines []string) ([]byte, error) {
	wb := excelize.NewFile()
	defer wb.Close()

	sheet := wb.GetSheetName(0)
	for i, line := range lines {
		axis, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return nil, err
		}
		if err := wb.SetCellStr(sheet, axis, line); err != nil {
			return nil, err
		}
	}

	buf, err := wb.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
