package docmerge

import (
	"archive/zip"
	"bytes"
	"io"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"
)

var testClock = func() time.Time {
	return time.Date(2026, 8, 31, 12, 30, 0, 0, time.UTC)
}

// newTestEngine builds an engine with caching disabled and a fixed clock.
func newTestEngine(opts ...Option) *Engine {
	base := []Option{WithConfig(&Config{
		CacheMaxSize:  0,
		LogLevel:      "info",
		NumericFields: DefaultNumericFields,
	})}
	e := New(append(base, opts...)...)
	e.clock = testClock
	return e
}

// buildFlowedTemplate creates a minimal in-memory flowed document whose body
// is a single paragraph with the given text. Extra parts (e.g. a header) may
// be appended as name/content pairs.
func buildFlowedTemplate(t *testing.T, bodyText string, extraParts ...[2]string) []byte {
	t.Helper()

	body := `<w:p><w:r><w:t xml:space="preserve">` + bodyText + `</w:t></w:r></w:p>`
	return buildFlowedTemplateXML(t, body, extraParts...)
}

// buildFlowedTemplateXML is buildFlowedTemplate with the raw body markup
// supplied by the caller, for fixtures that need control over run boundaries.
func buildFlowedTemplateXML(t *testing.T, bodyXML string, extraParts ...[2]string) []byte {
	t.Helper()

	doc := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
		bodyXML + `</w:body></w:document>`

	buf := new(bytes.Buffer)
	w := zip.NewWriter(buf)
	parts := [][2]string{
		{"[Content_Types].xml", fallbackContentTypesXML},
		{"_rels/.rels", fallbackRelsXML},
		{"word/document.xml", doc},
	}
	parts = append(parts, extraParts...)
	for _, part := range parts {
		fw, err := w.Create(part[0])
		if err != nil {
			t.Fatalf("create part %s: %v", part[0], err)
		}
		if _, err := fw.Write([]byte(part[1])); err != nil {
			t.Fatalf("write part %s: %v", part[0], err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close template zip: %v", err)
	}
	return buf.Bytes()
}

// readDocxPart extracts one part of a rendered flowed document.
func readDocxPart(t *testing.T, data []byte, name string) string {
	t.Helper()

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("output is not a zip archive: %v", err)
	}
	for _, file := range zr.File {
		if file.Name != name {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			t.Fatalf("open %s: %v", name, err)
		}
		defer rc.Close()
		content, err := io.ReadAll(rc)
		if err != nil {
			t.Fatalf("read %s: %v", name, err)
		}
		return string(content)
	}
	t.Fatalf("part %s not found in output", name)
	return ""
}

// buildGridTemplate creates an in-memory workbook from axis→text pairs.
func buildGridTemplate(t *testing.T, cells map[string]string) []byte {
	t.Helper()

	wb := excelize.NewFile()
	defer wb.Close()
	sheet := wb.GetSheetName(0)
	for axis, value := range cells {
		if err := wb.SetCellStr(sheet, axis, value); err != nil {
			t.Fatalf("set cell %s: %v", axis, err)
		}
	}
	buf, err := wb.WriteToBuffer()
	if err != nil {
		t.Fatalf("serialize workbook: %v", err)
	}
	return buf.Bytes()
}

// openGrid parses rendered grid output.
func openGrid(t *testing.T, data []byte) *excelize.File {
	t.Helper()

	wb, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("output is not a valid workbook: %v", err)
	}
	t.Cleanup(func() { wb.Close() })
	return wb
}
