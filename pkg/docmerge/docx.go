package docmerge

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
)

// DocxReader indexes the parts of a zip-packaged flowed document.
type DocxReader struct {
	files []*zip.File
	parts map[string]*zip.File
}

// NewDocxReader opens template bytes as a flowed-document archive. Bad magic
// bytes, a corrupt zip structure, or a missing main document part all fail
// here; the input was never a valid template.
func NewDocxReader(b []byte) (*DocxReader, error) {
	zr, err := zip.NewReader(bytes.NewReader(b), int64(len(b)))
	if err != nil {
		return nil, fmt.Errorf("failed to read zip archive: %w", err)
	}

	dr := &DocxReader{
		files: zr.File,
		parts: make(map[string]*zip.File, len(zr.File)),
	}
	for _, file := range zr.File {
		dr.parts[file.Name] = file
	}

	if _, ok := dr.parts["word/document.xml"]; !ok {
		return nil, fmt.Errorf("missing word/document.xml")
	}

	return dr, nil
}

// Files returns every part in archive order.
func (dr *DocxReader) Files() []*zip.File {
	return dr.files
}

// Part reads the content of a named part.
func (dr *DocxReader) Part(name string) ([]byte, error) {
	file, ok := dr.parts[name]
	if !ok {
		return nil, fmt.Errorf("part %s not found", name)
	}

	rc, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open part %s: %w", name, err)
	}
	defer rc.Close()

	content, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to read part %s: %w", name, err)
	}

	return content, nil
}
