package service

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/lalalabude/go-docmerge/pkg/docmerge"
)

type fakeRecords struct {
	rec  *docmerge.Record
	meta docmerge.FieldMeta
	err  error
}

func (f *fakeRecords) GetRecord(ctx context.Context, recordID string) (*docmerge.Record, docmerge.FieldMeta, error) {
	if f.err != nil {
		return nil, nil, f.err
	}
	return f.rec, f.meta, nil
}

type fakeStore struct {
	template []byte
	tplErr   error

	putName string
	putData []byte
	putMime string
	putErr  error
}

func (f *fakeStore) GetTemplateBytes(ctx context.Context, ref string) ([]byte, error) {
	if f.tplErr != nil {
		return nil, f.tplErr
	}
	return f.template, nil
}

func (f *fakeStore) PutArtifact(ctx context.Context, name string, data []byte, contentType string) (string, error) {
	if f.putErr != nil {
		return "", f.putErr
	}
	f.putName = name
	f.putData = data
	f.putMime = contentType
	return "s3://artifacts/" + name, nil
}

type fakeUpdater struct {
	recordID string
	url      string
	err      error
}

func (f *fakeUpdater) SetResultURL(ctx context.Context, recordID, url string) error {
	if f.err != nil {
		return f.err
	}
	f.recordID = recordID
	f.url = url
	return nil
}

func flowedTemplate(t *testing.T, body string) []byte {
	t.Helper()

	doc := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body><w:p><w:r><w:t xml:space="preserve">` +
		body + `</w:t></w:r></w:p></w:body></w:document>`
	contentTypes := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"><Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/><Default Extension="xml" ContentType="application/xml"/><Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/></Types>`
	rels := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"><Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/></Relationships>`

	buf := new(bytes.Buffer)
	w := zip.NewWriter(buf)
	for _, part := range [][2]string{
		{"[Content_Types].xml", contentTypes},
		{"_rels/.rels", rels},
		{"word/document.xml", doc},
	} {
		fw, err := w.Create(part[0])
		if err != nil {
			t.Fatal(err)
		}
		if _, err := fw.Write([]byte(part[1])); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestRenderRecordHappyPath(t *testing.T) {
	records := &fakeRecords{
		rec:  &docmerge.Record{ID: "rec1", Fields: map[string]any{"客户名称": "Acme"}},
		meta: docmerge.FieldMeta{},
	}
	store := &fakeStore{template: flowedTemplate(t, "甲方：{客户名称}")}
	updater := &fakeUpdater{}

	svc := New(docmerge.New(), records, store, updater, nil)
	out, err := svc.RenderRecord(context.Background(), "tpl-ref", docmerge.KindFlowed, "rec1", "contract")
	if err != nil {
		t.Fatalf("RenderRecord: %v", err)
	}

	if out.MimeType != docmerge.MimeFlowed {
		t.Errorf("MimeType = %q", out.MimeType)
	}
	if !strings.HasPrefix(out.URL, "s3://artifacts/render_") {
		t.Errorf("URL = %q", out.URL)
	}
	if !strings.HasSuffix(out.Name, ".docx") {
		t.Errorf("Name = %q, want .docx suffix", out.Name)
	}
	if out.Size != len(store.putData) || out.Size == 0 {
		t.Errorf("Size = %d, stored %d bytes", out.Size, len(store.putData))
	}
	if store.putMime != docmerge.MimeFlowed {
		t.Errorf("stored mime = %q", store.putMime)
	}
	if updater.recordID != "rec1" || updater.url != out.URL {
		t.Errorf("write-back = (%q, %q), want (rec1, %q)", updater.recordID, updater.url, out.URL)
	}
}

func TestRenderRecordFetchFailures(t *testing.T) {
	tpl := flowedTemplate(t, "x")

	t.Run("record fetch fails", func(t *testing.T) {
		svc := New(docmerge.New(),
			&fakeRecords{err: errors.New("record gone")},
			&fakeStore{template: tpl}, nil, nil)
		if _, err := svc.RenderRecord(context.Background(), "ref", docmerge.KindFlowed, "rec1", "t"); err == nil {
			t.Error("expected record fetch error")
		}
	})

	t.Run("template fetch fails", func(t *testing.T) {
		svc := New(docmerge.New(),
			&fakeRecords{rec: &docmerge.Record{ID: "rec1"}},
			&fakeStore{tplErr: errors.New("bucket gone")}, nil, nil)
		if _, err := svc.RenderRecord(context.Background(), "ref", docmerge.KindFlowed, "rec1", "t"); err == nil {
			t.Error("expected template fetch error")
		}
	})

	t.Run("artifact put fails", func(t *testing.T) {
		svc := New(docmerge.New(),
			&fakeRecords{rec: &docmerge.Record{ID: "rec1", Fields: map[string]any{}}},
			&fakeStore{template: tpl, putErr: errors.New("upload refused")}, nil, nil)
		if _, err := svc.RenderRecord(context.Background(), "ref", docmerge.KindFlowed, "rec1", "t"); err == nil {
			t.Error("expected artifact store error")
		}
	})
}

func TestRenderRecordWriteBackFailureIsNotFatal(t *testing.T) {
	records := &fakeRecords{rec: &docmerge.Record{ID: "rec1", Fields: map[string]any{}}}
	store := &fakeStore{template: flowedTemplate(t, "x")}
	updater := &fakeUpdater{err: errors.New("record locked")}

	svc := New(docmerge.New(), records, store, updater, nil)
	out, err := svc.RenderRecord(context.Background(), "ref", docmerge.KindFlowed, "rec1", "t")
	if err != nil {
		t.Fatalf("write-back failure must not fail the render: %v", err)
	}
	if out == nil || out.Size == 0 {
		t.Error("artifact should still be produced")
	}
}

func TestRenderRecordWithoutUpdater(t *testing.T) {
	records := &fakeRecords{rec: &docmerge.Record{ID: "rec1", Fields: map[string]any{}}}
	store := &fakeStore{template: flowedTemplate(t, "x")}

	svc := New(docmerge.New(), records, store, nil, nil)
	if _, err := svc.RenderRecord(context.Background(), "ref", docmerge.KindFlowed, "rec1", "t"); err != nil {
		t.Fatalf("RenderRecord without updater: %v", err)
	}
}

func TestExtensionFor(t *testing.T) {
	cases := map[string]string{
		docmerge.MimeFlowed: ".docx",
		docmerge.MimeGrid:   ".xlsx",
		docmerge.MimeText:   ".txt",
	}
	for mime, want := range cases {
		if got := extensionFor(mime); got != want {
			t.Errorf("extensionFor(%q) = %q, want %q", mime, got, want)
		}
	}
}
