// Package docmerge merges structured records into reusable document templates.
// It replaces {fieldName} placeholders with record-derived, type-correctly
// formatted values and always produces a deliverable artifact, even when parts
// of the operation fail.
//
// Basic Usage:
//
//	engine := docmerge.New()
//
//	record := &docmerge.Record{
//	    ID: "rec123",
//	    Fields: map[string]any{
//	        "客户名称": "Acme",
//	        "金额":   map[string]any{"type": 2, "value": 1234.5},
//	    },
//	}
//
//	result, err := engine.Render(templateBytes, docmerge.KindFlowed, record, "contract")
//	if err != nil {
//	    log.Fatal(err) // only raised for inputs that were never valid
//	}
//
//	os.WriteFile("output.docx", result.Bytes, 0o644)
//
// Two template families are supported: flowed documents (docx-like, placeholders
// inside text runs) and grid documents (xlsx-like, placeholders inside cell
// text). Recoverable render failures never surface as errors; they yield a
// clearly labeled error report in the same file family instead, so the caller's
// file-handling path stays uniform.
package docmerge
