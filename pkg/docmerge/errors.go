package docmerge

import "fmt"

// InvalidInputError reports a render call whose top-level inputs were never
// valid: empty template bytes, an unknown template kind, or a missing record.
// These are fatal and propagated to the caller.
type InvalidInputError struct {
	Message string
}

func (e *InvalidInputError) Error() string {
	return "invalid input: " + e.Message
}

// TemplateStructureError reports template bytes that are not a valid archive or
// workbook for their declared kind. The input itself is unusable, so no
// fallback artifact is attempted.
type TemplateStructureError struct {
	Kind  TemplateKind
	Cause error
}

func (e *TemplateStructureError) Error() string {
	return fmt.Sprintf("template is not a valid %s document: %v", e.Kind, e.Cause)
}

func (e *TemplateStructureError) Unwrap() error {
	return e.Cause
}

// RenderError reports a failure while substituting placeholders into an
// otherwise valid template. The dispatcher recovers it locally by producing a
// fallback artifact; it never surfaces from Render.
type RenderError struct {
	Template string
	RecordID string
	Cause    error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render %q for record %q: %v", e.Template, e.RecordID, e.Cause)
}

func (e *RenderError) Unwrap() error {
	return e.Cause
}

func newRenderError(template, recordID string, cause error) *RenderError {
	return &RenderError{Template: template, RecordID: recordID, Cause: cause}
}

// RecoverError converts a panic recovery value to an error.
func RecoverError(r any) error {
	switch v := r.(type) {
	case error:
		return fmt.Errorf("panic recovered: %w", v)
	case string:
		return fmt.Errorf("panic recovered: %s", v)
	default:
		return fmt.Errorf("panic recovered: %v", v)
	}
}
