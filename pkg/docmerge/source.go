package docmerge

import "context"

// RecordSource supplies a record given its identifier, plus optional field
// metadata mapping storage keys to display names. Owned by the host platform;
// the engine only consumes it.
type RecordSource interface {
	GetRecord(ctx context.Context, recordID string) (*Record, FieldMeta, error)
}

// TemplateStore holds template bytes and accepts rendered artifacts for
// persistence.
type TemplateStore interface {
	GetTemplateBytes(ctx context.Context, ref string) ([]byte, error)
	PutArtifact(ctx context.Context, name string, data []byte, contentType string) (url string, err error)
}

// RecordUpdater writes a result URL back into the source record.
type RecordUpdater interface {
	SetResultURL(ctx context.Context, recordID, url string) error
}
