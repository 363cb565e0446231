// Package service wires the render engine to its external collaborators:
// record source, template store, and the write-back of result URLs. It is thin
// I/O plumbing around the engine.
package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/lalalabude/go-docmerge/internal/objstore"
	"github.com/lalalabude/go-docmerge/pkg/docmerge"
)

const artifactPrefix = "render"

// RenderService fetches a record and a template, renders, persists the
// artifact, and writes the result URL back to the record.
type RenderService struct {
	engine  *docmerge.Engine
	records docmerge.RecordSource
	store   docmerge.TemplateStore
	updater docmerge.RecordUpdater
	logger  *zap.Logger
	clock   func() time.Time
}

// New assembles a service. updater may be nil when no write-back is wanted;
// logger may be nil.
func New(engine *docmerge.Engine, records docmerge.RecordSource, store docmerge.TemplateStore, updater docmerge.RecordUpdater, logger *zap.Logger) *RenderService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RenderService{
		engine:  engine,
		records: records,
		store:   store,
		updater: updater,
		logger:  logger,
		clock:   time.Now,
	}
}

// Output describes a persisted render artifact.
type Output struct {
	Name     string
	URL      string
	MimeType string
	Size     int
}

// RenderRecord runs one record through one template. Callers wanting bounded
// latency impose a deadline on ctx; a context error here counts as a fetch
// failure, before any rendering starts.
func (s *RenderService) RenderRecord(ctx context.Context, templateRef string, kind docmerge.TemplateKind, recordID, templateName string) (*Output, error) {
	rec, meta, err := s.records.GetRecord(ctx, recordID)
	if err != nil {
		return nil, fmt.Errorf("fetch record %s: %w", recordID, err)
	}

	templateBytes, err := s.store.GetTemplateBytes(ctx, templateRef)
	if err != nil {
		return nil, fmt.Errorf("fetch template %s: %w", templateRef, err)
	}

	result, err := s.engine.RenderWithMeta(templateBytes, kind, rec, meta, templateName)
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", templateName, err)
	}

	name := objstore.ArtifactName(artifactPrefix, extensionFor(result.MimeType), s.clock())
	url, err := s.store.PutArtifact(ctx, name, result.Bytes, result.MimeType)
	if err != nil {
		return nil, fmt.Errorf("store artifact %s: %w", name, err)
	}

	if s.updater != nil {
		// A failed write-back does not undo a successful render.
		if err := s.updater.SetResultURL(ctx, recordID, url); err != nil {
			s.logger.Warn("result url write-back failed",
				zap.String("record", recordID),
				zap.String("url", url),
				zap.Error(err))
		}
	}

	s.logger.Info("record rendered",
		zap.String("record", recordID),
		zap.String("template", templateName),
		zap.String("artifact", name),
		zap.Int("size", len(result.Bytes)))

	return &Output{
		Name:     name,
		URL:      url,
		MimeType: result.MimeType,
		Size:     len(result.Bytes),
	}, nil
}

func extensionFor(mimeType string) string {
	switch mimeType {
	case docmerge.MimeGrid:
		return ".xlsx"
	case docmerge.MimeText:
		return ".txt"
	default:
		return ".docx"
	}
}
