package docmerge

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// TemplateKind names the two supported template families.
type TemplateKind string

const (
	// KindFlowed is the paragraph/run-based family (docx-like).
	KindFlowed TemplateKind = "flowed"
	// KindGrid is the sheet/cell-based family (xlsx-like).
	KindGrid TemplateKind = "grid"
)

// MIME types of the artifacts a render call can produce.
const (
	MimeFlowed = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MimeGrid   = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	MimeText   = "text/plain; charset=utf-8"
)

func (k TemplateKind) valid() bool {
	return k == KindFlowed || k == KindGrid
}

// MimeType returns the content type of the kind's real rendered output.
func (k TemplateKind) MimeType() string {
	if k == KindGrid {
		return MimeGrid
	}
	return MimeFlowed
}

// RenderResult is the deliverable of a render call: either the real rendered
// document or a fallback artifact of the same family.
type RenderResult struct {
	Bytes    []byte
	MimeType string
}

type renderFunc func(templateBytes []byte, rec *Record, meta FieldMeta, templateName string) ([]byte, error)

// Engine is the render dispatcher. Rendering is stateless per call except for
// the shared cache, so one Engine serves concurrent callers.
type Engine struct {
	config    *Config
	cache     RenderCache
	formatter *Formatter
	clock     func() time.Time

	// renderer indirection; tests swap these to count invocations and to
	// force failures
	flowedFn renderFunc
	gridFn   renderFunc
}

// Option configures an Engine.
type Option func(*Engine)

// WithConfig sets the engine configuration.
func WithConfig(config *Config) Option {
	return func(e *Engine) { e.config = config }
}

// WithCache injects a RenderCache instance, e.g. a RedisCache or an isolated
// cache for tests.
func WithCache(cache RenderCache) Option {
	return func(e *Engine) { e.cache = cache }
}

// WithNumericFields overrides the set of field names whose values keep their
// native numeric type.
func WithNumericFields(names ...string) Option {
	return func(e *Engine) { e.formatter = NewFormatter(names) }
}

// New creates an engine. Without options it loads configuration from the
// environment and uses an in-process FIFO cache.
func New(opts ...Option) *Engine {
	e := &Engine{clock: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	if e.config == nil {
		e.config = ConfigFromEnvironment()
	}
	if e.formatter == nil {
		e.formatter = NewFormatter(e.config.NumericFields)
	}
	if e.cache == nil && e.config.RedisURL != "" {
		cache, err := NewRedisCache(e.config.RedisURL, e.config.CacheTTL)
		if err != nil {
			Logger().Warn("redis cache unavailable, using in-process cache", zap.Error(err))
		} else {
			e.cache = cache
		}
	}
	if e.cache == nil && e.config.CacheMaxSize > 0 {
		e.cache = NewFIFOCache(e.config.CacheMaxSize)
	}
	e.flowedFn = e.renderFlowed
	e.gridFn = e.renderGrid
	return e
}

// Render merges a record into a template and returns an artifact. For a
// structurally valid template+record pair it never returns an error: any
// recoverable failure yields a same-family fallback artifact instead. Errors
// are reserved for inputs that were never valid.
func (e *Engine) Render(templateBytes []byte, kind TemplateKind, rec *Record, templateName string) (*RenderResult, error) {
	return e.RenderWithMeta(templateBytes, kind, rec, nil, templateName)
}

// RenderWithMeta is Render with field metadata, letting placeholders reference
// fields by display name as well as storage key.
func (e *Engine) RenderWithMeta(templateBytes []byte, kind TemplateKind, rec *Record, meta FieldMeta, templateName string) (*RenderResult, error) {
	if len(templateBytes) == 0 {
		return nil, &InvalidInputError{Message: "template bytes are empty"}
	}
	if !kind.valid() {
		return nil, &InvalidInputError{Message: fmt.Sprintf("unknown template kind %q", kind)}
	}
	if rec == nil {
		return nil, &InvalidInputError{Message: "record is nil"}
	}

	key := CacheKey(templateBytes, templateName, rec.ID)
	if e.cache != nil {
		if output, ok := e.cache.Get(key); ok {
			Logger().Debug("render cache hit",
				zap.String("template", templateName),
				zap.String("record", rec.ID))
			return &RenderResult{Bytes: output, MimeType: kind.MimeType()}, nil
		}
	}

	var output []byte
	var err error
	switch kind {
	case KindGrid:
		output, err = e.gridFn(templateBytes, rec, meta, templateName)
	default:
		output, err = e.flowedFn(templateBytes, rec, meta, templateName)
	}

	if err != nil {
		var structural *TemplateStructureError
		if errors.As(err, &structural) {
			// The input was never parseable; there is nothing to fall back
			// from.
			return nil, err
		}
		Logger().Warn("render failed, producing fallback artifact",
			zap.String("template", templateName),
			zap.String("record", rec.ID),
			zap.Error(err))
		fallbackBytes, mime := e.reportFallback(rec, err, templateName, kind)
		return &RenderResult{Bytes: fallbackBytes, MimeType: mime}, nil
	}

	if e.cache != nil {
		e.cache.Put(key, output)
	}
	return &RenderResult{Bytes: output, MimeType: kind.MimeType()}, nil
}
