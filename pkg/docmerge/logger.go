package docmerge

import (
	"sync"

	"go.uber.org/zap"
)

var (
	loggerMu sync.RWMutex
	pkgLog   = zap.NewNop()
)

// Logger returns the package logger. It is a no-op logger until SetLogger is
// called.
func Logger() *zap.Logger {
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	return pkgLog
}

// SetLogger replaces the package logger. Passing nil restores the no-op
// logger.
func SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	loggerMu.Lock()
	pkgLog = l
	loggerMu.Unlock()
}
