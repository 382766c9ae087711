package kernel

// Logger is injectable into the kernel so hosting code controls where
// diagnostics go (spec.md §4.11's non-fatal TileFull/AmbiguousCollision
// conditions are logged, never returned as errors). Shape matches achemdb's
// Logger interface.
type Logger interface {
	Debugf(format string, v ...any)
	Infof(format string, v ...any)
	Warnf(format string, v ...any)
	Errorf(format string, v ...any)
}

// NoOpLogger discards everything; the default for tests and for any
// Partition created without an explicit logger.
type NoOpLogger struct{}

func (NoOpLogger) Debugf(format string, v ...any) {}
func (NoOpLogger) Infof(format string, v ...any)  {}
func (NoOpLogger) Warnf(format string, v ...any)  {}
func (NoOpLogger) Errorf(format string, v ...any) {}

func NewNoOpLogger() Logger { return NoOpLogger{} }
