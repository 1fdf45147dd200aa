package logger

// ScopedLogger adds a fixed set of attributes to every record, ahead of the
// call's own arguments.
type ScopedLogger struct {
	inner Logger
	attrs []any
}

// With returns a logger that tags each record with attrs, given as slog.Attr
// values or alternating key/value pairs. Scopes nest: With(With(l, a), b)
// writes a then b.
func With(inner Logger, attrs ...any) *ScopedLogger {
	if s, ok := inner.(*ScopedLogger); ok {
		return &ScopedLogger{inner: s.inner, attrs: append(s.scope(), attrs...)}
	}
	return &ScopedLogger{inner: inner, attrs: attrs}
}

func (s *ScopedLogger) scope(args ...any) []any {
	out := make([]any, 0, len(s.attrs)+len(args))
	out = append(out, s.attrs...)
	return append(out, args...)
}

func (s *ScopedLogger) SetLogLevel(levelStr string) {
	s.inner.SetLogLevel(levelStr)
}

func (s *ScopedLogger) GetLogLevel() string {
	return s.inner.GetLogLevel()
}

func (s *ScopedLogger) Trace(msg string, args ...any) {
	s.inner.Trace(msg, s.scope(args...)...)
}

func (s *ScopedLogger) Debug(msg string, args ...any) {
	s.inner.Debug(msg, s.scope(args...)...)
}

func (s *ScopedLogger) Info(msg string, args ...any) {
	s.inner.Info(msg, s.scope(args...)...)
}

func (s *ScopedLogger) Warn(msg string, args ...any) {
	s.inner.Warn(msg, s.scope(args...)...)
}

func (s *ScopedLogger) Error(msg string, err error, args ...any) {
	s.inner.Error(msg, err, s.scope(args...)...)
}

func (s *ScopedLogger) Fatal(msg string, err error, args ...any) {
	s.inner.Fatal(msg, err, s.scope(args...)...)
}
