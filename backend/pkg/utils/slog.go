package utils

import (
	"log/slog"
	"strings"
)

// SlogWriter adapts a slog.Logger to io.Writer so libraries that expect a
// plain writer can log through slog. Each non-empty line becomes one record.
type SlogWriter struct {
	logger *slog.Logger
}

// NewSlogWriter creates a new SlogWriter wrapping the given logger.
func NewSlogWriter(logger *slog.Logger) *SlogWriter {
	return &SlogWriter{logger: logger}
}

func (w *SlogWriter) Write(p []byte) (int, error) {
	for line := range strings.SplitSeq(strings.TrimRight(string(p), "\n"), "\n") {
		if line == "" {
			continue
		}

		w.logger.Info(line)
	}

	return len(p), nil
}

// ErrAttr returns a slog attribute for an error under the "error" key.
func ErrAttr(err error) slog.Attr {
	return slog.Any("error", err)
}

// SlogReplacer normalizes time and duration attributes to compact strings.
func SlogReplacer(_ []string, a slog.Attr) slog.Attr {
	switch a.Value.Kind() {
	case slog.KindTime:
		return slog.String(a.Key, a.Value.Time().Format("2006-01-02 15:04:05"))
	case slog.KindDuration:
		return slog.String(a.Key, a.Value.Duration().String())
	default:
		return a
	}
}

// LogOnError runs fn and logs msg with the returned error, if any.
// Intended for deferred cleanup calls.
func LogOnError(l *slog.Logger, fn func() error, msg string) {
	if err := fn(); err != nil {
		l.Error(msg, ErrAttr(err))
	}
}
