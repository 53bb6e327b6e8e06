package utils

import (
	"bufio"
	"bytes"
	"log/slog"
	"strings"
)

// SentrySlogWriter redirects the sentry SDK's debug output to slog.
type SentrySlogWriter struct {
	logger *slog.Logger
}

func NewSentrySlogWriter(logger *slog.Logger) *SentrySlogWriter {
	return &SentrySlogWriter{logger: logger}
}

func (s *SentrySlogWriter) Write(p []byte) (n int, err error) {
	scanner := bufio.NewScanner(bytes.NewReader(p))
	for scanner.Scan() {
		line := strings.TrimPrefix(scanner.Text(), "[Sentry] ")
		s.logger.Debug(line)
	}
	return len(p), nil
}
