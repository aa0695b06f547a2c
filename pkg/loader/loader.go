// Package loader fetches raw text content from source locations (web pages)
// and normalizes it for downstream chunking and embedding.
package loader

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// ErrFetch marks a per-source fetch failure.
var ErrFetch = errors.New("fetch failed")

// RawDocument is the cleaned text of a single source. Blank lines are removed.
type RawDocument struct {
	Source string
	Title  string
	Text   string
}

// SourceError records a failed source during a batch load.
type SourceError struct {
	Source string
	Err    error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("source %s: %v", e.Source, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }

// Fetcher retrieves the raw content of a single source.
type Fetcher interface {
	Fetch(ctx context.Context, source string) (title, text string, err error)
}

// Loader turns a list of source identifiers into RawDocuments.
type Loader struct {
	fetcher Fetcher
	logger  *zap.Logger
}

// NewLoader creates a Loader backed by the given fetcher.
func NewLoader(fetcher Fetcher, loggers ...*zap.Logger) *Loader {
	var logger *zap.Logger
	if len(loggers) > 0 && loggers[0] != nil {
		logger = loggers[0]
	} else {
		logger = zap.NewNop()
	}
	return &Loader{fetcher: fetcher, logger: logger}
}

// Load fetches every source in order. A failed source is skipped and recorded;
// the remaining sources are still loaded, so the returned documents may be a
// partial result. Callers inspect the returned SourceErrors for failures.
func (l *Loader) Load(ctx context.Context, sources []string) ([]RawDocument, []*SourceError) {
	var docs []RawDocument
	var failed []*SourceError

	for _, src := range sources {
		title, text, err := l.fetcher.Fetch(ctx, src)
		if err != nil {
			l.logger.Warn("skipping source",
				zap.String("source", src),
				zap.Error(err))
			failed = append(failed, &SourceError{Source: src, Err: fmt.Errorf("%w: %v", ErrFetch, err)})
			continue
		}
		docs = append(docs, RawDocument{
			Source: src,
			Title:  title,
			Text:   normalize(text),
		})
		l.logger.Debug("loaded source", zap.String("source", src), zap.Int("chars", len(text)))
	}

	return docs, failed
}

// normalize strips blank lines and per-line surrounding whitespace.
func normalize(s string) string {
	var b strings.Builder
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)
	}
	return b.String()
}
