package events

import (
	"context"
	"log/slog"
)

// LogSink writes events to the structured log. It is the default sink and
// doubles as a readable audit feed in development.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink creates a LogSink on the given logger.
func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger.With("system", "events")}
}

func (s *LogSink) Publish(ctx context.Context, e Event) error {
	attrs := []any{
		"kind", e.Kind,
		"author", e.Author,
		"occurred_on", e.OccurredOn,
	}
	if e.DocumentID != nil {
		attrs = append(attrs, "document_id", *e.DocumentID)
	}
	if e.DefinitionName != "" {
		attrs = append(attrs, "definition", e.DefinitionName)
	}
	if len(e.Patch) > 0 {
		attrs = append(attrs, "operations", len(e.Patch))
	}

	s.logger.Info("event published", attrs...)
	return nil
}
