package log

import (
	"context"
	"log/slog"
)

// SlogAdapter writes trace events to an slog.Logger.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates a new SlogAdapter that writes to the given slog.Logger.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger}
}

// Log writes the event to the slog logger at Debug level.
func (a *SlogAdapter) Log(event Event) {
	attrs := []slog.Attr{
		slog.String("layer", event.Layer.String()),
		slog.String("category", event.Category.String()),
	}
	if event.Layout != "" {
		attrs = append(attrs, slog.String("layout", event.Layout))
	}
	if event.DeviceID != "" {
		attrs = append(attrs, slog.String("device_id", event.DeviceID))
	}

	switch {
	case event.Change != nil:
		attrs = append(attrs,
			slog.String("change", event.Change.Kind),
			slog.Uint64("seq", event.Change.Sequence),
		)
		if event.Change.RolledBack {
			attrs = append(attrs, slog.Bool("rolled_back", true))
		}
	case event.Build != nil:
		attrs = append(attrs,
			slog.String("device", event.Build.Device),
			slog.Int("controls", event.Build.Controls),
			slog.Uint64("state_size", uint64(event.Build.StateSize)),
			slog.Bool("rebuild", event.Build.Rebuild),
		)
	case event.Query != nil:
		attrs = append(attrs,
			slog.String("path", event.Query.Path),
			slog.Int("matches", event.Query.Matches),
		)
	case event.Error != nil:
		attrs = append(attrs,
			slog.String("error_layer", event.Error.Layer.String()),
			slog.String("error_msg", event.Error.Message),
			slog.String("error_context", event.Error.Context),
		)
	}

	a.logger.LogAttrs(context.Background(), slog.LevelDebug, "trace", attrs...)
}

// Compile-time interface satisfaction check.
var _ Logger = (*SlogAdapter)(nil)
