package commands

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/inputkit/layoutc/pkg/log"
)

// formatEvent writes a human-readable representation of the event to w.
func formatEvent(w io.Writer, event log.Event) {
	// Header line: timestamp [dev:id] LAYER Category layout
	ts := event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z")
	fmt.Fprintf(w, "%s [dev:%s] %-8s %-6s %s\n",
		ts, shortenID(event.DeviceID), event.Layer, event.Category, event.Layout)

	switch {
	case event.Change != nil:
		fmt.Fprintf(w, "  Change: %s (seq %d)", event.Change.Kind, event.Change.Sequence)
		if event.Change.RolledBack {
			fmt.Fprint(w, " rolled back")
		}
		fmt.Fprintln(w)
	case event.Build != nil:
		verb := "Built"
		if event.Build.Rebuild {
			verb = "Rebuilt"
		}
		fmt.Fprintf(w, "  %s: %s, %d controls, %d bytes\n",
			verb, event.Build.Device, event.Build.Controls, event.Build.StateSize)
	case event.Query != nil:
		fmt.Fprintf(w, "  Query: %s -> %d match(es)\n", event.Query.Path, event.Query.Matches)
	case event.Error != nil:
		fmt.Fprintf(w, "  Layer: %s\n", event.Error.Layer)
		fmt.Fprintf(w, "  Message: %s\n", event.Error.Message)
		if event.Error.Context != "" {
			fmt.Fprintf(w, "  Context: %s\n", event.Error.Context)
		}
	}

	fmt.Fprintln(w) // Blank line between events
}

// shortenID returns the first 8 characters of a device ID, or "-".
func shortenID(id string) string {
	switch {
	case id == "":
		return "-"
	case len(id) >= 8:
		return id[:8]
	default:
		return id
	}
}

// ParseLayerFlag parses a layer string from command-line flag (case-insensitive).
func ParseLayerFlag(s string) (log.Layer, error) {
	for _, l := range []log.Layer{log.LayerRegistry, log.LayerMerge, log.LayerLayout, log.LayerBuild, log.LayerQuery} {
		if strings.EqualFold(s, l.String()) {
			return l, nil
		}
	}
	return 0, fmt.Errorf("invalid layer: %s (must be registry, merge, layout, build, or query)", s)
}

// ParseCategoryFlag parses a category string from command-line flag (case-insensitive).
func ParseCategoryFlag(s string) (log.Category, error) {
	for _, c := range []log.Category{log.CategoryChange, log.CategoryBuild, log.CategoryQuery, log.CategoryError} {
		if strings.EqualFold(s, c.String()) {
			return c, nil
		}
	}
	return 0, fmt.Errorf("invalid category: %s (must be change, build, query, or error)", s)
}

// ParseTimeFlag parses an RFC 3339 timestamp.
func ParseTimeFlag(s string) (*time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, fmt.Errorf("invalid time: %s (must be RFC 3339)", s)
	}
	return &t, nil
}

// RunView executes the log view command.
func RunView(path string, filter log.Filter, output io.Writer) error {
	reader, err := log.NewFilteredReader(path, filter)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		formatEvent(output, event)
	}

	return nil
}
