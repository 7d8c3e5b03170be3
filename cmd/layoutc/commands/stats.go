package commands

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/inputkit/layoutc/pkg/log"
)

// Stats holds aggregate statistics about a trace file.
type Stats struct {
	TotalEvents      int
	EventsByLayer    map[log.Layer]int
	EventsByCategory map[log.Category]int
	Layouts          map[string]*LayoutStats
	Builds           int
	Rebuilds         int
	RolledBack       int
	Errors           int
	TimeRange        struct {
		Start time.Time
		End   time.Time
	}
}

// LayoutStats holds statistics for a single layout.
type LayoutStats struct {
	Changes int
	Builds  int
	Errors  int
}

// RunStats analyzes the trace file and prints statistics.
func RunStats(path string, w io.Writer) error {
	reader, err := log.NewReader(path)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	stats := &Stats{
		EventsByLayer:    make(map[log.Layer]int),
		EventsByCategory: make(map[log.Category]int),
		Layouts:          make(map[string]*LayoutStats),
	}

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}

		stats.TotalEvents++
		stats.EventsByLayer[event.Layer]++
		stats.EventsByCategory[event.Category]++

		if stats.TimeRange.Start.IsZero() || event.Timestamp.Before(stats.TimeRange.Start) {
			stats.TimeRange.Start = event.Timestamp
		}
		if event.Timestamp.After(stats.TimeRange.End) {
			stats.TimeRange.End = event.Timestamp
		}

		var ls *LayoutStats
		if event.Layout != "" {
			k := strings.ToLower(event.Layout)
			ls = stats.Layouts[k]
			if ls == nil {
				ls = &LayoutStats{}
				stats.Layouts[k] = ls
			}
		}

		switch {
		case event.Change != nil:
			if event.Change.RolledBack {
				stats.RolledBack++
			}
			if ls != nil {
				ls.Changes++
			}
		case event.Build != nil:
			stats.Builds++
			if event.Build.Rebuild {
				stats.Rebuilds++
			}
			if ls != nil {
				ls.Builds++
			}
		case event.Error != nil:
			stats.Errors++
			if ls != nil {
				ls.Errors++
			}
		}
	}

	printStats(w, stats)
	return nil
}

func printStats(w io.Writer, stats *Stats) {
	fmt.Fprintln(w, "=== Layout Compiler Trace Statistics ===")
	fmt.Fprintln(w)

	if stats.TotalEvents > 0 {
		fmt.Fprintf(w, "Time Range: %s to %s\n",
			stats.TimeRange.Start.Format(time.RFC3339),
			stats.TimeRange.End.Format(time.RFC3339))
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Total Events: %d\n", stats.TotalEvents)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Layer:")
	for _, layer := range []log.Layer{log.LayerRegistry, log.LayerMerge, log.LayerLayout, log.LayerBuild, log.LayerQuery} {
		if count := stats.EventsByLayer[layer]; count > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", layer.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Category:")
	for _, cat := range []log.Category{log.CategoryChange, log.CategoryBuild, log.CategoryQuery, log.CategoryError} {
		if count := stats.EventsByCategory[cat]; count > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", cat.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Builds: %d (%d rebuilds)\n", stats.Builds, stats.Rebuilds)
	if stats.RolledBack > 0 {
		fmt.Fprintf(w, "Rolled back changes: %d\n", stats.RolledBack)
	}

	fmt.Fprintf(w, "Layouts: %d\n", len(stats.Layouts))
	names := make([]string, 0, len(stats.Layouts))
	for name := range stats.Layouts {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		ls := stats.Layouts[name]
		fmt.Fprintf(w, "  %-24s changes=%d builds=%d errors=%d\n", name, ls.Changes, ls.Builds, ls.Errors)
	}

	if stats.Errors > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Errors: %d\n", stats.Errors)
	}
}
