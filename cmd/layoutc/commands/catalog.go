package commands

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/inputkit/layoutc/pkg/catalog"
)

// RunCatalogImport stores the layouts in the given files and directories
// in the catalog at dbPath.
func RunCatalogImport(ctx context.Context, dbPath string, paths []string, w io.Writer) error {
	c, err := catalog.Open(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open catalog: %w", err)
	}
	defer c.Close()

	count := 0
	for _, p := range paths {
		descs, err := readLayouts(p)
		if err != nil {
			return err
		}
		for _, d := range descs {
			if err := c.Save(ctx, d); err != nil {
				return fmt.Errorf("failed to store %s: %w", d.Name, err)
			}
			count++
		}
	}
	fmt.Fprintf(w, "Imported %d layout(s) into %s\n", count, dbPath)
	return nil
}

// RunCatalogList prints the layouts stored in the catalog at dbPath.
func RunCatalogList(ctx context.Context, dbPath string, w io.Writer) error {
	c, err := catalog.Open(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open catalog: %w", err)
	}
	defer c.Close()

	entries, err := c.List(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%-5s %-24s %-24s %s\n", "SEQ", "NAME", "EXTENDS", "UPDATED")
	for _, e := range entries {
		fmt.Fprintf(w, "%-5d %-24s %-24s %s\n", e.Seq, e.Name, e.Extends, e.UpdatedAt.UTC().Format(time.RFC3339))
	}
	fmt.Fprintf(w, "%d layout(s)\n", len(entries))
	return nil
}
