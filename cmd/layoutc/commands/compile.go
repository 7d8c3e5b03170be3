package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/inputkit/layoutc/pkg/control"
	"github.com/inputkit/layoutc/pkg/registry"
	"github.com/inputkit/layoutc/pkg/snapshot"
)

// RunCompile builds a device from the named layout, prints its control
// table and writes the snapshot to out when out is non-empty.
func RunCompile(env *Env, layoutName, out string, w io.Writer) error {
	dev, err := env.System.AddDevice(layoutName)
	if err != nil {
		return err
	}
	snap, err := takeSnapshot(env, dev)
	if err != nil {
		return err
	}

	printSnapshot(w, snap)

	if out != "" {
		if err := snapshot.WriteFile(out, snap); err != nil {
			return fmt.Errorf("failed to write snapshot: %w", err)
		}
		env.Logger.Info("snapshot written", "path", out, "controls", len(snap.Controls))
	}
	return nil
}

func takeSnapshot(env *Env, dev *control.Device) (*snapshot.Snapshot, error) {
	var snap *snapshot.Snapshot
	err := env.Registry.Read(func(src registry.Source) error {
		var err error
		snap, err = snapshot.FromDevice(dev, src)
		return err
	})
	return snap, err
}

// printSnapshot writes the header and control table of snap.
func printSnapshot(w io.Writer, snap *snapshot.Snapshot) {
	fmt.Fprintf(w, "Device:      %s\n", snap.Device)
	fmt.Fprintf(w, "Layout:      %s\n", snap.Layout)
	fmt.Fprintf(w, "State:       %s, %d bytes\n", snap.Format, snap.SizeInBytes)
	fmt.Fprintf(w, "Layouts:     %s\n", strings.Join(snap.Layouts, ", "))
	fmt.Fprintf(w, "Fingerprint: %s\n", snap.FingerprintHex())
	fmt.Fprintln(w)

	fmt.Fprintf(w, "%-36s %-16s %-15s %-5s %6s %3s %5s  %s\n",
		"PATH", "LAYOUT", "KIND", "FMT", "BYTE", "BIT", "BITS", "USAGES")
	for _, c := range snap.Controls[1:] {
		fmt.Fprintf(w, "%-36s %-16s %-15s %-5s %6d %3d %5d  %s\n",
			c.Path, c.Layout, c.Kind, c.Format, c.ByteOffset, c.BitOffset, c.SizeInBits,
			strings.Join(c.Usages, ","))
	}
}
