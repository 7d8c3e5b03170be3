// Command layoutc compiles declarative device layouts into control trees.
//
// Layouts come from the built-in set, the directories listed in the config
// file, and the files named on the command line.
//
// Usage:
//
//	layoutc <command> [flags] [args]
//
// Commands:
//
//	compile  Build a device and print its control table
//	query    Print the controls matching a path
//	match    Find the layout for a device descriptor
//	dump     Print the flattened form of a layout
//	shell    Interactive console
//	log      Inspect trace files (view, stats)
//	catalog  Store and list layouts in a catalog database (import, list)
//
// Examples:
//
//	# Compile the Gamepad layout and save the snapshot
//	layoutc compile -layout Gamepad -o gamepad.cbor
//
//	# Compile a custom layout on top of the built-ins
//	layoutc compile -layout MyPad ./layouts/mypad.yaml
//
//	# All south buttons of a gamepad
//	layoutc query -layout Gamepad '/<gamepad>/{PrimaryAction}'
//
//	# Show a trace file
//	layoutc log view -category build trace.cbor
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/inputkit/layoutc/cmd/layoutc/commands"
	"github.com/inputkit/layoutc/internal/config"
	"github.com/inputkit/layoutc/pkg/layout"
	"github.com/inputkit/layoutc/pkg/log"
)

const usage = `layoutc - Device Layout Compiler

Usage:
  layoutc <command> [flags] [args]

Commands:
  compile  Build a device and print its control table
  query    Print the controls matching a path
  match    Find the layout for a device descriptor
  dump     Print the flattened form of a layout
  shell    Interactive console
  log      Inspect trace files (view, stats)
  catalog  Store and list layouts in a catalog database (import, list)

Use "layoutc <command> -help" for more information about a command.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "compile":
		runCompile(args)
	case "query":
		runQuery(args)
	case "match":
		runMatch(args)
	case "dump":
		runDump(args)
	case "shell":
		runShell(args)
	case "log":
		runLog(args)
	case "catalog":
		runCatalog(args)
	case "-h", "-help", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

// newFlagSet creates a flag set carrying the -config flag.
func newFlagSet(name, synopsis string) (*flag.FlagSet, *string) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "layoutc %s\n\nUsage:\n  layoutc %s\n\nFlags:\n", name, synopsis)
		fs.PrintDefaults()
	}
	cfgPath := fs.String("config", "", "Config file (default: $LAYOUTC_CONFIG or ~/.config/layoutc/config.yaml)")
	return fs, cfgPath
}

// setup loads the config and builds the environment over paths.
func setup(cfgPath string, paths []string) *commands.Env {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fatal(err)
	}
	env, err := commands.NewEnv(cfg, paths, os.Stderr)
	if err != nil {
		fatal(err)
	}
	return env
}

func runCompile(args []string) {
	fs, cfgPath := newFlagSet("compile", "compile -layout NAME [-o snapshot.cbor] [file|dir]...")
	name := fs.String("layout", "", "Layout to compile (required)")
	output := fs.String("o", "", "Write the compiled snapshot to this file")
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if *name == "" {
		fmt.Fprintln(os.Stderr, "Error: -layout required")
		fs.Usage()
		os.Exit(1)
	}

	env := setup(*cfgPath, fs.Args())
	defer env.Close()
	if err := commands.RunCompile(env, *name, *output, os.Stdout); err != nil {
		fatal(err)
	}
}

func runQuery(args []string) {
	fs, cfgPath := newFlagSet("query", "query -layout NAME[,NAME...] [-load file|dir] PATH")
	var layouts, load stringsFlag
	fs.Var(&layouts, "layout", "Layout to build a device from (repeatable, required)")
	fs.Var(&load, "load", "Layout file or directory to register (repeatable)")
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if len(layouts) == 0 || fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: -layout and a path are required")
		fs.Usage()
		os.Exit(1)
	}

	env := setup(*cfgPath, load)
	defer env.Close()
	if err := commands.RunQuery(env, layouts, fs.Arg(0), os.Stdout); err != nil {
		fatal(err)
	}
}

func runMatch(args []string) {
	fs, cfgPath := newFlagSet("match", "match [-product P] [-manufacturer M] [-interface I] [-class C] [-version V] [file|dir]...")
	var desc layout.Descriptor
	fs.StringVar(&desc.Product, "product", "", "Product name")
	fs.StringVar(&desc.Manufacturer, "manufacturer", "", "Manufacturer name")
	fs.StringVar(&desc.Interface, "interface", "", "Interface name (HID, XInput, ...)")
	fs.StringVar(&desc.DeviceClass, "class", "", "Device class")
	fs.StringVar(&desc.Version, "version", "", "Device version")
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	env := setup(*cfgPath, fs.Args())
	defer env.Close()
	if err := commands.RunMatch(env.Registry, desc, os.Stdout); err != nil {
		fatal(err)
	}
}

func runDump(args []string) {
	fs, cfgPath := newFlagSet("dump", "dump -layout NAME [file|dir]...")
	name := fs.String("layout", "", "Layout to print (required)")
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if *name == "" {
		fmt.Fprintln(os.Stderr, "Error: -layout required")
		fs.Usage()
		os.Exit(1)
	}

	env := setup(*cfgPath, fs.Args())
	defer env.Close()
	if err := commands.RunDump(env.Registry, *name, os.Stdout); err != nil {
		fatal(err)
	}
}

func runShell(args []string) {
	fs, cfgPath := newFlagSet("shell", "shell [-catalog] [file|dir]...")
	useCatalog := fs.Bool("catalog", false, "Load layouts from the configured catalog and keep it updated")
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	env := setup(*cfgPath, fs.Args())
	defer env.Close()
	if *useCatalog {
		if _, err := env.AttachCatalog(context.Background(), env.Config.Catalog.Path); err != nil {
			fatal(err)
		}
	}
	if err := commands.RunShell(env); err != nil {
		fatal(err)
	}
}

func runLog(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: layoutc log <view|stats> [flags] <trace.cbor>")
		os.Exit(1)
	}
	switch args[0] {
	case "view":
		runLogView(args[1:])
	case "stats":
		runLogStats(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "Unknown log command: %s\n", args[0])
		os.Exit(1)
	}
}

func runLogView(args []string) {
	fs := flag.NewFlagSet("log view", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `layoutc log view - View trace file in human-readable format

Usage:
  layoutc log view [flags] <trace.cbor>

Flags:
`)
		fs.PrintDefaults()
	}

	layoutName := fs.String("layout", "", "Filter by layout name")
	deviceID := fs.String("device", "", "Filter by device ID")
	layer := fs.String("layer", "", "Filter by layer (registry, merge, layout, build, query)")
	category := fs.String("category", "", "Filter by category (change, build, query, error)")
	since := fs.String("since", "", "Only events at or after this RFC 3339 time")
	until := fs.String("until", "", "Only events before this RFC 3339 time")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: trace file path required")
		fs.Usage()
		os.Exit(1)
	}

	filter := log.Filter{Layout: *layoutName, DeviceID: *deviceID}

	if *layer != "" {
		l, err := commands.ParseLayerFlag(*layer)
		if err != nil {
			fatal(err)
		}
		filter.Layer = &l
	}

	if *category != "" {
		c, err := commands.ParseCategoryFlag(*category)
		if err != nil {
			fatal(err)
		}
		filter.Category = &c
	}

	if *since != "" {
		t, err := commands.ParseTimeFlag(*since)
		if err != nil {
			fatal(err)
		}
		filter.TimeStart = t
	}

	if *until != "" {
		t, err := commands.ParseTimeFlag(*until)
		if err != nil {
			fatal(err)
		}
		filter.TimeEnd = t
	}

	if err := commands.RunView(fs.Arg(0), filter, os.Stdout); err != nil {
		fatal(err)
	}
}

func runLogStats(args []string) {
	fs := flag.NewFlagSet("log stats", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: trace file path required")
		os.Exit(1)
	}
	if err := commands.RunStats(fs.Arg(0), os.Stdout); err != nil {
		fatal(err)
	}
}

func runCatalog(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: layoutc catalog <import|list> [flags] [args]")
		os.Exit(1)
	}
	sub := args[0]
	fs, cfgPath := newFlagSet("catalog "+sub, "catalog "+sub+" [-db path] [file|dir]...")
	db := fs.String("db", "", "Catalog database (default: catalog.path from the config)")
	if err := fs.Parse(args[1:]); err != nil {
		os.Exit(1)
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fatal(err)
	}
	if *db == "" {
		*db = cfg.Catalog.Path
	}

	ctx := context.Background()
	switch sub {
	case "import":
		if fs.NArg() == 0 {
			fmt.Fprintln(os.Stderr, "Error: layout files required")
			os.Exit(1)
		}
		err = commands.RunCatalogImport(ctx, *db, fs.Args(), os.Stdout)
	case "list":
		err = commands.RunCatalogList(ctx, *db, os.Stdout)
	default:
		fmt.Fprintf(os.Stderr, "Unknown catalog command: %s\n", sub)
		os.Exit(1)
	}
	if err != nil {
		fatal(err)
	}
}

// stringsFlag collects a repeatable string flag. Each value may hold a
// comma-separated list.
type stringsFlag []string

func (s *stringsFlag) String() string {
	return fmt.Sprint(*s)
}

func (s *stringsFlag) Set(v string) error {
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			*s = append(*s, part)
		}
	}
	return nil
}
