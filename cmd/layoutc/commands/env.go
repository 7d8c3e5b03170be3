// Package commands implements the layoutc CLI commands.
package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"github.com/inputkit/layoutc/internal/config"
	"github.com/inputkit/layoutc/pkg/builtin"
	"github.com/inputkit/layoutc/pkg/catalog"
	"github.com/inputkit/layoutc/pkg/layout"
	"github.com/inputkit/layoutc/pkg/layoutfile"
	"github.com/inputkit/layoutc/pkg/log"
	"github.com/inputkit/layoutc/pkg/registry"
	"github.com/inputkit/layoutc/pkg/system"
)

// Env is the registry and device system a command runs against.
type Env struct {
	Config   config.Config
	Registry *registry.Registry
	System   *system.System
	Logger   *slog.Logger

	trace   *log.FileLogger
	catalog *catalog.Catalog
	unsub   func()
}

// NewEnv creates a registry holding the built-in layouts, the layouts in
// the configured directories and the given files or directories, and a
// device system over it.
func NewEnv(cfg config.Config, paths []string, stderr io.Writer) (*Env, error) {
	logger := cfg.NewLogger(stderr)
	loggers := []log.Logger{log.NewSlogAdapter(logger)}

	env := &Env{Config: cfg, Logger: logger}
	if cfg.Log.TraceFile != "" {
		fl, err := log.NewFileLogger(cfg.Log.TraceFile)
		if err != nil {
			return nil, fmt.Errorf("failed to open trace file: %w", err)
		}
		env.trace = fl
		loggers = append(loggers, fl)
	}
	trace := log.NewMultiLogger(loggers...)

	reg, err := builtin.NewRegistry(registry.WithLogger(trace))
	if err != nil {
		env.Close()
		return nil, err
	}
	env.Registry = reg

	if err := env.Load(slices.Concat(cfg.Layouts.Dirs, paths)...); err != nil {
		env.Close()
		return nil, err
	}

	env.System = system.New(reg, system.Config{
		Settings: cfg.Settings(),
		Logger:   logger,
		Trace:    trace,
	})
	return env, nil
}

// Load registers the layouts in the given files and directories.
func (e *Env) Load(paths ...string) error {
	_, err := e.LoadNames(paths...)
	return err
}

// LoadNames is Load returning the names it registered.
func (e *Env) LoadNames(paths ...string) ([]string, error) {
	var names []string
	for _, p := range paths {
		descs, err := readLayouts(p)
		if err != nil {
			return names, err
		}
		for _, d := range descs {
			if err := e.Registry.Register(d); err != nil {
				return names, err
			}
			names = append(names, d.Name)
		}
		e.Logger.Debug("layouts loaded", "path", p, "count", len(descs))
	}
	return names, nil
}

func readLayouts(path string) ([]*layout.Description, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return layoutfile.LoadDir(path)
	}
	return layoutfile.Load(path)
}

// AttachCatalog loads the layouts stored in the catalog at path and keeps
// the catalog in step with later registry changes.
func (e *Env) AttachCatalog(ctx context.Context, path string) (int, error) {
	c, err := catalog.Open(path)
	if err != nil {
		return 0, err
	}
	n, err := c.LoadInto(ctx, e.Registry)
	if err != nil {
		c.Close()
		return 0, err
	}
	e.catalog = c
	e.unsub = e.Registry.Subscribe(c.Listener())
	e.Logger.Info("catalog attached", "path", path, "layouts", n)
	return n, nil
}

// Close releases the system, the catalog and the trace file.
func (e *Env) Close() {
	if e.System != nil {
		e.System.Close()
	}
	if e.unsub != nil {
		e.unsub()
	}
	if e.catalog != nil {
		e.catalog.Close()
	}
	if e.trace != nil {
		e.trace.Close()
	}
}
