package system

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/inputkit/layoutc/pkg/control"
	"github.com/inputkit/layoutc/pkg/layout"
	"github.com/inputkit/layoutc/pkg/log"
	"github.com/inputkit/layoutc/pkg/merge"
	"github.com/inputkit/layoutc/pkg/pathquery"
	"github.com/inputkit/layoutc/pkg/registry"
	"github.com/inputkit/layoutc/pkg/statelayout"
)

// ErrUnknownDevice is returned for device ids the system does not hold.
var ErrUnknownDevice = errors.New("unknown device")

// Config configures a System.
type Config struct {
	// Builder builds device trees. Nil uses a builder with Settings.
	Builder *control.Builder

	// Settings are the value defaults for a default Builder.
	Settings *control.Settings

	// Strict reports manual and automatic placement overlaps as errors.
	Strict bool

	// Logger for debug output (optional).
	Logger *slog.Logger

	// Trace receives structured build and query events (optional).
	Trace log.Logger
}

// EventType classifies device events.
type EventType uint8

const (
	DeviceAdded EventType = iota
	DeviceRemoved
	DeviceRebuilt
)

func (t EventType) String() string {
	switch t {
	case DeviceAdded:
		return "ADDED"
	case DeviceRemoved:
		return "REMOVED"
	case DeviceRebuilt:
		return "REBUILT"
	default:
		return "UNKNOWN"
	}
}

// Event reports a change to the device set.
type Event struct {
	Type   EventType
	Device *control.Device
}

// EventHandler receives device events.
type EventHandler func(Event)

// System holds the devices built from one registry.
type System struct {
	mu sync.RWMutex

	reg     *registry.Registry
	builder *control.Builder
	matcher *pathquery.Matcher
	strict  bool
	devices []*control.Device

	// removed keeps the devices dropped by the last Removed change so a
	// rollback of that change can restore them.
	removed map[string][]*control.Device

	handlersMu sync.RWMutex
	handlers   []EventHandler

	logger *slog.Logger
	trace  log.Logger
	cancel func()
}

// New creates a system over reg and subscribes it to layout changes.
func New(reg *registry.Registry, cfg Config) *System {
	b := cfg.Builder
	if b == nil {
		var opts []control.BuilderOption
		if cfg.Settings != nil {
			opts = append(opts, control.WithSettings(cfg.Settings))
		}
		b = control.NewBuilder(opts...)
	}
	trace := log.OrNoop(cfg.Trace)
	s := &System{
		reg:     reg,
		builder: b,
		matcher: pathquery.NewMatcher(pathquery.WithLogger(trace)),
		strict:  cfg.Strict,
		removed: make(map[string][]*control.Device),
		logger:  cfg.Logger,
		trace:   trace,
	}
	s.cancel = reg.Subscribe(s)
	return s
}

// Close unsubscribes from the registry. Devices stay readable.
func (s *System) Close() {
	s.cancel()
}

// Registry returns the registry the system builds from.
func (s *System) Registry() *registry.Registry {
	return s.reg
}

// Settings returns the value defaults devices read.
func (s *System) Settings() *control.Settings {
	return s.builder.Settings()
}

// OnEvent registers a handler for device events.
func (s *System) OnEvent(h EventHandler) {
	s.handlersMu.Lock()
	defer s.handlersMu.Unlock()
	s.handlers = append(s.handlers, h)
}

func (s *System) emit(events []Event) {
	s.handlersMu.RLock()
	handlers := append([]EventHandler(nil), s.handlers...)
	s.handlersMu.RUnlock()
	for _, ev := range events {
		for _, h := range handlers {
			h(ev)
		}
	}
}

func (s *System) debugLog(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}

// AddDevice builds a device from the named layout. The device is named
// after its layout, with a numeric suffix when that name is taken.
func (s *System) AddDevice(layoutName string) (*control.Device, error) {
	return s.addDevice(layoutName, layout.Descriptor{})
}

// AddDeviceFromDescriptor picks a layout for desc and builds a device from
// it. Override hooks come first, then device matchers, then a layout named
// after the descriptor's device class.
func (s *System) AddDeviceFromDescriptor(desc layout.Descriptor) (*control.Device, error) {
	name, ok := s.reg.FindMatchingLayout(desc)
	if !ok && desc.DeviceClass != "" {
		if _, found := s.reg.Lookup(desc.DeviceClass); found {
			name, ok = desc.DeviceClass, true
		}
	}
	if !ok {
		return nil, fmt.Errorf("%w: no layout matches device %q (interface %q, class %q)",
			layout.ErrUnknownLayout, desc.Product, desc.Interface, desc.DeviceClass)
	}
	return s.addDevice(name, desc)
}

func (s *System) addDevice(layoutName string, desc layout.Descriptor) (*control.Device, error) {
	var dev *control.Device
	err := s.reg.Read(func(src registry.Source) error {
		s.mu.Lock()
		defer s.mu.Unlock()
		var err error
		dev, err = s.build(src, layoutName, uuid.New(), desc, "", false)
		if err != nil {
			return err
		}
		s.devices = append(s.devices, dev)
		return nil
	})
	if err != nil {
		s.trace.Log(log.NewErrorEvent(log.LayerBuild, layoutName, "add device", err))
		return nil, err
	}
	s.debugLog("device added", "device", dev.Name(), "layout", dev.Layout(), "id", dev.ID())
	s.emit([]Event{{Type: DeviceAdded, Device: dev}})
	return dev, nil
}

// build resolves, lays out and builds a device. An empty name picks a
// free name derived from the layout. Callers hold s.mu.
func (s *System) build(src registry.Source, layoutName string, id uuid.UUID, desc layout.Descriptor, name string, rebuild bool) (*control.Device, error) {
	res := merge.NewResolver(src)
	eff, err := res.Resolve(layoutName)
	if err != nil {
		return nil, err
	}
	tree, err := statelayout.Assign(res, eff, statelayout.Options{Strict: s.strict})
	if err != nil {
		return nil, err
	}
	if name == "" {
		name = s.uniqueName(eff.Name)
	}
	dev, err := s.builder.Build(tree, control.WithID(id), control.WithDescriptor(desc), control.WithName(name))
	if err != nil {
		return nil, err
	}
	s.trace.Log(log.Event{
		Timestamp: time.Now(),
		Layer:     log.LayerBuild,
		Category:  log.CategoryBuild,
		Layout:    eff.Name,
		DeviceID:  id.String(),
		Build: &log.BuildEvent{
			Device:    name,
			Controls:  tree.Count(),
			StateSize: tree.SizeInBytes,
			Rebuild:   rebuild,
		},
	})
	return dev, nil
}

func (s *System) uniqueName(base string) string {
	name := base
	for n := 1; s.deviceNamed(name) != nil; n++ {
		name = base + strconv.Itoa(n)
	}
	return name
}

func (s *System) deviceNamed(name string) *control.Device {
	for _, d := range s.devices {
		if strings.EqualFold(d.Name(), name) {
			return d
		}
	}
	return nil
}

// RemoveDevice removes the device with the given id and detaches its state.
func (s *System) RemoveDevice(id uuid.UUID) error {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownDevice, id)
	}
	dev := s.devices[i]
	s.devices = append(s.devices[:i:i], s.devices[i+1:]...)
	s.mu.Unlock()

	dev.Detach()
	s.debugLog("device removed", "device", dev.Name(), "id", id)
	s.emit([]Event{{Type: DeviceRemoved, Device: dev}})
	return nil
}

func (s *System) indexOf(id uuid.UUID) int {
	for i, d := range s.devices {
		if d.ID() == id {
			return i
		}
	}
	return -1
}

// Devices returns the devices in the order they were added.
func (s *System) Devices() []*control.Device {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*control.Device(nil), s.devices...)
}

// Device returns the device with the given name.
func (s *System) Device(name string) (*control.Device, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d := s.deviceNamed(name)
	return d, d != nil
}

// DeviceByID returns the device with the given id.
func (s *System) DeviceByID(id uuid.UUID) (*control.Device, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexOf(id); i >= 0 {
		return s.devices[i], true
	}
	return nil, false
}

// UpdateState copies data into the state buffer attached to a device.
func (s *System) UpdateState(id uuid.UUID, data []byte) error {
	dev, ok := s.DeviceByID(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownDevice, id)
	}
	return dev.UpdateState(data)
}

// GetControls returns the controls of all devices matching a path query.
func (s *System) GetControls(query string) ([]control.Control, error) {
	return s.matcher.Match(query, s.Devices())
}
