package system

import (
	"fmt"
	"strings"

	"github.com/inputkit/layoutc/pkg/control"
	"github.com/inputkit/layoutc/pkg/log"
	"github.com/inputkit/layoutc/pkg/registry"
)

// OnLayoutChange keeps devices in step with the registry. It runs under
// the registry's write lock.
func (s *System) OnLayoutChange(ev registry.ChangeEvent) error {
	events, err := s.apply(ev)
	if err != nil {
		s.trace.Log(log.NewErrorEvent(log.LayerBuild, ev.Name, "rebuild after "+ev.Kind.String(), err))
		s.debugLog("layout change rejected", "layout", ev.Name, "change", ev.Kind, "error", err)
		return err
	}
	s.emit(events)
	return nil
}

func (s *System) apply(ev registry.ChangeEvent) ([]Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := strings.ToLower(ev.Name)
	if !ev.RollingBack {
		clear(s.removed)
	}

	var (
		own      []*control.Device
		affected []*control.Device
	)
	for _, d := range s.devices {
		switch {
		case ev.Kind == registry.Removed && strings.EqualFold(d.Layout(), ev.Name):
			own = append(own, d)
		case d.DependsOn(ev.Name):
			affected = append(affected, d)
		}
	}

	var events []Event
	if ev.Kind == registry.Added && ev.RollingBack {
		for _, d := range s.removed[k] {
			s.devices = append(s.devices, d)
			events = append(events, Event{Type: DeviceAdded, Device: d})
		}
		delete(s.removed, k)
	}

	if ev.Kind != registry.Added || ev.RollingBack {
		rebuilt, err := s.rebuild(ev.Source, affected)
		if err != nil {
			if !ev.RollingBack {
				return nil, err
			}
			s.debugLog("rollback rebuild failed", "layout", ev.Name, "error", err)
			rebuilt, affected = nil, nil
		}
		for i, d := range affected {
			d.Replace(rebuilt[i])
			events = append(events, Event{Type: DeviceRebuilt, Device: d})
		}
	}

	if len(own) > 0 {
		kept := s.devices[:0]
		for _, d := range s.devices {
			if !containsDevice(own, d) {
				kept = append(kept, d)
			}
		}
		clear(s.devices[len(kept):])
		s.devices = kept
		s.removed[k] = own
		for _, d := range own {
			events = append(events, Event{Type: DeviceRemoved, Device: d})
		}
	}
	return events, nil
}

// rebuild builds a replacement for every device without touching any.
func (s *System) rebuild(src registry.Source, devs []*control.Device) ([]*control.Device, error) {
	out := make([]*control.Device, len(devs))
	for i, d := range devs {
		next, err := s.build(src, d.Layout(), d.ID(), d.Descriptor(), d.Name(), true)
		if err != nil {
			return nil, fmt.Errorf("rebuilding device %s: %w", d.Name(), err)
		}
		out[i] = next
	}
	return out, nil
}

func containsDevice(list []*control.Device, d *control.Device) bool {
	for _, x := range list {
		if x == d {
			return true
		}
	}
	return false
}
