package log

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func TestEventCBORRoundTrip(t *testing.T) {
	ts := time.Date(2026, 1, 2, 3, 4, 5, 6, time.UTC)
	event := Event{
		Timestamp: ts,
		Layer:     LayerBuild,
		Category:  CategoryBuild,
		Layout:    "Gamepad",
		DeviceID:  "dev-1",
		Build:     &BuildEvent{Device: "Gamepad", Controls: 31, StateSize: 28, Rebuild: true},
	}

	data, err := EncodeEvent(event)
	if err != nil {
		t.Fatalf("EncodeEvent failed: %v", err)
	}
	decoded, err := DecodeEvent(data)
	if err != nil {
		t.Fatalf("DecodeEvent failed: %v", err)
	}

	if !decoded.Timestamp.Equal(ts) {
		t.Errorf("timestamp: got %v, want %v", decoded.Timestamp, ts)
	}
	if decoded.Layout != "Gamepad" || decoded.DeviceID != "dev-1" {
		t.Errorf("identity: got %q/%q", decoded.Layout, decoded.DeviceID)
	}
	if decoded.Build == nil {
		t.Fatal("build payload missing")
	}
	if *decoded.Build != *event.Build {
		t.Errorf("build: got %+v, want %+v", *decoded.Build, *event.Build)
	}
	if decoded.Change != nil || decoded.Query != nil || decoded.Error != nil {
		t.Error("unexpected payloads decoded")
	}
}

func TestLayerAndCategoryStrings(t *testing.T) {
	layers := map[Layer]string{
		LayerRegistry: "REGISTRY",
		LayerMerge:    "MERGE",
		LayerLayout:   "LAYOUT",
		LayerBuild:    "BUILD",
		LayerQuery:    "QUERY",
		Layer(99):     "UNKNOWN",
	}
	for l, want := range layers {
		if got := l.String(); got != want {
			t.Errorf("Layer(%d).String() = %q, want %q", l, got, want)
		}
	}

	categories := map[Category]string{
		CategoryChange: "CHANGE",
		CategoryBuild:  "BUILD",
		CategoryQuery:  "QUERY",
		CategoryError:  "ERROR",
		Category(42):   "UNKNOWN",
	}
	for c, want := range categories {
		if got := c.String(); got != want {
			t.Errorf("Category(%d).String() = %q, want %q", c, got, want)
		}
	}
}

func TestNewErrorEvent(t *testing.T) {
	e := NewErrorEvent(LayerMerge, "Foo", "resolve", errors.New("boom"))
	if e.Category != CategoryError || e.Layer != LayerMerge {
		t.Errorf("got layer %v category %v", e.Layer, e.Category)
	}
	if e.Error == nil || e.Error.Message != "boom" || e.Error.Context != "resolve" {
		t.Errorf("unexpected error payload %+v", e.Error)
	}
}

type recordingLogger struct {
	mu     sync.Mutex
	events []Event
}

func (r *recordingLogger) Log(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func TestMultiLoggerFansOut(t *testing.T) {
	a, b := &recordingLogger{}, &recordingLogger{}
	m := NewMultiLogger(a, nil, b)
	m.Log(Event{Layout: "x"})
	m.Log(Event{Layout: "y"})

	if len(a.events) != 2 || len(b.events) != 2 {
		t.Fatalf("got %d/%d events, want 2/2", len(a.events), len(b.events))
	}
}

func TestOrNoop(t *testing.T) {
	if _, ok := OrNoop(nil).(NoopLogger); !ok {
		t.Error("OrNoop(nil) should return NoopLogger")
	}
	r := &recordingLogger{}
	if OrNoop(r) != Logger(r) {
		t.Error("OrNoop should return non-nil logger unchanged")
	}
}

func TestSlogAdapterLogsChangeEvent(t *testing.T) {
	var buf bytes.Buffer
	handler := slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	adapter := NewSlogAdapter(slog.New(handler))

	adapter.Log(Event{
		Timestamp: time.Now(),
		Layer:     LayerRegistry,
		Category:  CategoryChange,
		Layout:    "Stick",
		Change:    &ChangeEvent{Kind: "REPLACED", Sequence: 7},
	})

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse log output: %v", err)
	}
	if entry["layer"] != "REGISTRY" {
		t.Errorf("layer: got %v", entry["layer"])
	}
	if entry["layout"] != "Stick" {
		t.Errorf("layout: got %v", entry["layout"])
	}
	if entry["change"] != "REPLACED" {
		t.Errorf("change: got %v", entry["change"])
	}
	if entry["seq"] != float64(7) {
		t.Errorf("seq: got %v", entry["seq"])
	}
}

func createTestTraceFile(t *testing.T, events []Event) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.ltrace")

	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("failed to create trace file: %v", err)
	}
	for _, e := range events {
		logger.Log(e)
	}
	if err := logger.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	// Close is idempotent and later events are dropped.
	logger.Log(Event{Layout: "late"})
	if err := logger.Close(); err != nil {
		t.Fatalf("second Close failed: %v", err)
	}
	return path
}

func readAll(t *testing.T, r *Reader) []Event {
	t.Helper()
	var out []Event
	for {
		e, err := r.Next()
		if err == io.EOF {
			return out
		}
		if err != nil {
			t.Fatalf("Next failed: %v", err)
		}
		out = append(out, e)
	}
}

func TestFileLoggerAndReader(t *testing.T) {
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	path := createTestTraceFile(t, []Event{
		{Timestamp: base, Layer: LayerRegistry, Category: CategoryChange, Layout: "Gamepad", Change: &ChangeEvent{Kind: "ADDED", Sequence: 1}},
		{Timestamp: base.Add(time.Second), Layer: LayerBuild, Category: CategoryBuild, Layout: "Gamepad", DeviceID: "d1", Build: &BuildEvent{Device: "Gamepad", Controls: 3}},
		{Timestamp: base.Add(2 * time.Second), Layer: LayerQuery, Category: CategoryQuery, Layout: "Mouse", Query: &QueryEvent{Path: "/*/{Submit}", Matches: 1}},
	})

	if info, err := os.Stat(path); err != nil || info.Size() == 0 {
		t.Fatalf("trace file missing or empty: %v", err)
	}

	r, err := NewReader(path)
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}
	all := readAll(t, r)
	r.Close()
	if len(all) != 3 {
		t.Fatalf("got %d events, want 3", len(all))
	}
	if all[2].Query == nil || all[2].Query.Path != "/*/{Submit}" {
		t.Errorf("query payload: %+v", all[2].Query)
	}

	tests := []struct {
		name   string
		filter Filter
		want   int
	}{
		{"by layout", Filter{Layout: "gamepad"}, 2},
		{"by device", Filter{DeviceID: "d1"}, 1},
		{"by layer", Filter{Layer: ptr(LayerQuery)}, 1},
		{"by category", Filter{Category: ptr(CategoryChange)}, 1},
		{"by time", Filter{TimeStart: ptr(base.Add(time.Second)), TimeEnd: ptr(base.Add(2 * time.Second))}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewFilteredReader(path, tt.filter)
			if err != nil {
				t.Fatalf("NewFilteredReader failed: %v", err)
			}
			defer r.Close()
			if got := len(readAll(t, r)); got != tt.want {
				t.Errorf("got %d events, want %d", got, tt.want)
			}
		})
	}
}

func ptr[T any](v T) *T { return &v }

func TestFileLoggerReportsWriteFailure(t *testing.T) {
	logger, err := NewFileLogger(filepath.Join(t.TempDir(), "broken.ltrace"))
	if err != nil {
		t.Fatalf("NewFileLogger failed: %v", err)
	}
	logger.f.Close()

	logger.Log(Event{Layout: "lost"})
	logger.Log(Event{Layout: "dropped"})

	err = logger.Close()
	if !errors.Is(err, os.ErrClosed) {
		t.Fatalf("Close: got %v, want an error wrapping os.ErrClosed", err)
	}
	if err := logger.Close(); err != nil {
		t.Errorf("second Close: got %v, want nil", err)
	}
}
