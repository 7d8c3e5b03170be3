package registry

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/agnivade/levenshtein"

	"github.com/inputkit/layoutc/pkg/layout"
	"github.com/inputkit/layoutc/pkg/log"
)

// ChangeKind tags a registry mutation.
type ChangeKind uint8

const (
	// Added means a new name was registered.
	Added ChangeKind = iota
	// Replaced means an existing name was registered again.
	Replaced
	// Removed means a name was removed.
	Removed
)

// String returns the change kind name.
func (k ChangeKind) String() string {
	switch k {
	case Added:
		return "ADDED"
	case Replaced:
		return "REPLACED"
	case Removed:
		return "REMOVED"
	default:
		return "UNKNOWN"
	}
}

// inverse returns the change that undoes k.
func (k ChangeKind) inverse() ChangeKind {
	switch k {
	case Added:
		return Removed
	case Removed:
		return Added
	default:
		return Replaced
	}
}

// Source resolves layout names to descriptions.
type Source interface {
	Lookup(name string) (*layout.Description, bool)
}

// ChangeEvent describes one registry mutation.
type ChangeEvent struct {
	// Name of the layout that changed, as registered.
	Name string

	Kind ChangeKind

	// Old is the previous description (nil for Added, or when it came
	// from a builder that never ran).
	Old *layout.Description

	// New is the current description (nil for Removed and for layout
	// builders). Use Load on Source to obtain a built layout.
	New *layout.Description

	// Source reflects the registry after the change. It must only be used
	// for the duration of the callback.
	Source Source

	// RollingBack is set when the event undoes a change a later listener
	// rejected. Errors returned for rollback events are ignored.
	RollingBack bool
}

// Listener receives registry changes.
type Listener interface {
	OnLayoutChange(event ChangeEvent) error
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(event ChangeEvent) error

// OnLayoutChange calls f.
func (f ListenerFunc) OnLayoutChange(event ChangeEvent) error {
	return f(event)
}

// OverrideHook may force a layout for a descriptor. A non-empty result is
// used verbatim.
type OverrideHook func(desc layout.Descriptor) string

// BuilderFunc produces a layout on demand. It must not call back into the
// registry.
type BuilderFunc func() (*layout.Description, error)

type entry struct {
	name string
	seq  uint64
	desc *layout.Description
	lazy *lazyLayout
}

// load returns the entry's description, running its builder if needed.
func (e entry) load() (*layout.Description, error) {
	if e.lazy == nil {
		return e.desc, nil
	}
	return e.lazy.get(e.name)
}

// built returns the description if one is available without building.
func (e entry) built() *layout.Description {
	if e.lazy == nil {
		return e.desc
	}
	e.lazy.mu.Lock()
	defer e.lazy.mu.Unlock()
	return e.lazy.desc
}

// lazyLayout runs a builder once it succeeds; failures are retried on the
// next load.
type lazyLayout struct {
	mu    sync.Mutex
	build BuilderFunc
	desc  *layout.Description
}

func (l *lazyLayout) get(name string) (*layout.Description, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.desc != nil {
		return l.desc, nil
	}
	desc, err := l.build()
	if err != nil {
		return nil, fmt.Errorf("building layout %s: %w", name, err)
	}
	if desc == nil {
		return nil, fmt.Errorf("%w: builder for %s returned no layout", layout.ErrInvalidLayout, name)
	}
	l.desc = desc.Clone()
	l.desc.Name = name
	return l.desc, nil
}

type subscription struct {
	id       uint64
	listener Listener
}

// Registry stores layout descriptions by case-insensitive name.
type Registry struct {
	mu sync.RWMutex

	entries   map[string]entry
	seq       uint64
	listeners []subscription
	nextSubID uint64
	hooks     []OverrideHook
	logger    log.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the trace logger.
func WithLogger(l log.Logger) Option {
	return func(r *Registry) {
		r.logger = log.OrNoop(l)
	}
}

// New creates an empty registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		entries: make(map[string]entry),
		logger:  log.NoopLogger{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func key(name string) string {
	return strings.ToLower(name)
}

// Register stores desc, replacing any layout of the same name. The registry
// keeps its own copy. If a listener rejects the change, the previous state
// is restored and the listener's error returned.
func (r *Registry) Register(desc *layout.Description) error {
	if desc == nil || strings.TrimSpace(desc.Name) == "" {
		return fmt.Errorf("%w: layout without name", layout.ErrInvalidLayout)
	}
	stored := desc.Clone()
	return r.put(entry{name: stored.Name, desc: stored})
}

// RegisterBuilder stores a layout that fn produces the first time the
// layout is looked up. The built layout takes name as its name. Like
// Register, it replaces any layout of the same name and notifies
// listeners; the event carries no New description.
func (r *Registry) RegisterBuilder(name string, fn BuilderFunc) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: layout builder without name", layout.ErrInvalidLayout)
	}
	if fn == nil {
		return fmt.Errorf("%w: nil builder for layout %s", layout.ErrInvalidLayout, name)
	}
	return r.put(entry{name: name, lazy: &lazyLayout{build: fn}})
}

func (r *Registry) put(e entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := key(e.name)
	old, existed := r.entries[k]
	kind := Added
	if existed {
		kind = Replaced
	}

	r.seq++
	e.seq = r.seq
	r.entries[k] = e

	ev := ChangeEvent{Name: e.name, Kind: kind, New: e.desc, Source: view{r}}
	if existed {
		ev.Old = old.built()
	}
	if err := r.notify(ev, func() {
		if existed {
			r.entries[k] = old
		} else {
			delete(r.entries, k)
		}
	}); err != nil {
		return fmt.Errorf("registering layout %s: %w", e.name, err)
	}
	return nil
}

// Remove deletes the named layout.
func (r *Registry) Remove(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := key(name)
	old, ok := r.entries[k]
	if !ok {
		return r.unknown(name)
	}
	delete(r.entries, k)

	ev := ChangeEvent{Name: old.name, Kind: Removed, Old: old.built(), Source: view{r}}
	if err := r.notify(ev, func() { r.entries[k] = old }); err != nil {
		return fmt.Errorf("removing layout %s: %w", old.name, err)
	}
	return nil
}

// notify delivers ev to every listener in order. On the first failure it
// calls undo and delivers the inverse change to the listeners that had
// already accepted ev. Callers hold the write lock.
func (r *Registry) notify(ev ChangeEvent, undo func()) error {
	for i, sub := range r.listeners {
		err := sub.listener.OnLayoutChange(ev)
		if err == nil {
			continue
		}

		undo()
		inv := ChangeEvent{
			Name:        ev.Name,
			Kind:        ev.Kind.inverse(),
			Old:         ev.New,
			New:         ev.Old,
			Source:      ev.Source,
			RollingBack: true,
		}
		for j := i - 1; j >= 0; j-- {
			_ = r.listeners[j].listener.OnLayoutChange(inv)
		}
		r.trace(ev, true)
		r.logger.Log(log.NewErrorEvent(log.LayerRegistry, ev.Name, ev.Kind.String(), err))
		return err
	}
	r.trace(ev, false)
	return nil
}

func (r *Registry) trace(ev ChangeEvent, rolledBack bool) {
	r.logger.Log(log.Event{
		Timestamp: time.Now(),
		Layer:     log.LayerRegistry,
		Category:  log.CategoryChange,
		Layout:    ev.Name,
		Change:    &log.ChangeEvent{Kind: ev.Kind.String(), Sequence: r.seq, RolledBack: rolledBack},
	})
}

// Subscribe adds a listener and returns a function that removes it.
func (r *Registry) Subscribe(l Listener) (cancel func()) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextSubID++
	id := r.nextSubID
	r.listeners = append(r.listeners, subscription{id: id, listener: l})
	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		for i, sub := range r.listeners {
			if sub.id == id {
				r.listeners = append(r.listeners[:i:i], r.listeners[i+1:]...)
				return
			}
		}
	}
}

// AddOverrideHook registers a hook consulted by FindMatchingLayout before
// device matchers. Hooks run in registration order; the first non-empty
// answer wins.
func (r *Registry) AddOverrideHook(h OverrideHook) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hooks = append(r.hooks, h)
}

// Lookup returns the named layout. A layout whose builder fails is
// reported as missing; Get returns the builder's error.
func (r *Registry) Lookup(name string) (*layout.Description, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return view{r}.Lookup(name)
}

// Get returns the named layout or an ErrUnknownLayout error carrying
// name suggestions.
func (r *Registry) Get(name string) (*layout.Description, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return view{r}.Get(name)
}

// Sequence returns the registration sequence number of the named layout,
// or 0 when it is not registered.
func (r *Registry) Sequence(name string) uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.entries[key(name)].seq
}

// Names returns the registered names, sorted case-insensitively.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return view{r}.Names()
}

// Len returns the number of registered layouts.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Read runs fn with a consistent view of the registry. Mutations wait until
// fn returns. fn must not mutate the registry.
func (r *Registry) Read(fn func(src Source) error) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return fn(view{r})
}

// FindMatchingLayout resolves a descriptor to a layout name. Override hooks
// are consulted first; otherwise, among layouts whose matcher accepts the
// descriptor, the most recently registered wins.
func (r *Registry) FindMatchingLayout(desc layout.Descriptor) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, h := range r.hooks {
		if name := h(desc); name != "" {
			return name, true
		}
	}

	var (
		best    string
		bestSeq uint64
	)
	for _, e := range r.entries {
		if e.seq <= bestSeq {
			continue
		}
		d, err := e.load()
		if err != nil {
			r.logger.Log(log.NewErrorEvent(log.LayerRegistry, e.name, "match", err))
			continue
		}
		if d.Matcher.Matches(desc) {
			best, bestSeq = e.name, e.seq
		}
	}
	return best, bestSeq > 0
}

// Suggest returns up to three registered names close to name.
func (r *Registry) Suggest(name string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.suggest(name)
}

func (r *Registry) suggest(name string) []string {
	type candidate struct {
		name string
		dist int
	}
	target := key(name)
	limit := max(2, len(target)/3)

	var cands []candidate
	for k, e := range r.entries {
		d := levenshtein.ComputeDistance(target, k)
		if d <= limit {
			cands = append(cands, candidate{e.name, d})
		}
	}
	sort.Slice(cands, func(i, j int) bool {
		if cands[i].dist != cands[j].dist {
			return cands[i].dist < cands[j].dist
		}
		return key(cands[i].name) < key(cands[j].name)
	})
	if len(cands) > 3 {
		cands = cands[:3]
	}
	out := make([]string, len(cands))
	for i, c := range cands {
		out[i] = c.name
	}
	return out
}

func (r *Registry) unknown(name string) error {
	return UnknownLayoutError(name, r.suggest(name))
}

type getter interface {
	Get(name string) (*layout.Description, error)
}

type suggester interface {
	Suggest(name string) []string
}

// Load returns the named layout from src. Errors from layout builders are
// passed through; a missing layout yields an ErrUnknownLayout error with
// suggestions when src offers them.
func Load(src Source, name string) (*layout.Description, error) {
	if g, ok := src.(getter); ok {
		return g.Get(name)
	}
	if desc, ok := src.Lookup(name); ok {
		return desc, nil
	}
	var suggestions []string
	if s, ok := src.(suggester); ok {
		suggestions = s.Suggest(name)
	}
	return nil, UnknownLayoutError(name, suggestions)
}

// UnknownLayoutError builds an ErrUnknownLayout error for name, mentioning
// suggestions when there are any.
func UnknownLayoutError(name string, suggestions []string) error {
	if len(suggestions) == 0 {
		return fmt.Errorf("%w: %q", layout.ErrUnknownLayout, name)
	}
	return fmt.Errorf("%w: %q (did you mean %s?)", layout.ErrUnknownLayout, name, strings.Join(suggestions, ", "))
}

// view reads the registry without locking. It is handed to listeners,
// which run under the write lock, and used by the locked accessors.
type view struct {
	r *Registry
}

func (v view) Lookup(name string) (*layout.Description, bool) {
	e, ok := v.r.entries[key(name)]
	if !ok {
		return nil, false
	}
	desc, err := e.load()
	return desc, err == nil
}

func (v view) Get(name string) (*layout.Description, error) {
	e, ok := v.r.entries[key(name)]
	if !ok {
		return nil, v.r.unknown(name)
	}
	return e.load()
}

func (v view) Names() []string {
	names := make([]string, 0, len(v.r.entries))
	for _, e := range v.r.entries {
		names = append(names, e.name)
	}
	sort.Slice(names, func(i, j int) bool { return key(names[i]) < key(names[j]) })
	return names
}

func (v view) Suggest(name string) []string {
	return v.r.suggest(name)
}
