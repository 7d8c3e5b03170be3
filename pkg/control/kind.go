package control

import (
	"fmt"
	"strings"
	"sync"

	"github.com/inputkit/layoutc/pkg/layout"
)

// Kind is the closed set of control behaviors.
type Kind uint8

const (
	KindDevice Kind = iota
	KindButton
	KindDiscreteButton
	KindAxis
	KindStick
	KindDpad
	KindVector2
	KindCompound
)

// String returns the canonical type name of the kind.
func (k Kind) String() string {
	switch k {
	case KindDevice:
		return "device"
	case KindButton:
		return "button"
	case KindDiscreteButton:
		return "discreteButton"
	case KindAxis:
		return "axis"
	case KindStick:
		return "stick"
	case KindDpad:
		return "dpad"
	case KindVector2:
		return "vector2"
	case KindCompound:
		return "compound"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// HasFloatValue reports whether controls of the kind read as a float.
func (k Kind) HasFloatValue() bool {
	switch k {
	case KindButton, KindDiscreteButton, KindAxis:
		return true
	}
	return false
}

// HasVectorValue reports whether controls of the kind read as a Vector2.
func (k Kind) HasVectorValue() bool {
	switch k {
	case KindStick, KindDpad, KindVector2:
		return true
	}
	return false
}

// KindRegistry maps layout type names to kinds.
type KindRegistry struct {
	mu    sync.RWMutex
	kinds map[string]Kind
}

// NewKindRegistry returns a registry holding the canonical name of every
// kind plus the common synonyms "key" and "analog".
func NewKindRegistry() *KindRegistry {
	r := &KindRegistry{kinds: make(map[string]Kind)}
	for k := KindDevice; k <= KindCompound; k++ {
		r.Register(k.String(), k)
	}
	r.Register("key", KindButton)
	r.Register("analog", KindAxis)
	return r
}

// Register maps a type name to a kind, replacing any previous mapping.
func (r *KindRegistry) Register(name string, k Kind) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.kinds[strings.ToLower(name)] = k
}

// Lookup returns the kind for a type name.
func (r *KindRegistry) Lookup(name string) (Kind, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	k, ok := r.kinds[strings.ToLower(name)]
	if !ok {
		return 0, fmt.Errorf("%w: %q", layout.ErrUnknownControlType, name)
	}
	return k, nil
}
