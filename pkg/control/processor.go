package control

import (
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/inputkit/layoutc/pkg/layout"
)

// Processor is one stage of a control's value pipeline.
type Processor interface {
	Name() string
	ProcessFloat(v float64, c Control) float64
	ProcessVector2(v Vector2, c Control) Vector2
}

// ProcessorFactory creates a processor from its parameters.
type ProcessorFactory func(params layout.Parameters, settings *Settings) (Processor, error)

// ProcessorRegistry maps processor names to factories.
type ProcessorRegistry struct {
	mu        sync.RWMutex
	factories map[string]ProcessorFactory
}

// NewProcessorRegistry returns a registry holding the built-in processors:
// deadzone, invert, clamp, normalize and scale.
func NewProcessorRegistry() *ProcessorRegistry {
	r := &ProcessorRegistry{factories: make(map[string]ProcessorFactory)}
	r.Register("deadzone", newDeadzone)
	r.Register("stickDeadzone", newDeadzone)
	r.Register("axisDeadzone", newDeadzone)
	r.Register("invert", newInvert)
	r.Register("clamp", newClamp)
	r.Register("normalize", newNormalize)
	r.Register("scale", newScale)
	return r
}

// Register adds or replaces a factory.
func (r *ProcessorRegistry) Register(name string, f ProcessorFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[strings.ToLower(name)] = f
}

// Create instantiates the processor described by spec.
func (r *ProcessorRegistry) Create(spec layout.ProcessorSpec, settings *Settings) (Processor, error) {
	r.mu.RLock()
	f, ok := r.factories[strings.ToLower(spec.Name)]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", layout.ErrUnknownProcessor, spec.Name)
	}
	return f(spec.Parameters, settings)
}

// deadzone maps magnitudes below min to zero and above max to one,
// rescaling the range between. Unset bounds follow the settings.
type deadzone struct {
	params   layout.Parameters
	settings *Settings
}

func newDeadzone(params layout.Parameters, settings *Settings) (Processor, error) {
	return &deadzone{params: params, settings: settings}, nil
}

func (d *deadzone) Name() string { return "deadzone" }

func (d *deadzone) bounds() (float64, float64) {
	min, max := d.settings.Deadzone()
	return d.params.Float("min", min), d.params.Float("max", max)
}

func (d *deadzone) ProcessFloat(v float64, _ Control) float64 {
	min, max := d.bounds()
	abs := math.Abs(v)
	switch {
	case abs < min:
		return 0
	case abs > max:
		return math.Copysign(1, v)
	default:
		return math.Copysign((abs-min)/(max-min), v)
	}
}

func (d *deadzone) ProcessVector2(v Vector2, _ Control) Vector2 {
	min, max := d.bounds()
	m := v.Magnitude()
	switch {
	case m < min:
		return Vector2{}
	case m > max:
		return v.Normalized()
	default:
		return v.Normalized().Scale((m - min) / (max - min))
	}
}

type invert struct {
	x, y bool
}

func newInvert(params layout.Parameters, _ *Settings) (Processor, error) {
	return &invert{x: params.Bool("invertX", true), y: params.Bool("invertY", true)}, nil
}

func (p *invert) Name() string { return "invert" }

func (p *invert) ProcessFloat(v float64, _ Control) float64 { return -v }

func (p *invert) ProcessVector2(v Vector2, _ Control) Vector2 {
	if p.x {
		v.X = -v.X
	}
	if p.y {
		v.Y = -v.Y
	}
	return v
}

type clamp struct {
	min, max float64
}

func newClamp(params layout.Parameters, _ *Settings) (Processor, error) {
	p := &clamp{min: params.Float("min", 0), max: params.Float("max", 1)}
	if p.min > p.max {
		return nil, fmt.Errorf("%w: clamp min %g above max %g", layout.ErrInvalidLayout, p.min, p.max)
	}
	return p, nil
}

func (p *clamp) Name() string { return "clamp" }

func (p *clamp) ProcessFloat(v float64, _ Control) float64 {
	return math.Min(math.Max(v, p.min), p.max)
}

func (p *clamp) ProcessVector2(v Vector2, c Control) Vector2 {
	return Vector2{X: p.ProcessFloat(v.X, c), Y: p.ProcessFloat(v.Y, c)}
}

type normalize struct {
	min, max, zero float64
}

func newNormalize(params layout.Parameters, _ *Settings) (Processor, error) {
	p := &normalize{
		min:  params.Float("min", 0),
		max:  params.Float("max", 1),
		zero: params.Float("zero", math.Inf(-1)),
	}
	if p.min == p.max {
		return nil, fmt.Errorf("%w: normalize range is empty", layout.ErrInvalidLayout)
	}
	return p, nil
}

func (p *normalize) Name() string { return "normalize" }

func (p *normalize) ProcessFloat(v float64, _ Control) float64 {
	return normalizeValue(v, p.min, p.max, p.zero)
}

func (p *normalize) ProcessVector2(v Vector2, c Control) Vector2 {
	return Vector2{X: p.ProcessFloat(v.X, c), Y: p.ProcessFloat(v.Y, c)}
}

// normalizeValue maps [min,max] to [0,1], or to [-1,1] when zero lies
// above min.
func normalizeValue(v, min, max, zero float64) float64 {
	if zero < min {
		zero = min
	}
	p := (v - min) / (max - min)
	if zero > min {
		return 2*p - 1
	}
	return p
}

type scale struct {
	x, y float64
}

func newScale(params layout.Parameters, _ *Settings) (Processor, error) {
	f := params.Float("factor", 1)
	return &scale{x: params.Float("x", f), y: params.Float("y", f)}, nil
}

func (p *scale) Name() string { return "scale" }

func (p *scale) ProcessFloat(v float64, _ Control) float64 { return v * p.x }

func (p *scale) ProcessVector2(v Vector2, _ Control) Vector2 {
	return Vector2{X: v.X * p.x, Y: v.Y * p.y}
}
