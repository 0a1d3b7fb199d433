package renderer

import (
	"errors"
	"fmt"
	"log"
	"sort"

	"github.com/ivlev/overlay2video/internal/annotation"
)

// Built-in categories.
const (
	CategoryDetection   = "detection"
	CategoryTrajectory  = "trajectory"
	CategoryCalibration = "calibration"
	CategoryTelemetry   = "telemetry"
	CategoryText        = "text"
	CategoryChart       = "chart"
	CategoryQRCode      = "qrcode"
)

// ErrUnknownCategory is returned when no factory is registered for a category.
var ErrUnknownCategory = errors.New("unknown renderer category")

// Factory builds a renderer for category from that category's annotations.
type Factory func(category string, items []annotation.Annotation, logger *log.Logger) Renderer

// Registry maps category names to factories. A Registry is immutable once
// built, so one value can be shared by any number of coordinators.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry copies factories into a new registry.
func NewRegistry(factories map[string]Factory) *Registry {
	m := make(map[string]Factory, len(factories))
	for k, f := range factories {
		if f != nil {
			m[k] = f
		}
	}
	return &Registry{factories: m}
}

// DefaultRegistry registers every built-in renderer under its category name.
func DefaultRegistry() *Registry {
	return NewRegistry(map[string]Factory{
		CategoryDetection:   NewBoundingBoxRenderer,
		CategoryTrajectory:  NewTrajectoryRenderer,
		CategoryCalibration: NewCalibrationRenderer,
		CategoryTelemetry:   NewTelemetryRenderer,
		CategoryText:        NewTextRenderer,
		CategoryChart:       NewChartRenderer,
		CategoryQRCode:      NewQRCodeRenderer,
	})
}

// With returns a copy of r with f registered for category.
func (r *Registry) With(category string, f Factory) *Registry {
	m := make(map[string]Factory, len(r.factories)+1)
	for k, v := range r.factories {
		m[k] = v
	}
	m[category] = f
	return NewRegistry(m)
}

// Lookup returns the factory for category.
func (r *Registry) Lookup(category string) (Factory, bool) {
	if r == nil {
		return nil, false
	}
	f, ok := r.factories[category]
	return f, ok
}

// Categories lists registered categories in sorted order.
func (r *Registry) Categories() []string {
	if r == nil {
		return nil
	}
	out := make([]string, 0, len(r.factories))
	for k := range r.factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// New builds the renderer for category.
func (r *Registry) New(category string, items []annotation.Annotation, logger *log.Logger) (Renderer, error) {
	f, ok := r.Lookup(category)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCategory, category)
	}
	return f(category, items, loggerOrDefault(logger)), nil
}
