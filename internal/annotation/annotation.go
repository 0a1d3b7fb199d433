package annotation

import (
	"encoding/json"
	"fmt"
)

// Annotation is a time-bounded overlay record. Data is an opaque payload whose
// shape depends on Category.
type Annotation struct {
	Category    string         `json:"category" yaml:"category"`
	StartTimeMs float64        `json:"startTimeMs" yaml:"startTimeMs"`
	DurationMs  float64        `json:"durationMs" yaml:"durationMs"`
	Data        map[string]any `json:"data,omitempty" yaml:"data,omitempty"`
}

// New validates and returns an annotation.
func New(category string, startMs, durationMs float64, data map[string]any) (Annotation, error) {
	a := Annotation{
		Category:    category,
		StartTimeMs: startMs,
		DurationMs:  durationMs,
		Data:        data,
	}
	if err := a.Validate(); err != nil {
		return Annotation{}, err
	}
	return a, nil
}

// Validate fails for records that must never be admitted.
func (a Annotation) Validate() error {
	if a.Category == "" {
		return NewConstructionError("annotation.New", ErrMissingCategory)
	}
	return nil
}

// EndTimeMs returns the inclusive end of the time window.
func (a Annotation) EndTimeMs() float64 {
	return a.StartTimeMs + a.DurationMs
}

// ActiveAt reports whether t falls inside the closed window [start, start+duration].
func (a Annotation) ActiveAt(t float64) bool {
	return a.StartTimeMs <= t && t <= a.EndTimeMs()
}

// Style returns the per-annotation style override, if any.
func (a Annotation) Style() map[string]any {
	if a.Data == nil {
		return nil
	}
	if s, ok := a.Data["style"].(map[string]any); ok {
		return s
	}
	return nil
}

// DecodeData converts the opaque payload into a typed category schema. A
// record without data leaves v at its zero value.
func (a Annotation) DecodeData(v any) error {
	if a.Data == nil {
		return nil
	}
	raw, err := json.Marshal(a.Data)
	if err != nil {
		return fmt.Errorf("%s: encode data: %w", a.Category, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%s: decode data: %w", a.Category, err)
	}
	return nil
}

// Clone returns a copy whose payload map can be handed out without exposing the original.
func (a Annotation) Clone() Annotation {
	c := a
	c.Data = cloneMap(a.Data)
	return c
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneMap(t)
	case []any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = cloneValue(t[i])
		}
		return out
	default:
		return v
	}
}
