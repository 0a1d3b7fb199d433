package annotation

import (
	"encoding/json"
	"fmt"
	"sort"
)

// CurrentVersion is written into manifests created by this package.
const CurrentVersion = "1.0"

// Manifest is a versioned collection of annotations grouped by category.
// Once handed to a coordinator it is treated as a read-only snapshot.
type Manifest struct {
	Version  string                  `json:"version" yaml:"version"`
	Metadata map[string]any          `json:"metadata,omitempty" yaml:"metadata,omitempty"`
	Items    map[string][]Annotation `json:"items" yaml:"items"`
}

// NewManifest creates an empty manifest.
func NewManifest() *Manifest {
	return &Manifest{
		Version: CurrentVersion,
		Items:   make(map[string][]Annotation),
	}
}

// Add appends a validated annotation under its category.
func (m *Manifest) Add(a Annotation) error {
	if err := a.Validate(); err != nil {
		return err
	}
	if m.Items == nil {
		m.Items = make(map[string][]Annotation)
	}
	m.Items[a.Category] = append(m.Items[a.Category], a)
	return nil
}

// Remove deletes the i-th annotation of a category. It reports whether
// anything was removed.
func (m *Manifest) Remove(category string, i int) bool {
	list, ok := m.Items[category]
	if !ok || i < 0 || i >= len(list) {
		return false
	}
	out := make([]Annotation, 0, len(list)-1)
	out = append(out, list[:i]...)
	out = append(out, list[i+1:]...)
	if len(out) == 0 {
		delete(m.Items, category)
	} else {
		m.Items[category] = out
	}
	return true
}

// Clear removes every annotation but keeps version and metadata.
func (m *Manifest) Clear() {
	m.Items = make(map[string][]Annotation)
}

// Len returns the total number of annotations.
func (m *Manifest) Len() int {
	n := 0
	for _, list := range m.Items {
		n += len(list)
	}
	return n
}

// Categories returns the category keys in sorted order.
func (m *Manifest) Categories() []string {
	cats := make([]string, 0, len(m.Items))
	for c := range m.Items {
		cats = append(cats, c)
	}
	sort.Strings(cats)
	return cats
}

// ByCategory returns a copy of the annotations stored under category.
func (m *Manifest) ByCategory(category string) []Annotation {
	list := m.Items[category]
	if len(list) == 0 {
		return nil
	}
	out := make([]Annotation, len(list))
	for i, a := range list {
		out[i] = a.Clone()
	}
	return out
}

// Active returns every annotation whose window covers t, grouped by category
// in Categories order.
func (m *Manifest) Active(t float64) []Annotation {
	var out []Annotation
	for _, c := range m.Categories() {
		out = append(out, ActiveAt(m.Items[c], t)...)
	}
	return out
}

// ActiveAt narrows list to the annotations active at t, preserving order.
func ActiveAt(list []Annotation, t float64) []Annotation {
	var out []Annotation
	for _, a := range list {
		if a.ActiveAt(t) {
			out = append(out, a)
		}
	}
	return out
}

// Extent returns the earliest start and latest end over all annotations.
func (m *Manifest) Extent() (startMs, endMs float64, ok bool) {
	for _, list := range m.Items {
		for _, a := range list {
			if !ok || a.StartTimeMs < startMs {
				startMs = a.StartTimeMs
			}
			if !ok || a.EndTimeMs() > endMs {
				endMs = a.EndTimeMs()
			}
			ok = true
		}
	}
	return startMs, endMs, ok
}

// Validate checks every record. A record with an empty category, or one filed
// under a different key, makes the whole manifest invalid.
func (m *Manifest) Validate() error {
	for key, list := range m.Items {
		if key == "" {
			return NewConstructionError("manifest", ErrMissingCategory)
		}
		for i, a := range list {
			if err := a.Validate(); err != nil {
				return NewConstructionError(fmt.Sprintf("manifest items[%s][%d]", key, i), ErrMissingCategory)
			}
			if a.Category != key {
				return NewConstructionError(fmt.Sprintf("manifest items[%s][%d]", key, i),
					fmt.Errorf("%w: %q", ErrCategoryKey, a.Category))
			}
		}
	}
	return nil
}

// ToMap serializes the manifest into a plain nested structure.
func (m *Manifest) ToMap() (map[string]any, error) {
	raw, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode manifest: %w", err)
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode manifest map: %w", err)
	}
	return out, nil
}

// FromMap builds a manifest from a plain nested structure and validates it.
func FromMap(in map[string]any) (*Manifest, error) {
	raw, err := json.Marshal(in)
	if err != nil {
		return nil, NewConstructionError("manifest.FromMap", err)
	}
	return DecodeJSON(raw)
}

// DecodeJSON parses and validates a JSON manifest.
func DecodeJSON(raw []byte) (*Manifest, error) {
	m := NewManifest()
	if err := json.Unmarshal(raw, m); err != nil {
		return nil, NewConstructionError("manifest.DecodeJSON", err)
	}
	return m.normalize()
}

func (m *Manifest) normalize() (*Manifest, error) {
	if m.Version == "" {
		m.Version = CurrentVersion
	}
	if m.Items == nil {
		m.Items = make(map[string][]Annotation)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}
