package renderer

import (
	"log"

	"github.com/ivlev/overlay2video/internal/annotation"
	"github.com/ivlev/overlay2video/internal/canvas"
	"github.com/ivlev/overlay2video/internal/geometry"
)

// Renderer draws the annotations of exactly one category.
//
// A renderer receives its subset once, at construction, and must narrow it to
// the records active at nowMs on every call, since one category can hold many
// time-disjoint records.
type Renderer interface {
	Category() string
	DefaultOptions() Options
	Render(dc canvas.Context, nowMs float64, rect geometry.Rect) error
}

// entry is one decoded annotation with its resolved style.
type entry[T any] struct {
	ann  annotation.Annotation
	data T
	opts Options
}

// decodeAll decodes each annotation payload into T and resolves its options.
// Records that fail to decode or validate are logged and left out; they never
// affect their siblings.
func decodeAll[T any](
	category string,
	items []annotation.Annotation,
	defaults Options,
	logger *log.Logger,
	validate func(*T) error,
) []entry[T] {
	out := make([]entry[T], 0, len(items))
	for i, a := range items {
		var data T
		if err := a.DecodeData(&data); err != nil {
			logger.Printf("[!] %s: skipping annotation %d (t=%.0fms): %v", category, i, a.StartTimeMs, err)
			continue
		}
		if validate != nil {
			if err := validate(&data); err != nil {
				logger.Printf("[!] %s: skipping annotation %d (t=%.0fms): %v", category, i, a.StartTimeMs, err)
				continue
			}
		}
		out = append(out, entry[T]{
			ann:  a,
			data: data,
			opts: ResolveOptions(fallbackOptions, defaults, Options(a.Style())),
		})
	}
	return out
}

func loggerOrDefault(l *log.Logger) *log.Logger {
	if l == nil {
		return log.Default()
	}
	return l
}
