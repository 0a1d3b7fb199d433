package source

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"unicode"
)

// ImageSource serves a single still or a directory of JPEG/PNG frames.
// Directory entries are ordered so that frame_2.png comes before frame_10.png.
type ImageSource struct {
	paths []string
	sizes []image.Point
}

func NewImageSource(path string) (*ImageSource, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !fi.IsDir() {
		return &ImageSource{paths: []string{path}, sizes: make([]image.Point, 1)}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, entry := range entries {
		if entry.Type().IsRegular() && isImage(entry.Name()) {
			paths = append(paths, filepath.Join(path, entry.Name()))
		}
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no images in %s", path)
	}
	slices.SortFunc(paths, func(a, b string) int {
		return compareFrameNames(filepath.Base(a), filepath.Base(b))
	})
	return &ImageSource{paths: paths, sizes: make([]image.Point, len(paths))}, nil
}

func (s *ImageSource) FrameCount() int {
	return len(s.paths)
}

// FrameSize reads only the image header; the result is remembered.
func (s *ImageSource) FrameSize(index int) (int, int, error) {
	if err := s.check(index); err != nil {
		return 0, 0, err
	}
	if sz := s.sizes[index]; sz.X > 0 {
		return sz.X, sz.Y, nil
	}
	f, err := os.Open(s.paths[index])
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, fmt.Errorf("decode %s: %w", s.paths[index], err)
	}
	s.sizes[index] = image.Pt(cfg.Width, cfg.Height)
	return cfg.Width, cfg.Height, nil
}

func (s *ImageSource) RenderFrame(index int, _ int) (image.Image, error) {
	if err := s.check(index); err != nil {
		return nil, err
	}
	data, err := os.Open(s.paths[index])
	if err != nil {
		return nil, err
	}
	defer data.Close()

	img, _, err := image.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.paths[index], err)
	}
	b := img.Bounds()
	s.sizes[index] = image.Pt(b.Dx(), b.Dy())
	return img, nil
}

func (s *ImageSource) Close() error { return nil }

func (s *ImageSource) check(index int) error {
	if index < 0 || index >= len(s.paths) {
		return fmt.Errorf("frame %d out of range [0,%d)", index, len(s.paths))
	}
	return nil
}

// compareFrameNames orders names case-insensitively, comparing runs of
// digits by numeric value.
func compareFrameNames(a, b string) int {
	a, b = strings.ToLower(a), strings.ToLower(b)
	for a != "" && b != "" {
		da, db := digitPrefix(a), digitPrefix(b)
		if da != "" && db != "" {
			na, nb := strings.TrimLeft(da, "0"), strings.TrimLeft(db, "0")
			if c := len(na) - len(nb); c != 0 {
				return c
			}
			if c := strings.Compare(na, nb); c != 0 {
				return c
			}
			a, b = a[len(da):], b[len(db):]
			continue
		}
		if a[0] != b[0] {
			return int(a[0]) - int(b[0])
		}
		a, b = a[1:], b[1:]
	}
	return len(a) - len(b)
}

func digitPrefix(s string) string {
	i := 0
	for i < len(s) && unicode.IsDigit(rune(s[i])) {
		i++
	}
	return s[:i]
}

func isImage(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg", ".png":
		return true
	}
	return false
}

func isPDF(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".pdf")
}
