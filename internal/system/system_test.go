package system

import (
	"image"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestFindLatestManifest(t *testing.T) {
	dir := t.TempDir()
	old := filepath.Join(dir, "old.json")
	newer := filepath.Join(dir, "new.YAML")
	other := filepath.Join(dir, "notes.txt")
	for _, p := range []string{old, newer, other} {
		if err := os.WriteFile(p, []byte("{}"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	now := time.Now()
	os.Chtimes(old, now.Add(-time.Hour), now.Add(-time.Hour))
	os.Chtimes(newer, now, now)
	os.Chtimes(other, now.Add(time.Hour), now.Add(time.Hour))

	got, err := FindLatestManifest(dir)
	if err != nil {
		t.Fatal(err)
	}
	if got != newer {
		t.Errorf("FindLatestManifest = %s, want %s", got, newer)
	}

	if _, err := FindLatest(dir, ".pdf"); err == nil {
		t.Error("expected an error when nothing matches")
	}
}

func TestParseProbe(t *testing.T) {
	info, err := parseProbe("width=1920\nheight=1080\nduration=12.480000\n")
	if err != nil {
		t.Fatal(err)
	}
	if info.Width != 1920 || info.Height != 1080 || info.Duration != 12.48 {
		t.Errorf("info = %+v", info)
	}
	if _, err := parseProbe("duration=3.0\n"); err == nil {
		t.Error("expected an error without a video stream")
	}
}

func TestPickEncoder(t *testing.T) {
	tests := []struct {
		list, want string
	}{
		{" V....D h264_nvenc  NVIDIA NVENC H.264 encoder", "h264_nvenc"},
		{" V....D h264_videotoolbox VideoToolbox H.264 Encoder\n V....D h264_nvenc", "h264_videotoolbox"},
		{" V....D libx264 libx264 H.264", "libx264"},
	}
	for _, tt := range tests {
		if got, _ := pickEncoder(tt.list); got != tt.want {
			t.Errorf("pickEncoder(%q) = %s, want %s", tt.list, got, tt.want)
		}
	}
}

func TestImagePoolReuse(t *testing.T) {
	p := NewImagePool()
	a := p.Get(image.Rect(0, 0, 16, 8))
	if a.Bounds().Dx() != 16 || a.Bounds().Dy() != 8 {
		t.Fatalf("bounds = %v", a.Bounds())
	}
	p.Put(a)
	b := p.Get(image.Rect(0, 0, 16, 8))
	if len(b.Pix) != 16*8*4 {
		t.Errorf("len(Pix) = %d", len(b.Pix))
	}
	// empty and nil images are ignored
	p.Put(nil)
	p.Put(image.NewRGBA(image.Rectangle{}))
}

func TestMemoryReport(t *testing.T) {
	r := MemoryReport()
	if !strings.HasPrefix(r, "Memory:") {
		t.Errorf("report = %q", r)
	}
	t.Log(r)
	if LogicalCPUs() < 1 {
		t.Error("LogicalCPUs < 1")
	}
}

func TestFormatBytes(t *testing.T) {
	tests := map[uint64]string{
		512:     "512 B",
		2048:    "2.0 KiB",
		5 << 20: "5.0 MiB",
		3 << 30: "3.0 GiB",
	}
	for in, want := range tests {
		if got := formatBytes(in); got != want {
			t.Errorf("formatBytes(%d) = %s, want %s", in, got, want)
		}
	}
}

func TestInitResourceLimitsKeepsHigherLimit(t *testing.T) {
	// a tiny request never lowers the current soft limit
	got := InitResourceLimits(1)
	if got < 1 {
		t.Errorf("InitResourceLimits(1) = %d", got)
	}
	t.Logf("open file limit: %d", got)
}
