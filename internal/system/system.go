package system

import (
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"
)

// InitResourceLimits raises the soft open-file limit to want, capped by the
// hard limit. A soft limit that is already higher is kept. It returns the
// limit in effect.
func InitResourceLimits(want uint64) uint64 {
	var rLimit syscall.Rlimit
	if err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &rLimit); err != nil {
		log.Printf("[!] Не удалось получить лимит файлов: %v", err)
		return 0
	}
	if rLimit.Cur >= want {
		return rLimit.Cur
	}

	prev := rLimit.Cur
	rLimit.Cur = min(want, rLimit.Max)
	if err := syscall.Setrlimit(syscall.RLIMIT_NOFILE, &rLimit); err != nil {
		log.Printf("[!] Не удалось установить лимит файлов: %v", err)
		return prev
	}
	fmt.Printf("[*] Системный лимит открытых файлов увеличен: %d -> %d\n", prev, rLimit.Cur)
	return rLimit.Cur
}

// ManifestExtensions are the file types accepted as annotation manifests.
var ManifestExtensions = []string{".json", ".yaml", ".yml"}

// FindLatest returns the most recently modified file in dir whose extension is
// one of exts.
func FindLatest(dir string, exts ...string) (string, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}

	var latestFile string
	var latestTime time.Time

	for _, f := range files {
		if f.IsDir() || !hasExt(f.Name(), exts) {
			continue
		}
		info, err := f.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(latestTime) {
			latestTime = info.ModTime()
			latestFile = filepath.Join(dir, f.Name())
		}
	}

	if latestFile == "" {
		return "", fmt.Errorf("в папке %s не найдено файлов %s", dir, strings.Join(exts, ", "))
	}
	return latestFile, nil
}

// FindLatestManifest returns the newest JSON or YAML file in dir.
func FindLatestManifest(dir string) (string, error) {
	return FindLatest(dir, ManifestExtensions...)
}

func hasExt(name string, exts []string) bool {
	lower := strings.ToLower(name)
	for _, ext := range exts {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// VideoInfo is what ffprobe reports about the first video stream.
type VideoInfo struct {
	Width    int
	Height   int
	Duration float64 // секунды
}

// ProbeVideo asks ffprobe for the natural size and duration of a video.
func ProbeVideo(path string) (VideoInfo, error) {
	cmd := exec.Command("ffprobe", "-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height:format=duration",
		"-of", "default=noprint_wrappers=1", path)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return VideoInfo{}, fmt.Errorf("ffprobe %s: %w: %s", path, err, strings.TrimSpace(string(out)))
	}
	return parseProbe(string(out))
}

func parseProbe(out string) (VideoInfo, error) {
	var info VideoInfo
	for _, line := range strings.Split(out, "\n") {
		key, value, ok := strings.Cut(strings.TrimSpace(line), "=")
		if !ok {
			continue
		}
		switch key {
		case "width":
			info.Width, _ = strconv.Atoi(value)
		case "height":
			info.Height, _ = strconv.Atoi(value)
		case "duration":
			info.Duration, _ = strconv.ParseFloat(value, 64)
		}
	}
	if info.Width <= 0 || info.Height <= 0 {
		return info, fmt.Errorf("ffprobe не вернул размер видео")
	}
	return info, nil
}

// GetBestH264Encoder picks a hardware H.264 encoder when ffmpeg has one.
func GetBestH264Encoder() (string, string) {
	// Приоритеты:
	// 1. MacOS (VideoToolbox)
	// 2. NVIDIA (NVENC)
	// 3. Software (libx264)
	out, err := exec.Command("ffmpeg", "-hide_banner", "-encoders").CombinedOutput()
	if err != nil {
		return "libx264", ""
	}
	return pickEncoder(string(out))
}

func pickEncoder(list string) (string, string) {
	for _, name := range []string{"h264_videotoolbox", "h264_nvenc"} {
		if strings.Contains(list, name) {
			return name, ""
		}
	}
	return "libx264", ""
}
