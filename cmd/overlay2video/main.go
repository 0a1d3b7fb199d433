package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/ivlev/overlay2video/internal/annotation"
	"github.com/ivlev/overlay2video/internal/config"
	"github.com/ivlev/overlay2video/internal/engine"
	"github.com/ivlev/overlay2video/internal/renderer"
	"github.com/ivlev/overlay2video/internal/source"
	"github.com/ivlev/overlay2video/internal/system"
)

// Подставляется при сборке: -ldflags "-X main.version=..."
var version = "dev"

func main() {
	// Создаем нужные директории, если их нет
	dirs := []string{"input/manifests", "output"}
	for _, d := range dirs {
		os.MkdirAll(d, 0755)
	}

	configPtr := flag.String("config", "", "Путь к YAML конфигурации")
	manifestPtr := flag.String("manifest", "", "Путь к манифесту аннотаций JSON/YAML (по умолчанию: самый свежий файл в input/manifests/)")
	categoriesPtr := flag.String("categories", "", "Категории через запятую (по умолчанию: все категории манифеста)")
	backgroundPtr := flag.String("background", "", "Фон: PDF или папка с изображениями")
	intervalPtr := flag.Float64("interval", 1000, "Длительность одного кадра фона в мс")
	backgroundVideoPtr := flag.String("background-video", "", "Видео, поверх которого ffmpeg накладывает аннотации")
	outputPtr := flag.String("output", "", "Путь к видео (если пусто, генерируется автоматически в output/)")
	framesPtr := flag.String("frames-dir", "", "Писать PNG последовательность в папку вместо видео")
	widthPtr := flag.Int("width", 1280, "Ширина")
	heightPtr := flag.Int("height", 720, "Высота")
	fpsPtr := flag.Int("fps", 30, "FPS")
	startPtr := flag.Float64("start", 0, "Начало интервала в мс")
	endPtr := flag.Float64("end", -1, "Конец интервала в мс (-1: конец последней аннотации)")
	workersPtr := flag.Int("workers", system.LogicalCPUs(), "Потоки записи PNG")
	dpiPtr := flag.Int("dpi", 150, "DPI для PDF фона")
	qualityPtr := flag.Int("quality", 0, "Качество видео (0 - авто, x264: CRF 1-51, VideoToolbox: битрейт = Q*100кбит/с)")
	debugPtr := flag.Bool("debug", false, "Показывать отладочную панель поверх кадра")
	statsPtr := flag.Bool("stats", false, "Печатать статистику производительности")
	validatePtr := flag.Bool("validate", false, "Только проверить манифест")
	listPtr := flag.Bool("list", false, "Показать категории манифеста и доступные рендереры")

	flag.Parse()

	cfg := config.DefaultConfig()
	if *configPtr != "" {
		loaded, err := config.Load(*configPtr)
		if err != nil {
			log.Fatalf("[-] Ошибка конфигурации: %v", err)
		}
		cfg = loaded
	}
	if err := config.ParseEnv(cfg); err != nil {
		log.Fatalf("[-] Ошибка переменных окружения: %v", err)
	}
	cfg.BuildVersion = version

	// Явно заданные флаги важнее файла и окружения
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "manifest":
			cfg.ManifestPath = *manifestPtr
		case "categories":
			cfg.Categories = splitList(*categoriesPtr)
		case "background":
			cfg.BackgroundPath = *backgroundPtr
		case "interval":
			cfg.FrameIntervalMs = *intervalPtr
		case "background-video":
			cfg.BackgroundVideo = *backgroundVideoPtr
		case "output":
			cfg.OutputVideo = *outputPtr
		case "frames-dir":
			cfg.OutputFrames = *framesPtr
		case "width":
			cfg.Width = *widthPtr
		case "height":
			cfg.Height = *heightPtr
		case "fps":
			cfg.FPS = *fpsPtr
		case "start":
			cfg.StartMs = *startPtr
		case "end":
			cfg.EndMs = *endPtr
		case "workers":
			cfg.Workers = *workersPtr
		case "dpi":
			cfg.DPI = *dpiPtr
		case "quality":
			cfg.Quality = *qualityPtr
		case "debug":
			cfg.DebugMode = *debugPtr
		case "stats":
			cfg.ShowStats = *statsPtr
		}
	})

	// Увеличиваем лимиты системы (для macOS/Linux): каждый поток записи PNG держит открытый файл
	system.InitResourceLimits(2048 + uint64(max(cfg.Workers, 0)))

	if cfg.ManifestPath == "" {
		latest, err := system.FindLatestManifest("input/manifests")
		if err != nil {
			log.Fatalf("[-] Ошибка: %v. Положите манифест в input/manifests/", err)
		}
		cfg.ManifestPath = latest
		fmt.Printf("[*] Выбран манифест: %s\n", cfg.ManifestPath)
	}

	if *validatePtr || *listPtr {
		m, err := annotation.Read(cfg.ManifestPath)
		if err != nil {
			log.Fatalf("[-] Манифест некорректен: %v", err)
		}
		if *listPtr {
			printCategories(m)
			return
		}
		start, end, ok := m.Extent()
		if !ok {
			fmt.Printf("[+++] Манифест корректен, но пуст: %s\n", cfg.ManifestPath)
			return
		}
		fmt.Printf("[+++] Манифест корректен: %d аннотаций, %d категорий, %.0f-%.0fms\n", m.Len(), len(m.Categories()), start, end)
		return
	}

	if cfg.OutputVideo == "" && cfg.OutputFrames == "" {
		cfg.OutputVideo = defaultOutputPath(cfg.ManifestPath)
	}

	if cfg.OutputFrames == "" && cfg.VideoEncoder == "" {
		encoderName, _ := system.GetBestH264Encoder()
		if encoderName != "libx264" {
			fmt.Printf("[*] Обнаружено аппаратное ускорение: %s\n", encoderName)
		}
		cfg.VideoEncoder = encoderName
	}
	if cfg.Quality == 0 {
		cfg.Quality = config.DefaultQuality(cfg.VideoEncoder)
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("[-] Ошибка конфигурации: %v", err)
	}

	project := engine.NewProject(cfg)

	if cfg.BackgroundPath != "" {
		src, err := source.Open(cfg.BackgroundPath)
		if err != nil {
			log.Fatalf("[-] Ошибка инициализации источника: %v", err)
		}
		defer src.Close()
		if src.FrameCount() == 0 {
			log.Fatalf("[-] Ошибка: в источнике нет страниц или изображений")
		}
		project.Background = src
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := project.Run(ctx); err != nil {
		log.Fatalf("[-] Ошибка проекта: %v", err)
	}

	if cfg.OutputFrames != "" {
		fmt.Printf("[+++] Успех! Кадры: %s\n", cfg.OutputFrames)
		return
	}
	fmt.Printf("[+++] Успех! Результат: %s\n", cfg.OutputVideo)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func defaultOutputPath(manifestPath string) string {
	baseName := filepath.Base(manifestPath)
	nameOnly := strings.TrimSuffix(baseName, filepath.Ext(baseName))
	cleanName := strings.ReplaceAll(nameOnly, " ", "_")
	timestamp := time.Now().Format("2006-01-02_15-04-05")
	return filepath.Join("output", fmt.Sprintf("%s_%s.mp4", cleanName, timestamp))
}

func printCategories(m *annotation.Manifest) {
	reg := renderer.DefaultRegistry()
	fmt.Println("--- [MANIFEST CATEGORIES] ---")
	for _, cat := range m.Categories() {
		mark := "+"
		if _, ok := reg.Lookup(cat); !ok {
			mark = "?"
		}
		fmt.Printf("[%s] %-12s %d\n", mark, cat, len(m.ByCategory(cat)))
	}
	fmt.Printf("[*] Доступные рендереры: %s\n", strings.Join(reg.Categories(), ", "))
}
