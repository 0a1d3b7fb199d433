package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/ivlev/overlay2video/internal/annotation"
	"github.com/ivlev/overlay2video/internal/canvas"
	"github.com/ivlev/overlay2video/internal/config"
	"github.com/ivlev/overlay2video/internal/overlay"
	"github.com/ivlev/overlay2video/internal/playback"
	"github.com/ivlev/overlay2video/internal/source"
	"github.com/ivlev/overlay2video/internal/system"
	"github.com/ivlev/overlay2video/internal/video"
)

// Project renders a manifest offline, frame by frame, into a FrameSink.
type Project struct {
	Config   *config.Config
	Manifest *annotation.Manifest
	// Background, when set, is composited beneath the annotations.
	Background source.Source
	// Sink overrides the sink chosen from Config.
	Sink   video.FrameSink
	Logger *log.Logger
}

// Report summarizes a finished run.
type Report struct {
	Frames     int
	StartMs    float64
	EndMs      float64
	Width      int
	Height     int
	Total      time.Duration
	Render     time.Duration
	Write      time.Duration
	Compositor overlay.Stats
}

// EffectiveFPS is frames produced per wall-clock second.
func (r Report) EffectiveFPS() float64 {
	if r.Total <= 0 {
		return 0
	}
	return float64(r.Frames) / r.Total.Seconds()
}

func NewProject(cfg *config.Config) *Project {
	return &Project{Config: cfg, Logger: log.Default()}
}

// Run exports every frame in the configured time range. It stops at the next
// frame boundary when ctx is cancelled.
func (p *Project) Run(ctx context.Context) (Report, error) {
	startTime := time.Now()
	cfg := p.Config
	if p.Logger == nil {
		p.Logger = log.Default()
	}

	if p.Manifest == nil {
		m, err := annotation.Read(cfg.ManifestPath)
		if err != nil {
			return Report{}, fmt.Errorf("ошибка чтения манифеста: %w", err)
		}
		p.Manifest = m
	}

	startMs, endMs, err := p.timeRange()
	if err != nil {
		return Report{}, err
	}
	width, height := p.frameSize()

	clock := playback.NewClock(width, height)
	clock.SetLogger(p.Logger)
	if p.Background != nil {
		clock.SetBackground(source.NewTimeline(p.Background, cfg.FrameIntervalMs, cfg.DPI))
	}

	surf := canvas.NewSurface(width, height)
	defer surf.Close()

	coord, err := overlay.New(clock, p.Manifest, surf, cfg.Categories, overlay.Options{
		DebugMode:       cfg.DebugMode,
		CopySourceFrame: p.Background != nil,
		Logger:          p.Logger,
	})
	if err != nil {
		return Report{}, err
	}
	coord.Bind(clock)

	sink := p.Sink
	if sink == nil {
		sink, err = p.openSink(ctx, width, height, startMs)
		if err != nil {
			return Report{}, err
		}
	}

	frames := FrameCount(startMs, endMs, cfg.FPS)
	fmt.Println("--- [PROJECT: OVERLAY ENGINE] ---")
	fmt.Printf("[*] Манифест: %s | Категорий: %d | Аннотаций: %d\n", cfg.ManifestPath, len(coord.Categories()), p.Manifest.Len())
	fmt.Printf("[*] Разрешение: %dx%d @ %d FPS | Интервал: %.0f-%.0fms | Кадров: %d\n", width, height, cfg.FPS, startMs, endMs, frames)
	fmt.Println("-----------------------------")

	report := Report{StartMs: startMs, EndMs: endMs, Width: width, Height: height}
	progressEvery := max(cfg.FPS, 1) * 5

	var runErr error
	for i := 0; i < frames; i++ {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}
		t0 := time.Now()
		// seeking fires the coordinator through its listener
		clock.Seek(FrameTime(startMs, i, cfg.FPS))
		t1 := time.Now()
		if err := sink.WriteFrame(i, surf.Image()); err != nil {
			runErr = fmt.Errorf("кадр %d: %w", i, err)
			break
		}
		report.Render += t1.Sub(t0)
		report.Write += time.Since(t1)
		report.Frames++

		if (i+1)%progressEvery == 0 || i == frames-1 {
			fmt.Printf("[>] Ready: %d/%d\n", i+1, frames)
		}
	}

	closeStart := time.Now()
	if err := sink.Close(); err != nil && runErr == nil {
		runErr = fmt.Errorf("ошибка завершения вывода: %w", err)
	}
	report.Write += time.Since(closeStart)
	report.Total = time.Since(startTime)
	report.Compositor = coord.Stats()

	if runErr != nil {
		return report, runErr
	}
	if cfg.ShowStats {
		p.printStats(report)
	}
	return report, nil
}

// timeRange resolves the export window. A negative end means the end of the
// manifest's annotations.
func (p *Project) timeRange() (float64, float64, error) {
	startMs, endMs := p.Config.StartMs, p.Config.EndMs
	if endMs < 0 {
		_, last, ok := p.Manifest.Extent()
		if !ok {
			return 0, 0, errors.New("манифест не содержит аннотаций, укажите -end")
		}
		endMs = last
	}
	if endMs < startMs {
		return 0, 0, fmt.Errorf("конец интервала %.0fms раньше начала %.0fms", endMs, startMs)
	}
	return startMs, endMs, nil
}

// frameSize is the natural size of the composited media.
func (p *Project) frameSize() (int, int) {
	w, h := p.Config.Width, p.Config.Height

	if p.Config.BackgroundVideo != "" {
		info, err := system.ProbeVideo(p.Config.BackgroundVideo)
		if err != nil {
			p.Logger.Printf("[!] Не удалось получить размер фонового видео: %v", err)
			return w, h
		}
		return even(info.Width), even(info.Height)
	}

	// Подгоняем ширину под пропорции фона, высота остаётся из конфига
	if p.Background != nil && p.Background.FrameCount() > 0 {
		srcW, srcH, err := p.Background.FrameSize(0)
		if err == nil && srcW > 0 && srcH > 0 {
			w = even(int(float64(h) * float64(srcW) / float64(srcH)))
		}
	}
	return w, h
}

func (p *Project) openSink(ctx context.Context, width, height int, startMs float64) (video.FrameSink, error) {
	cfg := p.Config
	if cfg.OutputFrames != "" {
		return video.NewPNGSequence(ctx, cfg.OutputFrames, cfg.Workers)
	}
	if err := os.MkdirAll(filepath.Dir(cfg.OutputVideo), 0755); err != nil {
		return nil, fmt.Errorf("ошибка создания папки вывода: %w", err)
	}
	quality := cfg.Quality
	if quality == 0 {
		quality = config.DefaultQuality(cfg.VideoEncoder)
	}
	enc := video.NewFFmpegEncoder(video.EncoderOptions{
		OutputPath:       cfg.OutputVideo,
		Width:            width,
		Height:           height,
		FPS:              cfg.FPS,
		Encoder:          cfg.VideoEncoder,
		Quality:          quality,
		BackgroundVideo:  cfg.BackgroundVideo,
		BackgroundOffset: startMs / 1000,
	})
	if err := enc.Start(ctx); err != nil {
		return nil, err
	}
	return enc, nil
}

func (p *Project) printStats(r Report) {
	report := fmt.Sprintf(
		"--- [PERFORMANCE REPORT] ---\n"+
			"Build: %s\n"+
			"Total Time: %.2fs\n"+
			"Compositing (CPU): %.2fs\n"+
			"Output: %.2fs\n"+
			"Frames: %d (duplicates skipped: %d, hidden: %d, renderer errors: %d)\n"+
			"Effective FPS: %.2f\n"+
			"%s\n"+
			"----------------------------\n",
		p.Config.BuildVersion, r.Total.Seconds(), r.Render.Seconds(), r.Write.Seconds(),
		r.Frames, r.Compositor.Duplicates, r.Compositor.Hidden, r.Compositor.RenderErrors, r.EffectiveFPS(),
		system.MemoryReport(),
	)
	fmt.Print(report)

	// Логирование в файл
	logEntry := fmt.Sprintf("[%s] Build: %s | Manifest: %s | Frames: %d | Total: %.2fs | Render: %.2fs | Output: %.2fs | FPS: %.2f\n",
		time.Now().Format("2006-01-02 15:04:05"),
		p.Config.BuildVersion,
		filepath.Base(p.Config.ManifestPath),
		r.Frames,
		r.Total.Seconds(),
		r.Render.Seconds(),
		r.Write.Seconds(),
		r.EffectiveFPS(),
	)
	f, err := os.OpenFile("benchmark.log", os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err == nil {
		f.WriteString(logEntry)
		f.Close()
	} else {
		fmt.Printf("[!] Не удалось записать benchmark.log: %v\n", err)
	}
}

// FrameCount is the number of frames covering [startMs, endMs] inclusive at fps.
func FrameCount(startMs, endMs float64, fps int) int {
	if fps <= 0 || endMs < startMs {
		return 0
	}
	return int(math.Floor((endMs-startMs)*float64(fps)/1000+1e-9)) + 1
}

// FrameTime is the media time of frame i. It is computed from the index, not
// accumulated, so long exports do not drift.
func FrameTime(startMs float64, i, fps int) float64 {
	return startMs + float64(i)*1000/float64(fps)
}

func even(v int) int {
	if v%2 != 0 {
		return v + 1
	}
	return v
}
