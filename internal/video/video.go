package video

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"io"
	"os/exec"
	"strings"
)

// FrameSink consumes composited frames in order. The image is only valid for
// the duration of the call.
type FrameSink interface {
	WriteFrame(index int, img *image.RGBA) error
	Close() error
}

// EncoderOptions configure an FFmpegEncoder.
type EncoderOptions struct {
	OutputPath string
	Width      int
	Height     int
	FPS        int
	Encoder    string // ffmpeg codec name, libx264 when empty
	Quality    int
	// BackgroundVideo, when set, is scaled to Width×Height and the overlay
	// stream is laid on top of it. Its audio is kept.
	BackgroundVideo string
	// BackgroundOffset seeks into the background video, in seconds.
	BackgroundOffset float64
}

// FFmpegEncoder pipes raw RGBA frames into an ffmpeg process.
type FFmpegEncoder struct {
	opts  EncoderOptions
	cmd   *exec.Cmd
	stdin io.WriteCloser
	log   bytes.Buffer
}

func NewFFmpegEncoder(opts EncoderOptions) *FFmpegEncoder {
	if opts.Encoder == "" {
		opts.Encoder = "libx264"
	}
	return &FFmpegEncoder{opts: opts}
}

// Start launches ffmpeg. The process is killed when ctx is cancelled.
func (e *FFmpegEncoder) Start(ctx context.Context) error {
	if e.cmd != nil {
		return errors.New("encoder already started")
	}
	cmd := exec.CommandContext(ctx, "ffmpeg", e.buildFFmpegArgs()...)
	cmd.Stdout = &e.log
	cmd.Stderr = &e.log

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("stdin pipe error: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("ffmpeg start error: %w", err)
	}
	e.cmd, e.stdin = cmd, stdin
	return nil
}

// WriteFrame sends one frame. Frames must match the configured size.
func (e *FFmpegEncoder) WriteFrame(_ int, img *image.RGBA) error {
	if e.stdin == nil {
		return errors.New("encoder not started")
	}
	if b := img.Bounds(); b.Dx() != e.opts.Width || b.Dy() != e.opts.Height {
		return fmt.Errorf("frame is %dx%d, encoder expects %dx%d", b.Dx(), b.Dy(), e.opts.Width, e.opts.Height)
	}
	if err := writeRawRGBA(e.stdin, img); err != nil {
		return fmt.Errorf("write raw error: %w", err)
	}
	return nil
}

// Close ends the stream and waits for ffmpeg to finish the file.
func (e *FFmpegEncoder) Close() error {
	if e.cmd == nil {
		return nil
	}
	e.stdin.Close()
	if err := e.cmd.Wait(); err != nil {
		return fmt.Errorf("ffmpeg wait error: %w\nLog: %s", err, tail(e.log.String(), 2000))
	}
	return nil
}

func (e *FFmpegEncoder) buildFFmpegArgs() []string {
	o := e.opts
	args := []string{
		"-y",
		"-f", "rawvideo",
		"-pixel_format", "rgba",
		"-video_size", fmt.Sprintf("%dx%d", o.Width, o.Height),
		"-framerate", fmt.Sprintf("%d", o.FPS),
		"-i", "-",
	}

	if o.BackgroundVideo != "" {
		if o.BackgroundOffset > 0 {
			args = append(args, "-ss", fmt.Sprintf("%f", o.BackgroundOffset))
		}
		args = append(args, "-i", o.BackgroundVideo,
			"-filter_complex", OverlayFilter(o.Width, o.Height),
			"-map", "[vout]", "-map", "1:a?", "-c:a", "aac",
		)
	}

	args = append(args,
		"-r", fmt.Sprintf("%d", o.FPS),
		"-pix_fmt", "yuv420p",
		"-c:v", o.Encoder,
	)
	args = append(args, qualityArgs(o.Encoder, o.Quality)...)
	args = append(args, o.OutputPath)
	return args
}

// qualityArgs maps a quality value onto the encoder's rate control.
func qualityArgs(encoder string, quality int) []string {
	switch encoder {
	case "h264_videotoolbox":
		// VideoToolbox часто не поддерживает -q:v напрямую. Используем битрейт.
		return []string{"-b:v", fmt.Sprintf("%dk", quality*100)}
	case "h264_nvenc":
		return []string{"-cq", fmt.Sprintf("%d", quality)}
	default: // libx264
		return []string{"-crf", fmt.Sprintf("%d", quality), "-preset", "medium"}
	}
}

// OverlayFilter letterboxes input 1 to w×h and overlays input 0 (the RGBA
// annotation stream) on it. The output pad is [vout].
func OverlayFilter(w, h int) string {
	return fmt.Sprintf(
		"[1:v]scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2,setsar=1[bg];"+
			"[bg][0:v]overlay=0:0:format=auto:shortest=1[vout]",
		w, h, w, h,
	)
}

func writeRawRGBA(w io.Writer, img image.Image) error {
	bounds := img.Bounds()
	rgba, ok := img.(*image.RGBA)
	// Проверяем, что буфер уже RGBA со стандартным шагом (stride)
	if !ok || rgba.Stride != bounds.Dx()*4 || rgba.Rect.Min.X != 0 || rgba.Rect.Min.Y != 0 {
		rgba = image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
		draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)
	}
	_, err := w.Write(rgba.Pix[:bounds.Dx()*bounds.Dy()*4])
	return err
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}
