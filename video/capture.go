// Package video records clips from the camera by running ffmpeg.
package video

import (
	"context"
	"errors"
	"os/exec"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"
)

// CaptureOptions are the fixed ffmpeg input settings.
type CaptureOptions struct {
	Binary     string
	Format     string
	FPS        int
	Resolution string
	Device     string
}

// Args builds the ffmpeg argument list, e.g.
// ffmpeg -f v4l2 -r 25 -t 00:00:05 -s 1024x768 -i /dev/video0 /tmp/out.avi
func (o CaptureOptions) Args(length, path string) []string {
	return []string{
		"-f", o.Format,
		"-r", strconv.Itoa(o.FPS),
		"-t", length,
		"-s", o.Resolution,
		"-i", o.Device,
		path,
	}
}

// CaptureResult describes one run of the capture utility. A failed run is
// reported, not raised; the caller decides whether it matters.
type CaptureResult struct {
	Path     string
	Args     []string
	ExitCode int
	Err      error
	Elapsed  time.Duration
}

func (r *CaptureResult) OK() bool {
	return r.Err == nil
}

// Capturer records a clip of the given length (HH:MM:SS) to path.
type Capturer interface {
	Capture(ctx context.Context, path, length string) *CaptureResult
}

// FFmpeg is a Capturer backed by the ffmpeg binary.
type FFmpeg struct {
	Options CaptureOptions
}

func NewFFmpeg(o CaptureOptions) *FFmpeg {
	return &FFmpeg{Options: o}
}

// Capture blocks until ffmpeg exits. ffmpeg stops itself after length; ctx
// only matters at shutdown.
func (f *FFmpeg) Capture(ctx context.Context, path, length string) *CaptureResult {
	r := &CaptureResult{
		Path:     path,
		Args:     f.Options.Args(length, path),
		ExitCode: -1,
	}
	c := exec.CommandContext(ctx, f.Options.Binary, r.Args...)

	out := log.StandardLogger().WriterLevel(log.DebugLevel)
	defer out.Close()
	c.Stdout = out
	c.Stderr = out

	start := time.Now()
	r.Err = c.Run()
	r.Elapsed = time.Since(start)

	var exit *exec.ExitError
	switch {
	case r.Err == nil:
		r.ExitCode = 0
	case errors.As(r.Err, &exit):
		r.ExitCode = exit.ExitCode()
	}
	log.Debugf("ffmpeg exit with status %v after %v", r.ExitCode, r.Elapsed)
	return r
}
