package transcoder

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"trackpub/domain/model"
	"trackpub/infrastructure/logger"

	"github.com/google/uuid"
)

// transcodeTimeout bounds one ffmpeg run. Still-image videos encode far
// faster than realtime, so a run hitting this limit is stuck, not slow.
const transcodeTimeout = 300 * time.Second

// FFmpeg renders a still-image video from an audio file and a cover image.
type FFmpeg struct {
	binary string
	outDir string
}

// NewFFmpeg creates a transcoder writing outputs under outDir. An empty
// binary falls back to "ffmpeg" on PATH.
func NewFFmpeg(binary, outDir string) *FFmpeg {
	if binary == "" {
		binary = "ffmpeg"
	}
	return &FFmpeg{binary: binary, outDir: outDir}
}

// BuildArgs returns the fixed encoder invocation. The scale filter forces
// even dimensions, which libx264 requires with yuv420p.
func BuildArgs(imagePath, audioPath, outPath string) []string {
	return []string{
		"-y",
		"-loop", "1",
		"-i", imagePath,
		"-i", audioPath,
		"-c:v", "libx264",
		"-tune", "stillimage",
		"-c:a", "aac",
		"-b:a", "192k",
		"-pix_fmt", "yuv420p",
		"-vf", "scale=trunc(iw/2)*2:trunc(ih/2)*2",
		"-shortest",
		outPath,
	}
}

// Render encodes audio+image into an mp4 and returns the output path. A
// non-zero exit becomes a TranscodeError carrying the captured stderr.
func (f *FFmpeg) Render(ctx context.Context, audioPath, imagePath, baseName string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, transcodeTimeout)
	defer cancel()

	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	outPath := filepath.Join(f.outDir, fmt.Sprintf("%s_%s.mp4", baseName, suffix))
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return "", &model.TranscodeError{Err: fmt.Errorf("creating output directory: %w", err)}
	}

	args := BuildArgs(imagePath, audioPath, outPath)
	cmd := exec.CommandContext(ctx, f.binary, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	logger.GetLogger().WithField("args", strings.Join(args, " ")).Debug("Starting encode")
	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			err = fmt.Errorf("encoder timed out after %s: %w", transcodeTimeout, err)
		}
		return "", &model.TranscodeError{Stderr: stderr.String(), Err: err}
	}
	return outPath, nil
}
