package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

const (
	// CanonicalSampleRate is the sample rate Whisper models expect.
	CanonicalSampleRate = 16000
	// CanonicalChannels is mono.
	CanonicalChannels = 1
)

// ErrTranscoderNotFound is returned when the ffmpeg binary cannot be resolved.
var ErrTranscoderNotFound = errors.New("ffmpeg not found")

// ConversionError carries the diagnostic output of a failed ffmpeg run.
type ConversionError struct {
	ExitCode int
	Stderr   string
	Err      error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("ffmpeg exited with code %d: %s", e.ExitCode, strings.TrimSpace(e.Stderr))
}

func (e *ConversionError) Unwrap() error {
	return e.Err
}

// Transcoder turns arbitrary audio or video input into a PCM WAV file with
// the requested sample rate and channel count.
type Transcoder interface {
	Convert(ctx context.Context, inputPath, outputPath string, sampleRate, channels int) error
}

// FFmpegTranscoder shells out to the ffmpeg command line tool.
type FFmpegTranscoder struct {
	binaryPath string
	logger     *zap.Logger
}

// NewFFmpegTranscoder creates a transcoder using binaryPath, or "ffmpeg" from
// PATH when binaryPath is empty.
func NewFFmpegTranscoder(binaryPath string, logger *zap.Logger) *FFmpegTranscoder {
	if binaryPath == "" {
		binaryPath = "ffmpeg"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FFmpegTranscoder{binaryPath: binaryPath, logger: logger}
}

// Available reports whether the ffmpeg binary can be resolved.
func (t *FFmpegTranscoder) Available() bool {
	_, err := exec.LookPath(t.binaryPath)
	return err == nil
}

// Convert runs `ffmpeg -i in -ar rate -ac channels -y out`.
func (t *FFmpegTranscoder) Convert(ctx context.Context, inputPath, outputPath string, sampleRate, channels int) error {
	binary, err := exec.LookPath(t.binaryPath)
	if err != nil {
		t.logger.Error("ffmpeg not found, please install ffmpeg", zap.String("binary", t.binaryPath))
		return fmt.Errorf("%w: %v", ErrTranscoderNotFound, err)
	}

	args := []string{
		"-i", inputPath,
		"-ar", strconv.Itoa(sampleRate),
		"-ac", strconv.Itoa(channels),
		"-y", outputPath,
	}

	cmd := exec.CommandContext(ctx, binary, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	t.logger.Debug("running ffmpeg", zap.String("binary", binary), zap.Strings("args", args))

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			convErr := &ConversionError{ExitCode: exitErr.ExitCode(), Stderr: stderr.String(), Err: err}
			t.logger.Error("ffmpeg conversion failed",
				zap.Int("exit_code", convErr.ExitCode),
				zap.String("stderr", convErr.Stderr))
			return convErr
		}
		return fmt.Errorf("run ffmpeg: %w", err)
	}

	return nil
}
