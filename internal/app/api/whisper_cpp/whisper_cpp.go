package whisper_cpp

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// LocalTranscriber runs a whisper.cpp command line binary against a ggml
// checkpoint that was verified once at construction time.
type LocalTranscriber struct {
	binaryPath string
	modelPath  string
	tempDir    string
	logger     *zap.Logger
}

// ResolveModelPath returns explicit when set, otherwise the conventional
// whisper.cpp file name for the named checkpoint inside modelsDir
// ("base" -> modelsDir/ggml-base.bin).
func ResolveModelPath(modelsDir, name, explicit string) string {
	if explicit != "" {
		return explicit
	}
	if strings.HasSuffix(name, ".bin") {
		return filepath.Join(modelsDir, name)
	}
	return filepath.Join(modelsDir, "ggml-"+name+".bin")
}

// NewLocalTranscriber resolves the binary and checks that the model file is
// readable. Both failures are permanent for the lifetime of the process.
func NewLocalTranscriber(binaryPath, modelPath, tempDir string, logger *zap.Logger) (*LocalTranscriber, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	resolved, err := exec.LookPath(binaryPath)
	if err != nil {
		return nil, fmt.Errorf("whisper.cpp binary %q not found: %w", binaryPath, err)
	}

	info, err := os.Stat(modelPath)
	if err != nil {
		return nil, fmt.Errorf("whisper model %q: %w", modelPath, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("whisper model %q is a directory", modelPath)
	}

	logger.Info("whisper.cpp model ready",
		zap.String("binary", resolved),
		zap.String("model", modelPath),
		zap.Int64("model_bytes", info.Size()))

	return &LocalTranscriber{
		binaryPath: resolved,
		modelPath:  modelPath,
		tempDir:    tempDir,
		logger:     logger,
	}, nil
}

// Transcribe runs whisper.cpp on audioPath and returns the plain-text output.
func (lt *LocalTranscriber) Transcribe(ctx context.Context, audioPath, language string) (string, error) {
	outDir, err := os.MkdirTemp(lt.tempDir, "whisper-cpp-")
	if err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(outDir); err != nil {
			lt.logger.Warn("failed to remove whisper.cpp output directory", zap.String("dir", outDir), zap.Error(err))
		}
	}()

	outputPrefix := filepath.Join(outDir, "transcript")
	args := []string{
		"-m", lt.modelPath,
		"-l", language,
		"-nt",
		"-otxt",
		"-f", audioPath,
		"-of", outputPrefix,
	}

	command := exec.CommandContext(ctx, lt.binaryPath, args...)
	var stdout, stderr bytes.Buffer
	command.Stdout = &stdout
	command.Stderr = &stderr

	lt.logger.Debug("running transcription command",
		zap.String("binary", lt.binaryPath),
		zap.String("args", strings.Join(args, " ")))

	if err := command.Run(); err != nil {
		return "", fmt.Errorf("whisper.cpp failed: %v, stderr: %s", err, strings.TrimSpace(stderr.String()))
	}

	content, err := os.ReadFile(outputPrefix + ".txt")
	if err != nil {
		return "", fmt.Errorf("failed to read output file: %w", err)
	}

	return strings.TrimSpace(string(content)), nil
}
