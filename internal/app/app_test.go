package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"upload-whisper/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	root := t.TempDir()
	return &config.Config{
		Upload: config.UploadConfig{
			Dir:      filepath.Join(root, "uploads"),
			TempDir:  filepath.Join(root, "tmp"),
			MaxBytes: config.DefaultMaxUploadBytes,
		},
		FFmpeg: config.FFmpegConfig{Path: filepath.Join(root, "no-ffmpeg")},
		Transcriber: config.TranscriberConfig{
			Backend:  config.BackendOpenAI,
			Language: "en",
		},
	}
}

func TestInitializeApp_ModelNotLoaded(t *testing.T) {
	cfg := testConfig(t)

	a, err := InitializeApp(cfg, zap.NewNop())
	require.NoError(t, err)
	assert.False(t, a.Pipeline.Ready())
	assert.DirExists(t, cfg.Upload.Dir)
	assert.DirExists(t, cfg.Upload.TempDir)
	assert.NotNil(t, a.Metrics)
}

func TestInitializeApp_OpenAIBackend(t *testing.T) {
	cfg := testConfig(t)
	cfg.Transcriber.OpenAIAPIKey = "sk-test"
	cfg.Transcriber.OpenAIModel = "whisper-1"

	a, err := InitializeApp(cfg, zap.NewNop())
	require.NoError(t, err)
	assert.True(t, a.Pipeline.Ready())
	assert.Same(t, cfg, a.Config)
}

func TestInitializeApp_UploadDirNotCreatable(t *testing.T) {
	cfg := testConfig(t)
	// A directory cannot be created below a regular file.
	cfg.Upload.Dir = filepath.Join(cfg.Upload.Dir, "blocked")
	require.NoError(t, writeFile(filepath.Dir(cfg.Upload.Dir)))

	_, err := InitializeApp(cfg, zap.NewNop())
	assert.Error(t, err)
}

func writeFile(path string) error {
	return os.WriteFile(path, []byte("x"), 0o644)
}
