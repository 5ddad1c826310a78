package app

import (
	"go.uber.org/zap"
	"upload-whisper/internal/app/api"
	"upload-whisper/internal/app/audio"
	"upload-whisper/internal/app/metrics"
	"upload-whisper/internal/app/pipeline"
	"upload-whisper/internal/app/util/files"
	"upload-whisper/internal/config"
)

// App bundles the long-lived components shared by the server and the CLI.
type App struct {
	Config   *config.Config
	Logger   *zap.Logger
	Metrics  *metrics.Metrics
	Pipeline *pipeline.Pipeline
}

func provideTranscoder(cfg *config.Config, logger *zap.Logger) audio.Transcoder {
	t := audio.NewFFmpegTranscoder(cfg.FFmpeg.Path, logger)
	if !t.Available() {
		logger.Warn("ffmpeg not found, non-wav uploads will fail", zap.String("path", cfg.FFmpeg.Path))
	}
	return t
}

// provideTranscriber loads the model once. A failure is logged and yields a
// nil transcriber so the service still starts and reports the model as not
// loaded.
func provideTranscriber(cfg *config.Config, logger *zap.Logger) api.Transcriber {
	t, err := api.Load(cfg.Transcriber, cfg.Upload.TempDir, logger)
	if err != nil {
		logger.Error("Error loading Whisper model", zap.Error(err))
		return nil
	}
	logger.Info("Whisper model loaded successfully", zap.String("backend", cfg.Transcriber.Backend))
	return t
}

func providePipelineOptions(cfg *config.Config) (pipeline.Options, error) {
	if err := files.EnsureDir(cfg.Upload.Dir); err != nil {
		return pipeline.Options{}, err
	}
	if cfg.Upload.TempDir != "" {
		if err := files.EnsureDir(cfg.Upload.TempDir); err != nil {
			return pipeline.Options{}, err
		}
	}

	return pipeline.Options{
		UploadDir:   cfg.Upload.Dir,
		TempDir:     cfg.Upload.TempDir,
		Language:    cfg.Transcriber.Language,
		UniqueNames: cfg.Upload.UniqueNames,
	}, nil
}
