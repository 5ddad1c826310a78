//go:build wireinject
// +build wireinject

package app

import (
	"github.com/google/wire"
	"go.uber.org/zap"
	"upload-whisper/internal/app/metrics"
	"upload-whisper/internal/app/pipeline"
	"upload-whisper/internal/config"
)

// InitializeApp builds the transcription pipeline from cfg.
func InitializeApp(cfg *config.Config, logger *zap.Logger) (*App, error) {
	wire.Build(
		provideTranscoder,
		provideTranscriber,
		providePipelineOptions,
		metrics.New,
		pipeline.New,
		wire.Struct(new(App), "*"),
	)
	return nil, nil
}
