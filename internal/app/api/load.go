package api

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"upload-whisper/internal/app/api/openai"
	"upload-whisper/internal/app/api/openai/whisper"
	"upload-whisper/internal/app/api/whisper_cpp"
	"upload-whisper/internal/app/api/whisper_server"
	"upload-whisper/internal/config"
)

const serverHealthTimeout = 10 * time.Second

// Load builds the configured backend once. The returned error is meant to be
// logged at startup; callers keep running without a transcriber so that
// every request reports the model as unavailable.
func Load(cfg config.TranscriberConfig, tempDir string, logger *zap.Logger) (Transcriber, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	switch cfg.Backend {
	case config.BackendWhisperCpp, "":
		modelPath := whisper_cpp.ResolveModelPath(cfg.ModelsDir, cfg.Model, cfg.ModelPath)
		logger.Info("loading whisper model", zap.String("backend", config.BackendWhisperCpp), zap.String("model", modelPath))
		lt, err := whisper_cpp.NewLocalTranscriber(cfg.BinaryPath, modelPath, tempDir, logger)
		if err != nil {
			return nil, err
		}
		return lt, nil
	case config.BackendOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return nil, errors.New("openai backend requires an API key (OPENAI_API_KEY)")
		}
		logger.Info("loading whisper model", zap.String("backend", config.BackendOpenAI), zap.String("model", cfg.OpenAIModel))
		return whisper.NewRemoteTranscriber(openai.NewClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL), cfg.OpenAIModel), nil
	case config.BackendServer:
		if cfg.ServerURL == "" {
			return nil, errors.New("whisper_server backend requires server_url (WHISPER_SERVER_URL)")
		}
		logger.Info("loading whisper model", zap.String("backend", config.BackendServer), zap.String("url", cfg.ServerURL))
		st := whisper_server.NewServerTranscriber(whisper_server.Config{
			BaseURL:       cfg.ServerURL,
			InferencePath: cfg.ServerInferencePath,
			Timeout:       cfg.ServerTimeout,
		}, logger)

		ctx, cancel := context.WithTimeout(context.Background(), serverHealthTimeout)
		defer cancel()
		if err := st.HealthCheck(ctx); err != nil {
			return nil, err
		}
		return st, nil
	default:
		return nil, fmt.Errorf("unknown transcriber backend %q (supported: %s, %s, %s)",
			cfg.Backend, config.BackendWhisperCpp, config.BackendOpenAI, config.BackendServer)
	}
}
