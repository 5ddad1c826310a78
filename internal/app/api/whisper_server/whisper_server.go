// Package whisper_server talks to a running whisper.cpp server
// (examples/server in the whisper.cpp tree) over HTTP.
package whisper_server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

const DefaultInferencePath = "/inference"

type Config struct {
	BaseURL       string
	InferencePath string
	// Timeout bounds a single inference call; zero means no limit.
	Timeout time.Duration
}

// ServerTranscriber forwards canonical WAV files to whisper-server.
type ServerTranscriber struct {
	config Config
	client *http.Client
	logger *zap.Logger
}

type inferenceResponse struct {
	Text  string `json:"text"`
	Error string `json:"error"`
}

func NewServerTranscriber(config Config, logger *zap.Logger) *ServerTranscriber {
	if config.InferencePath == "" {
		config.InferencePath = DefaultInferencePath
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	if logger == nil {
		logger = zap.NewNop()
	}

	return &ServerTranscriber{
		config: config,
		client: &http.Client{Timeout: config.Timeout},
		logger: logger,
	}
}

// HealthCheck verifies the server answers at its base URL.
func (st *ServerTranscriber) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, st.config.BaseURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create health check request: %w", err)
	}

	resp, err := st.client.Do(req)
	if err != nil {
		return fmt.Errorf("whisper-server unreachable at %s: %w", st.config.BaseURL, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 500 {
		return fmt.Errorf("whisper-server returned status %d", resp.StatusCode)
	}
	return nil
}

func (st *ServerTranscriber) Transcribe(ctx context.Context, audioPath, language string) (string, error) {
	body, contentType, err := createMultipartForm(audioPath, language)
	if err != nil {
		return "", err
	}

	url := st.config.BaseURL + st.config.InferencePath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return "", fmt.Errorf("failed to create inference request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	st.logger.Debug("sending audio to whisper-server", zap.String("url", url), zap.String("file", audioPath))

	resp, err := st.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("inference request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read inference response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("whisper-server returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var parsed inferenceResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", fmt.Errorf("failed to parse inference response: %w", err)
	}
	if parsed.Error != "" {
		return "", fmt.Errorf("whisper-server: %s", parsed.Error)
	}

	return strings.TrimSpace(parsed.Text), nil
}

func createMultipartForm(audioPath, language string) (*bytes.Buffer, string, error) {
	file, err := os.Open(audioPath)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open audio file: %w", err)
	}
	defer file.Close()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return nil, "", fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, "", fmt.Errorf("failed to copy audio: %w", err)
	}

	fields := map[string]string{
		"response_format": "json",
		"temperature":     "0.0",
	}
	if language != "" {
		fields["language"] = language
	}
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			return nil, "", fmt.Errorf("failed to write field %s: %w", key, err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to close multipart writer: %w", err)
	}
	return body, writer.FormDataContentType(), nil
}
