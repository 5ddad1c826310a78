package testutil

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockTranscriber is a testify mock of api.Transcriber.
type MockTranscriber struct {
	mock.Mock
}

func (m *MockTranscriber) Transcribe(ctx context.Context, audioPath, language string) (string, error) {
	args := m.Called(ctx, audioPath, language)
	return args.String(0), args.Error(1)
}

// MockTranscoder is a testify mock of audio.Transcoder.
type MockTranscoder struct {
	mock.Mock
}

func (m *MockTranscoder) Convert(ctx context.Context, inputPath, outputPath string, sampleRate, channels int) error {
	args := m.Called(ctx, inputPath, outputPath, sampleRate, channels)
	return args.Error(0)
}
