package openai

import (
	"github.com/sashabaranov/go-openai"
)

// NewClient creates an OpenAI client, pointing it at baseURL when set
// (useful for OpenAI-compatible self-hosted Whisper servers).
func NewClient(apiKey, baseURL string) *openai.Client {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return openai.NewClientWithConfig(config)
}
