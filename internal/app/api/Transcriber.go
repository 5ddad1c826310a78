package api

import "context"

// Transcriber converts a canonical (mono, 16 kHz) WAV file into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath, language string) (string, error)
}
