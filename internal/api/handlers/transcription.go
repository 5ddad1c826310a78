package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"upload-whisper/internal/api/dto"
	"upload-whisper/internal/api/errors"
	"upload-whisper/internal/api/middleware"
	"upload-whisper/internal/app/pipeline"
)

// UploadField is the multipart field carrying the media file.
const UploadField = "file"

const successMessage = "Transcription completed successfully!"

// TranscriptionHandler handles transcription-related API endpoints
type TranscriptionHandler struct {
	pipeline *pipeline.Pipeline
	maxBytes int64
}

// NewTranscriptionHandler creates a new transcription handler
func NewTranscriptionHandler(p *pipeline.Pipeline, maxBytes int64) *TranscriptionHandler {
	return &TranscriptionHandler{
		pipeline: p,
		maxBytes: maxBytes,
	}
}

// Transcribe handles POST /transcribe
//
// The request context is detached from the client connection: once accepted,
// a transcription runs to completion and cleans up even if the client goes away.
//
// @Summary Transcribe an audio or video file
// @Description Converts the upload to mono 16kHz WAV when needed and returns the Whisper transcript
// @Tags transcriptions
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Audio or video file (wav, mp3, mp4, avi, mov, flv, ogg, m4a)"
// @Success 200 {object} dto.TranscribeResponse "Transcription completed"
// @Failure 400 {object} errors.APIError "No file, empty filename or unsupported type"
// @Failure 413 {object} errors.APIError "Upload exceeds the size limit"
// @Failure 500 {object} errors.APIError "Model not loaded, conversion or transcription failed"
// @Router /transcribe [post]
func (h *TranscriptionHandler) Transcribe(c *gin.Context) {
	upload, err := middleware.BindUpload(c, UploadField, h.maxBytes)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	result, err := h.pipeline.Handle(context.WithoutCancel(c.Request.Context()), upload)
	if err != nil {
		middleware.HandleError(c, errors.FromPipelineError(err))
		return
	}

	c.JSON(http.StatusOK, dto.TranscribeResponse{
		Success:    true,
		Transcript: result.Transcript,
		Filename:   result.Filename,
		Message:    successMessage,
	})
}

// Health handles GET /health
//
// @Summary Health check
// @Description Reports liveness and whether the Whisper model is loaded
// @Tags health
// @Produce json
// @Success 200 {object} dto.HealthResponse
// @Router /health [get]
func (h *TranscriptionHandler) Health(c *gin.Context) {
	model := "not loaded"
	if h.pipeline.Ready() {
		model = "loaded"
	}

	c.JSON(http.StatusOK, dto.HealthResponse{
		Status:       "healthy",
		WhisperModel: model,
	})
}

// Home handles GET /
//
// @Summary API banner
// @Tags health
// @Produce json
// @Success 200 {object} dto.BannerResponse
// @Router / [get]
func (h *TranscriptionHandler) Home(c *gin.Context) {
	c.JSON(http.StatusOK, dto.BannerResponse{
		Status:  "success",
		Message: "🎙️ Audio/Video to Text API is running!",
		Endpoints: map[string]string{
			"/transcribe": "POST - Upload audio/video file for transcription",
			"/health":     "GET - Check API health",
		},
	})
}
