package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"upload-whisper/internal/api/handlers"
	"upload-whisper/internal/api/middleware"
)

// Dependencies holds everything the routes need
type Dependencies struct {
	Transcription  *handlers.TranscriptionHandler
	MaxUploadBytes int64
	// Metrics is mounted at /metrics when set.
	Metrics http.Handler
}

// RegisterRoutes registers all API routes on router
func RegisterRoutes(router gin.IRouter, deps Dependencies) {
	router.GET("/", deps.Transcription.Home)
	router.GET("/health", deps.Transcription.Health)
	router.POST("/transcribe", middleware.LimitBody(deps.MaxUploadBytes), deps.Transcription.Transcribe)

	if deps.Metrics != nil {
		router.GET("/metrics", gin.WrapH(deps.Metrics))
	}
}
