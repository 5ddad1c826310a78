package dto

// TranscribeResponse is returned by POST /transcribe on success.
type TranscribeResponse struct {
	Success    bool   `json:"success"`
	Transcript string `json:"transcript"`
	Filename   string `json:"filename"`
	Message    string `json:"message"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status       string `json:"status"`
	WhisperModel string `json:"whisper_model"`
}

// BannerResponse is returned by GET /.
type BannerResponse struct {
	Status    string            `json:"status"`
	Message   string            `json:"message"`
	Endpoints map[string]string `json:"endpoints"`
}
