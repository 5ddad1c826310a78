package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"

	"upload-whisper/internal/app/pipeline"
)

// ErrorKind represents different types of API errors
type ErrorKind string

const (
	KindBadRequest          ErrorKind = "bad_request"
	KindPayloadTooLarge     ErrorKind = "payload_too_large"
	KindConversionFailed    ErrorKind = "conversion_failed"
	KindTranscriptionFailed ErrorKind = "transcription_failed"
	KindServiceUnavailable  ErrorKind = "service_unavailable"
	KindInternal            ErrorKind = "internal"
)

// Client-facing messages.
const (
	MsgModelNotLoaded    = "Whisper model not loaded"
	MsgNoFile            = "No file uploaded"
	MsgNoFileSelected    = "No file selected"
	MsgUnsupportedType   = "File type not supported"
	MsgConversionFailed  = "Failed to convert audio file"
	MsgInternal          = "Internal server error"
	MsgFileTooLargeFmt   = "File too large. Maximum size is %dMB."
	transcriptionFailure = "Transcription failed: %s"
)

// APIError is an error that knows its HTTP status. Only Message reaches the
// client, as {"error": Message}.
type APIError struct {
	Kind    ErrorKind `json:"-"`
	Message string    `json:"error"`
	Err     error     `json:"-"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// HTTPStatus returns the appropriate HTTP status code for the error kind.
// A missing model is reported as 500, matching what existing clients expect.
func (e *APIError) HTTPStatus() int {
	switch e.Kind {
	case KindBadRequest:
		return http.StatusBadRequest
	case KindPayloadTooLarge:
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}

// NewBadRequestError creates a bad request error
func NewBadRequestError(message string) *APIError {
	return &APIError{Kind: KindBadRequest, Message: message}
}

// NewPayloadTooLargeError reports an upload over limit bytes.
func NewPayloadTooLargeError(limit int64) *APIError {
	return &APIError{
		Kind:    KindPayloadTooLarge,
		Message: fmt.Sprintf(MsgFileTooLargeFmt, limit/(1<<20)),
	}
}

// NewInternalError hides err behind the generic message.
func NewInternalError(err error) *APIError {
	return &APIError{Kind: KindInternal, Message: MsgInternal, Err: err}
}

// FromPipelineError maps an error returned by pipeline.Handle to the
// response sent to the client.
func FromPipelineError(err error) *APIError {
	if err == nil {
		return nil
	}

	var apiErr *APIError
	if stderrors.As(err, &apiErr) {
		return apiErr
	}

	switch {
	case stderrors.Is(err, pipeline.ErrServiceUnavailable):
		return &APIError{Kind: KindServiceUnavailable, Message: MsgModelNotLoaded, Err: err}
	case stderrors.Is(err, pipeline.ErrNoFile):
		return &APIError{Kind: KindBadRequest, Message: MsgNoFile, Err: err}
	case stderrors.Is(err, pipeline.ErrNoFileSelected):
		return &APIError{Kind: KindBadRequest, Message: MsgNoFileSelected, Err: err}
	case stderrors.Is(err, pipeline.ErrUnsupportedType):
		return &APIError{Kind: KindBadRequest, Message: MsgUnsupportedType, Err: err}
	case stderrors.Is(err, pipeline.ErrConversionFailed):
		return &APIError{Kind: KindConversionFailed, Message: MsgConversionFailed, Err: err}
	case stderrors.Is(err, pipeline.ErrTranscriptionFailed):
		return &APIError{
			Kind:    KindTranscriptionFailed,
			Message: fmt.Sprintf(transcriptionFailure, pipeline.Cause(err).Error()),
			Err:     err,
		}
	default:
		return NewInternalError(err)
	}
}
