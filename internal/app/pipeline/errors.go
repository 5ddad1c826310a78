package pipeline

import (
	"errors"
)

// Validation and stage failures. Callers match them with errors.Is.
var (
	ErrServiceUnavailable  = errors.New("whisper model not loaded")
	ErrNoFile              = errors.New("no file uploaded")
	ErrNoFileSelected      = errors.New("no file selected")
	ErrUnsupportedType     = errors.New("unsupported file type")
	ErrConversionFailed    = errors.New("failed to convert audio file")
	ErrTranscriptionFailed = errors.New("transcription failed")
	ErrInternal            = errors.New("internal error")
)

// StageError ties the cause of a failure to the kind of step that failed.
// Both are reachable through errors.Is / errors.As.
type StageError struct {
	Kind error
	Err  error
}

func (e *StageError) Error() string {
	return e.Kind.Error() + ": " + e.Err.Error()
}

func (e *StageError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

func stageError(kind, err error) error {
	return &StageError{Kind: kind, Err: err}
}

// Cause returns the underlying error of a StageError, or err itself.
func Cause(err error) error {
	var se *StageError
	if errors.As(err, &se) {
		return se.Err
	}
	return err
}

// Outcome classifies err into the label used for metrics.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrServiceUnavailable):
		return "service_unavailable"
	case errors.Is(err, ErrNoFile), errors.Is(err, ErrNoFileSelected), errors.Is(err, ErrUnsupportedType):
		return "bad_request"
	case errors.Is(err, ErrConversionFailed):
		return "conversion_failed"
	case errors.Is(err, ErrTranscriptionFailed):
		return "transcription_failed"
	default:
		return "internal"
	}
}
