package middleware

import (
	stderrors "errors"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"upload-whisper/internal/api/errors"
	"upload-whisper/internal/app/pipeline"
)

// BindUpload extracts the file sent in the multipart field named field.
//
// It returns a nil upload when the request carries no such field, and an
// upload with an empty Filename when the browser sent the field without
// choosing a file. Only an oversized body is reported as an error; any other
// malformed body is treated as a request without a file.
func BindUpload(c *gin.Context, field string, maxBytes int64) (*pipeline.Upload, error) {
	form, err := c.MultipartForm()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			return nil, errors.NewPayloadTooLargeError(maxBytes)
		}
		return nil, nil
	}

	requestID := c.GetString(RequestIDKey)

	if headers := form.File[field]; len(headers) > 0 {
		return fileUpload(headers[0], requestID), nil
	}

	// multipart keeps a part whose filename is empty as a plain value.
	if _, ok := form.Value[field]; ok {
		return &pipeline.Upload{RequestID: requestID}, nil
	}

	return nil, nil
}

func fileUpload(fh *multipart.FileHeader, requestID string) *pipeline.Upload {
	return &pipeline.Upload{
		Filename:  fh.Filename,
		Size:      fh.Size,
		RequestID: requestID,
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}
