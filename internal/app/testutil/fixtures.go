package testutil

import (
	"bytes"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"testing"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/require"
)

// WriteWav writes a silent 16-bit PCM WAV with the given format and number
// of frames.
func WriteWav(t testing.TB, path string, sampleRate, channels, frames int) {
	t.Helper()

	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	enc := wav.NewEncoder(f, sampleRate, 16, channels, 1)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: channels, SampleRate: sampleRate},
		Data:           make([]int, frames*channels),
		SourceBitDepth: 16,
	}
	require.NoError(t, enc.Write(buf))
	require.NoError(t, enc.Close())
}

// CanonicalWav returns the bytes of a short mono 16 kHz WAV file.
func CanonicalWav(t testing.TB) []byte {
	t.Helper()

	path := filepath.Join(t.TempDir(), "canonical.wav")
	WriteWav(t, path, 16000, 1, 1600)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return data
}

// MultipartUpload builds a multipart body with content stored under field.
// It returns the body and its Content-Type header.
func MultipartUpload(t testing.TB, field, filename string, content []byte) (io.Reader, string) {
	t.Helper()

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	part, err := w.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	return body, w.FormDataContentType()
}

// MultipartFields builds a multipart body carrying only plain form fields.
func MultipartFields(t testing.TB, fields map[string]string) (io.Reader, string) {
	t.Helper()

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	require.NoError(t, w.Close())

	return body, w.FormDataContentType()
}

// AssertDirEmpty fails the test if dir contains any entry.
func AssertDirEmpty(t testing.TB, dir string) {
	t.Helper()

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	require.Empty(t, names, "expected %s to be empty", dir)
}
