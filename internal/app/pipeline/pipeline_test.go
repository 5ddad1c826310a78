package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"upload-whisper/internal/app/audio"
	"upload-whisper/internal/app/metrics"
	"upload-whisper/internal/app/testutil"
	"upload-whisper/internal/app/util/files"
)

type fixture struct {
	uploadDir   string
	tempDir     string
	transcoder  *testutil.MockTranscoder
	transcriber *testutil.MockTranscriber
	metrics     *metrics.Metrics
	pipeline    *Pipeline
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()

	f := &fixture{
		uploadDir:   t.TempDir(),
		tempDir:     t.TempDir(),
		transcoder:  &testutil.MockTranscoder{},
		transcriber: &testutil.MockTranscriber{},
		metrics:     metrics.New(),
	}
	opts.UploadDir = f.uploadDir
	opts.TempDir = f.tempDir
	f.pipeline = New(f.transcoder, f.transcriber, opts, nil, f.metrics)
	return f
}

func (f *fixture) assertNoArtifacts(t *testing.T) {
	t.Helper()
	testutil.AssertDirEmpty(t, f.uploadDir)
	testutil.AssertDirEmpty(t, f.tempDir)
}

func uploadOf(name string, data []byte) *Upload {
	return &Upload{
		Filename: name,
		Size:     int64(len(data)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

// convertWritesCanonical makes the mock transcoder produce a real WAV file.
func convertWritesCanonical(t *testing.T) func(mock.Arguments) {
	return func(args mock.Arguments) {
		testutil.WriteWav(t, args.String(2), audio.CanonicalSampleRate, audio.CanonicalChannels, 1600)
	}
}

func TestHandle_Validation(t *testing.T) {
	tests := []struct {
		name          string
		noTranscriber bool
		upload        *Upload
		wantErr       error
	}{
		{name: "model not loaded", noTranscriber: true, upload: uploadOf("speech.mp3", []byte("x")), wantErr: ErrServiceUnavailable},
		{name: "model not loaded beats missing file", noTranscriber: true, upload: nil, wantErr: ErrServiceUnavailable},
		{name: "no file", upload: nil, wantErr: ErrNoFile},
		{name: "empty filename", upload: uploadOf("", []byte("x")), wantErr: ErrNoFileSelected},
		{name: "text file", upload: uploadOf("notes.txt", []byte("x")), wantErr: ErrUnsupportedType},
		{name: "no extension", upload: uploadOf("speech", []byte("x")), wantErr: ErrUnsupportedType},
		{name: "double extension", upload: uploadOf("speech.mp3.exe", []byte("x")), wantErr: ErrUnsupportedType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, Options{})
			if tt.noTranscriber {
				f.pipeline = New(f.transcoder, nil, Options{UploadDir: f.uploadDir, TempDir: f.tempDir}, nil, nil)
			}

			opened := false
			if tt.upload != nil {
				open := tt.upload.Open
				tt.upload.Open = func() (io.ReadCloser, error) {
					opened = true
					return open()
				}
			}

			res, err := f.pipeline.Handle(context.Background(), tt.upload)
			assert.Nil(t, res)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.False(t, opened, "upload must not be read before validation passes")

			f.transcoder.AssertNotCalled(t, "Convert", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
			f.transcriber.AssertNotCalled(t, "Transcribe", mock.Anything, mock.Anything, mock.Anything)
			f.assertNoArtifacts(t)
		})
	}
}

func TestHandle_ConvertsNonWavInput(t *testing.T) {
	for _, ext := range files.SupportedExtensions {
		if ext == "wav" {
			continue
		}

		t.Run(ext, func(t *testing.T) {
			f := newFixture(t, Options{})
			content := []byte("media bytes for " + ext)
			name := "speech." + ext

			var wavPath string
			f.transcoder.On("Convert", mock.Anything, filepath.Join(f.uploadDir, name), mock.AnythingOfType("string"), 16000, 1).
				Run(func(args mock.Arguments) {
					stored, err := os.ReadFile(args.String(1))
					require.NoError(t, err)
					assert.Equal(t, content, stored)

					wavPath = args.String(2)
					assert.Equal(t, f.tempDir, filepath.Dir(wavPath))
					assert.True(t, strings.HasSuffix(wavPath, ".wav"))
					convertWritesCanonical(t)(args)
				}).
				Return(nil).Once()

			f.transcriber.On("Transcribe", mock.Anything, mock.AnythingOfType("string"), "en").
				Run(func(args mock.Arguments) {
					assert.Equal(t, wavPath, args.String(1))
					assert.FileExists(t, args.String(1))
				}).
				Return("  hello world \n", nil).Once()

			res, err := f.pipeline.Handle(context.Background(), uploadOf(name, content))
			require.NoError(t, err)
			assert.Equal(t, "hello world", res.Transcript)
			assert.Equal(t, name, res.Filename)

			f.transcoder.AssertExpectations(t)
			f.transcriber.AssertExpectations(t)
			f.assertNoArtifacts(t)
		})
	}
}

func TestHandle_WavIsCopiedVerbatim(t *testing.T) {
	f := newFixture(t, Options{})
	content := testutil.CanonicalWav(t)

	f.transcriber.On("Transcribe", mock.Anything, mock.AnythingOfType("string"), "en").
		Run(func(args mock.Arguments) {
			copied, err := os.ReadFile(args.String(1))
			require.NoError(t, err)
			assert.Equal(t, content, copied)
			assert.Equal(t, f.tempDir, filepath.Dir(args.String(1)))
		}).
		Return("ask not what your country can do for you", nil).Once()

	res, err := f.pipeline.Handle(context.Background(), uploadOf("JFK.WAV", content))
	require.NoError(t, err)
	assert.Equal(t, "ask not what your country can do for you", res.Transcript)
	assert.Equal(t, "JFK.WAV", res.Filename)

	f.transcoder.AssertNotCalled(t, "Convert", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.assertNoArtifacts(t)
}

func TestHandle_ConversionFailure(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{name: "ffmpeg missing", err: fmt.Errorf("%w: exec: \"ffmpeg\": executable file not found in $PATH", audio.ErrTranscoderNotFound)},
		{name: "non-zero exit", err: &audio.ConversionError{ExitCode: 1, Stderr: "moov atom not found"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, Options{})
			f.transcoder.On("Convert", mock.Anything, mock.Anything, mock.Anything, 16000, 1).
				Return(tt.err).Once()

			res, err := f.pipeline.Handle(context.Background(), uploadOf("clip.mov", []byte("not really a mov")))
			assert.Nil(t, res)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrConversionFailed)
			assert.ErrorIs(t, err, tt.err)
			assert.Equal(t, tt.err, Cause(err))

			f.transcriber.AssertNotCalled(t, "Transcribe", mock.Anything, mock.Anything, mock.Anything)
			f.assertNoArtifacts(t)
		})
	}
}

func TestHandle_TranscriptionFailure(t *testing.T) {
	f := newFixture(t, Options{})
	f.transcoder.On("Convert", mock.Anything, mock.Anything, mock.Anything, 16000, 1).
		Run(convertWritesCanonical(t)).Return(nil).Once()
	f.transcriber.On("Transcribe", mock.Anything, mock.Anything, "en").
		Return("", errors.New("CUDA out of memory")).Once()

	res, err := f.pipeline.Handle(context.Background(), uploadOf("speech.flac", []byte("flac")))
	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrTranscriptionFailed)
	assert.Equal(t, "CUDA out of memory", Cause(err).Error())
	assert.Equal(t, "transcription failed: CUDA out of memory", err.Error())

	f.assertNoArtifacts(t)
}

func TestHandle_OpenFailure(t *testing.T) {
	f := newFixture(t, Options{})
	upload := &Upload{
		Filename: "speech.mp3",
		Open: func() (io.ReadCloser, error) {
			return nil, errors.New("multipart: part closed")
		},
	}

	_, err := f.pipeline.Handle(context.Background(), upload)
	assert.ErrorIs(t, err, ErrInternal)
	assert.Equal(t, "internal", Outcome(err))
	f.assertNoArtifacts(t)
}

func TestHandle_SameFileTwiceIsIdempotent(t *testing.T) {
	f := newFixture(t, Options{})
	f.transcoder.On("Convert", mock.Anything, mock.Anything, mock.Anything, 16000, 1).
		Run(convertWritesCanonical(t)).Return(nil).Twice()
	f.transcriber.On("Transcribe", mock.Anything, mock.Anything, "en").
		Return("the same words", nil).Twice()

	content := []byte("ogg payload")
	first, err := f.pipeline.Handle(context.Background(), uploadOf("memo.ogg", content))
	require.NoError(t, err)
	second, err := f.pipeline.Handle(context.Background(), uploadOf("memo.ogg", content))
	require.NoError(t, err)

	assert.Equal(t, first, second)
	f.assertNoArtifacts(t)
}

func TestHandle_SanitizesStoredPath(t *testing.T) {
	f := newFixture(t, Options{})
	f.transcoder.On("Convert", mock.Anything, filepath.Join(f.uploadDir, "evil_speech.mp3"), mock.Anything, 16000, 1).
		Run(convertWritesCanonical(t)).Return(nil).Once()
	f.transcriber.On("Transcribe", mock.Anything, mock.Anything, "en").Return("ok", nil).Once()

	res, err := f.pipeline.Handle(context.Background(), uploadOf("../../evil speech.mp3", []byte("x")))
	require.NoError(t, err)
	assert.Equal(t, "evil_speech.mp3", res.Filename)

	f.transcoder.AssertExpectations(t)
	f.assertNoArtifacts(t)
}

func TestHandle_UniqueNames(t *testing.T) {
	f := newFixture(t, Options{UniqueNames: true})
	stored := regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}_speech\.mp3$`)

	var inputs []string
	f.transcoder.On("Convert", mock.Anything, mock.MatchedBy(func(path string) bool {
		return filepath.Dir(path) == f.uploadDir && stored.MatchString(filepath.Base(path))
	}), mock.Anything, 16000, 1).
		Run(func(args mock.Arguments) {
			inputs = append(inputs, args.String(1))
			convertWritesCanonical(t)(args)
		}).Return(nil).Twice()
	f.transcriber.On("Transcribe", mock.Anything, mock.Anything, "en").Return("ok", nil).Twice()

	// The same client request id twice must still land on two stored paths.
	for range 2 {
		upload := uploadOf("speech.mp3", []byte("x"))
		upload.RequestID = "req-42"

		res, err := f.pipeline.Handle(context.Background(), upload)
		require.NoError(t, err)
		assert.Equal(t, "speech.mp3", res.Filename)
	}

	require.Len(t, inputs, 2)
	assert.NotEqual(t, inputs[0], inputs[1])
	assert.NotContains(t, inputs[0], "req-42")

	f.transcoder.AssertExpectations(t)
	f.assertNoArtifacts(t)
}

func TestWithUniqueNames(t *testing.T) {
	f := newFixture(t, Options{})
	unique := f.pipeline.WithUniqueNames()

	var input string
	f.transcoder.On("Convert", mock.Anything, mock.Anything, mock.Anything, 16000, 1).
		Run(func(args mock.Arguments) {
			input = args.String(1)
			convertWritesCanonical(t)(args)
		}).Return(nil).Once()
	f.transcriber.On("Transcribe", mock.Anything, mock.Anything, "en").Return("ok", nil).Once()

	_, err := unique.Handle(context.Background(), uploadOf("speech.mp3", []byte("x")))
	require.NoError(t, err)

	assert.NotEqual(t, filepath.Join(f.uploadDir, "speech.mp3"), input)
	assert.True(t, strings.HasSuffix(input, "_speech.mp3"))
	assert.False(t, f.pipeline.opts.UniqueNames, "the original pipeline is left unchanged")
}

func TestHandle_CleanupFailureKeepsResult(t *testing.T) {
	f := newFixture(t, Options{})

	var wavPath string
	f.transcriber.On("Transcribe", mock.Anything, mock.Anything, "en").
		Run(func(args mock.Arguments) {
			// Replace the scratch wav with a non-empty directory so removal fails.
			wavPath = args.String(1)
			require.NoError(t, os.Remove(wavPath))
			require.NoError(t, os.Mkdir(wavPath, 0o755))
			require.NoError(t, os.WriteFile(filepath.Join(wavPath, "held"), []byte("x"), 0o644))
		}).Return("still here", nil).Once()

	res, err := f.pipeline.Handle(context.Background(), uploadOf("a.wav", testutil.CanonicalWav(t)))
	require.NoError(t, err)
	assert.Equal(t, &Result{Transcript: "still here", Filename: "a.wav"}, res)

	testutil.AssertDirEmpty(t, f.uploadDir)
	assert.DirExists(t, wavPath)
	require.NoError(t, os.RemoveAll(wavPath))

	rec := httptest.NewRecorder()
	f.metrics.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Contains(t, rec.Body.String(), "upload_whisper_cleanup_failures_total 1")
	assert.Contains(t, rec.Body.String(), `upload_whisper_transcriptions_total{outcome="success"} 1`)
}

func TestHandle_Language(t *testing.T) {
	f := newFixture(t, Options{Language: "de"})
	f.transcriber.On("Transcribe", mock.Anything, mock.Anything, "de").Return("hallo", nil).Once()

	res, err := f.pipeline.Handle(context.Background(), uploadOf("gruss.wav", testutil.CanonicalWav(t)))
	require.NoError(t, err)
	assert.Equal(t, "hallo", res.Transcript)
	f.transcriber.AssertExpectations(t)
}

func TestStoredName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{input: "speech.mp3", want: "speech.mp3"},
		{input: "My Talk.MOV", want: "My_Talk.MOV"},
		{input: "录音.m4a", want: "upload.m4a"},
		{input: "../.wav", want: "upload.wav"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, StoredName(tt.input))
		})
	}
}

func TestOutcome(t *testing.T) {
	assert.Equal(t, "success", Outcome(nil))
	assert.Equal(t, "service_unavailable", Outcome(ErrServiceUnavailable))
	assert.Equal(t, "bad_request", Outcome(ErrNoFile))
	assert.Equal(t, "bad_request", Outcome(ErrNoFileSelected))
	assert.Equal(t, "bad_request", Outcome(ErrUnsupportedType))
	assert.Equal(t, "conversion_failed", Outcome(stageError(ErrConversionFailed, errors.New("x"))))
	assert.Equal(t, "transcription_failed", Outcome(stageError(ErrTranscriptionFailed, errors.New("x"))))
	assert.Equal(t, "internal", Outcome(errors.New("boom")))
}

func TestReady(t *testing.T) {
	assert.True(t, New(nil, &testutil.MockTranscriber{}, Options{}, nil, nil).Ready())
	assert.False(t, New(nil, nil, Options{}, nil, nil).Ready())
}
