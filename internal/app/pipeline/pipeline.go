// Package pipeline implements the lifecycle of a single transcription
// request: validate, persist, convert, transcribe, clean up.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"
	"upload-whisper/internal/app/api"
	"upload-whisper/internal/app/audio"
	"upload-whisper/internal/app/metrics"
	"upload-whisper/internal/app/util/files"
)

// Upload is a file received from a client. It is owned by a single Handle
// call and opened at most once, after validation.
type Upload struct {
	Filename  string
	Size      int64
	Open      func() (io.ReadCloser, error)
	RequestID string
}

// Result is a successful transcription.
type Result struct {
	Transcript string `json:"transcript"`
	Filename   string `json:"filename"`
}

type Options struct {
	UploadDir string
	// TempDir holds canonical audio artifacts; empty means os.TempDir().
	TempDir  string
	Language string
	// UniqueNames prefixes each stored upload with a fresh UUID so that
	// concurrent uploads sharing a name never share a path.
	UniqueNames bool
}

type Pipeline struct {
	transcoder  audio.Transcoder
	transcriber api.Transcriber
	opts        Options
	logger      *zap.Logger
	metrics     *metrics.Metrics
}

// New wires a pipeline. transcriber may be nil when the model failed to load;
// every Handle call then fails with ErrServiceUnavailable.
func New(transcoder audio.Transcoder, transcriber api.Transcriber, opts Options, logger *zap.Logger, m *metrics.Metrics) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Language == "" {
		opts.Language = "en"
	}
	return &Pipeline{
		transcoder:  transcoder,
		transcriber: transcriber,
		opts:        opts,
		logger:      logger,
		metrics:     m,
	}
}

// WithUniqueNames returns a copy of p that stores every upload under a
// UUID-prefixed name, whatever the configured Options say.
func (p *Pipeline) WithUniqueNames() *Pipeline {
	cp := *p
	cp.opts.UniqueNames = true
	return &cp
}

// Ready reports whether a transcriber was loaded.
func (p *Pipeline) Ready() bool {
	return p.transcriber != nil
}

// Validate runs the checks that precede any filesystem or collaborator access.
func (p *Pipeline) Validate(upload *Upload) error {
	if p.transcriber == nil {
		return ErrServiceUnavailable
	}
	if upload == nil {
		return ErrNoFile
	}
	if upload.Filename == "" {
		return ErrNoFileSelected
	}
	if !files.IsSupported(upload.Filename) {
		return ErrUnsupportedType
	}
	return nil
}

// StoredName returns the sanitized name echoed to the client. When
// sanitizing strips the extension, a generic base name is used instead.
func StoredName(clientName string) string {
	ext := files.Extension(clientName)
	name := files.SecureFilename(clientName)
	if !strings.Contains(name, ".") || files.Extension(name) != ext {
		return "upload." + ext
	}
	return name
}

// Handle processes one upload end to end. Both scratch artifacts are removed
// before it returns, whatever the outcome.
func (p *Pipeline) Handle(ctx context.Context, upload *Upload) (result *Result, err error) {
	started := time.Now()
	log := p.logger
	if upload != nil && upload.RequestID != "" {
		log = log.With(zap.String("request_id", upload.RequestID))
	}

	defer func() {
		p.metrics.RecordOutcome(Outcome(err))
		if err != nil {
			log.Error("transcription request failed", zap.Error(err), zap.Duration("elapsed", time.Since(started)))
		}
	}()

	if err := p.Validate(upload); err != nil {
		return nil, err
	}

	filename := StoredName(upload.Filename)
	ext := files.Extension(filename)

	storedName := filename
	if p.opts.UniqueNames {
		storedName = uuid.NewString() + "_" + filename
	}
	inputPath := filepath.Join(p.opts.UploadDir, storedName)

	var wavPath string
	defer func() {
		p.cleanup(log, inputPath, wavPath)
	}()

	if err := p.persist(upload, inputPath); err != nil {
		return nil, stageError(ErrInternal, err)
	}
	log.Info("file saved", zap.String("path", inputPath))

	wavPath, err = files.TempPath(p.opts.TempDir, ".wav")
	if err != nil {
		return nil, stageError(ErrInternal, fmt.Errorf("allocate temp wav: %w", err))
	}

	if ext == "wav" {
		stageStart := time.Now()
		if err := files.CopyFile(inputPath, wavPath); err != nil {
			return nil, stageError(ErrInternal, fmt.Errorf("copy wav input: %w", err))
		}
		p.metrics.ObserveStage(metrics.StageCopy, time.Since(stageStart))
	} else {
		log.Info("converting to wav", zap.String("from", ext))
		stageStart := time.Now()
		if err := p.transcoder.Convert(ctx, inputPath, wavPath, audio.CanonicalSampleRate, audio.CanonicalChannels); err != nil {
			return nil, stageError(ErrConversionFailed, err)
		}
		p.metrics.ObserveStage(metrics.StageConvert, time.Since(stageStart))
	}

	p.inspect(log, wavPath, ext != "wav")

	log.Info("processing audio file", zap.String("path", wavPath))
	stageStart := time.Now()
	text, err := p.transcriber.Transcribe(ctx, wavPath, p.opts.Language)
	if err != nil {
		return nil, stageError(ErrTranscriptionFailed, err)
	}
	p.metrics.ObserveStage(metrics.StageTranscribe, time.Since(stageStart))

	transcript := strings.TrimSpace(text)
	log.Info("transcription completed",
		zap.String("filename", filename),
		zap.String("preview", preview(transcript, 100)),
		zap.Duration("elapsed", time.Since(started)))

	return &Result{Transcript: transcript, Filename: filename}, nil
}

func (p *Pipeline) persist(upload *Upload, path string) error {
	if upload.Open == nil {
		return fmt.Errorf("upload %q has no content", upload.Filename)
	}

	stageStart := time.Now()
	rc, err := upload.Open()
	if err != nil {
		return fmt.Errorf("open upload: %w", err)
	}
	defer rc.Close()

	n, err := files.SaveFile(path, rc)
	if err != nil {
		return fmt.Errorf("save upload: %w", err)
	}

	p.metrics.ObserveUpload(n)
	p.metrics.ObserveStage(metrics.StagePersist, time.Since(stageStart))
	return nil
}

// inspect logs the canonical artifact's format. It never fails the request.
func (p *Pipeline) inspect(log *zap.Logger, wavPath string, converted bool) {
	info, err := audio.InspectWav(wavPath)
	if err != nil {
		log.Debug("could not read wav header", zap.String("path", wavPath), zap.Error(err))
		return
	}

	p.metrics.ObserveAudio(info.Duration)
	if converted && !info.IsCanonical() {
		log.Warn("converted audio is not mono 16kHz",
			zap.Int("sample_rate", info.SampleRate),
			zap.Int("channels", info.Channels))
	}
}

func (p *Pipeline) cleanup(log *zap.Logger, paths ...string) {
	var result *multierror.Error
	for _, path := range paths {
		if err := files.RemoveIfExists(path); err != nil {
			result = multierror.Append(result, err)
		}
	}

	if err := result.ErrorOrNil(); err != nil {
		log.Warn("cleanup error", zap.Error(err))
		p.metrics.CleanupFailed(len(result.Errors))
	}
}

func preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
