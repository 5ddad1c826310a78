// Package batch runs the transcription pipeline over local files.
package batch

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
	"upload-whisper/internal/app/pipeline"
	"upload-whisper/internal/app/util/files"
)

// Item is the outcome for one input file.
type Item struct {
	Path   string
	Result *pipeline.Result
	Err    error
}

type Runner struct {
	pipeline *pipeline.Pipeline
	parallel int
	progress ProgressConfig
	logger   *zap.Logger
}

// NewRunner wraps p for local files. Stored inputs always get unique names
// because one run may contain several files with the same base name.
func NewRunner(p *pipeline.Pipeline, parallel int, progress ProgressConfig, logger *zap.Logger) *Runner {
	if parallel < 1 {
		parallel = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		pipeline: p.WithUniqueNames(),
		parallel: parallel,
		progress: progress,
		logger:   logger,
	}
}

// Run transcribes paths with at most parallel files in flight. Items are
// returned in input order. Files not started before ctx is done report
// ctx.Err().
func (r *Runner) Run(ctx context.Context, paths []string) []Item {
	items := make([]Item, len(paths))
	if len(paths) == 0 {
		return items
	}

	bar := newProgress(r.progress, len(paths))
	sem := make(chan struct{}, r.parallel)

	var wg sync.WaitGroup
	for i, path := range paths {
		items[i].Path = path

		wg.Add(1)
		go func(item *Item) {
			defer wg.Done()
			defer func() { bar.done(item.Err) }()

			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				item.Err = ctx.Err()
				return
			}
			defer func() { <-sem }()

			bar.start(item.Path)
			item.Result, item.Err = r.pipeline.Handle(ctx, fileUpload(item.Path))
			if item.Err != nil {
				r.logger.Error("Error transcribing file", zap.String("path", item.Path), zap.Error(item.Err))
			} else {
				r.logger.Debug("Successfully transcribed file", zap.String("path", item.Path))
			}
		}(&items[i])
	}
	wg.Wait()
	bar.wait()

	return items
}

func fileUpload(path string) *pipeline.Upload {
	upload := &pipeline.Upload{
		Filename: filepath.Base(path),
		Open: func() (io.ReadCloser, error) {
			return os.Open(path)
		},
	}
	if info, err := os.Stat(path); err == nil {
		upload.Size = info.Size()
	}
	return upload
}

// TranscriptNames returns one output file name per path, in order. A path
// gets <stem>.txt unless another path shares its stem; those get the parent
// directory prepended, and a numeric suffix if that still collides.
func TranscriptNames(paths []string) []string {
	stems := make([]string, len(paths))
	seen := make(map[string]int, len(paths))
	for i, path := range paths {
		name := pipeline.StoredName(filepath.Base(path))
		stems[i] = strings.TrimSuffix(name, filepath.Ext(name))
		seen[stems[i]]++
	}

	names := make([]string, len(paths))
	used := make(map[string]bool, len(paths))
	for i, path := range paths {
		stem := stems[i]
		if seen[stem] > 1 {
			if parent := parentName(path); parent != "" {
				stem = parent + "_" + stem
			}
		}

		name := stem + ".txt"
		for n := 2; used[name]; n++ {
			name = fmt.Sprintf("%s_%d.txt", stem, n)
		}
		used[name] = true
		names[i] = name
	}
	return names
}

func parentName(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return files.SecureFilename(filepath.Base(filepath.Dir(path)))
}
