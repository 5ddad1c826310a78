package batch

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

type ProgressConfig struct {
	Enabled bool
	Writer  io.Writer
}

// progress draws a single bar for one batch run. The label follows the file
// most recently started and the tail counts failed files. A nil *progress
// is valid and draws nothing.
type progress struct {
	container *mpb.Progress
	bar       *mpb.Bar

	mu      sync.Mutex
	current string
	failed  atomic.Int64
}

func newProgress(config ProgressConfig, total int) *progress {
	if !config.Enabled || total == 0 {
		return nil
	}

	writer := config.Writer
	if writer == nil {
		writer = os.Stderr
	}

	p := &progress{
		container: mpb.New(
			mpb.WithOutput(writer),
			mpb.WithRefreshRate(120*time.Millisecond),
			mpb.WithAutoRefresh(),
		),
	}
	p.bar = p.container.AddBar(int64(total),
		mpb.PrependDecorators(
			decor.OnComplete(decor.Any(p.label, decor.WCSyncWidthR), "done"),
			decor.CountersNoUnit(" %d/%d", decor.WCSyncWidth),
		),
		mpb.AppendDecorators(
			decor.Any(p.failures, decor.WCSyncSpace),
			decor.OnComplete(decor.Elapsed(decor.ET_STYLE_GO, decor.WCSyncSpace), ""),
		),
	)
	return p
}

// start records path as the file in flight.
func (p *progress) start(path string) {
	if p == nil {
		return
	}
	p.mu.Lock()
	p.current = filepath.Base(path)
	p.mu.Unlock()
}

// done advances the bar by one file, counting it as failed when err is set.
func (p *progress) done(err error) {
	if p == nil {
		return
	}
	if err != nil {
		p.failed.Add(1)
	}
	p.bar.Increment()
}

func (p *progress) wait() {
	if p == nil {
		return
	}
	p.container.Wait()
}

func (p *progress) label(decor.Statistics) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == "" {
		return "waiting"
	}
	return p.current
}

func (p *progress) failures(decor.Statistics) string {
	n := p.failed.Load()
	if n == 0 {
		return ""
	}
	return fmt.Sprintf("%d failed", n)
}

func IsTTY(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	stat, err := file.Stat()
	if err != nil {
		return false
	}
	return stat.Mode()&os.ModeCharDevice != 0
}

// ShouldShowProgress reports whether bars should be drawn: always when
// forced, otherwise only on a terminal.
func ShouldShowProgress(forced bool) bool {
	return forced || IsTTY(os.Stderr)
}
