package cli

import (
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/schollz/progressbar/v3"
)

// Progress draws a progress bar for a batch run. Its Update method matches
// the engine progress callback.
type Progress struct {
	writer io.Writer
	bar    *progressbar.ProgressBar
	mu     sync.Mutex
}

// NewProgress creates a progress bar writing to w. The bar is sized on the
// first update, so the total does not need to be known up front.
func NewProgress(w io.Writer) *Progress {
	return &Progress{writer: w}
}

// Update reports done of total messages.
func (p *Progress) Update(done, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if total <= 0 {
		return
	}
	if p.bar == nil {
		p.bar = p.newBar(total)
	}
	if err := p.bar.Set(done); err != nil {
		slog.Warn("Failed to update progress bar", "error", err)
	}
}

// Finish completes the bar if it was started.
func (p *Progress) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.bar == nil || p.bar.IsFinished() {
		return
	}
	if err := p.bar.Finish(); err != nil {
		slog.Warn("Failed to finish progress bar", "error", err)
	}
}

func (p *Progress) newBar(total int) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(p.writer),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan][bold]Classifying messages...[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			if _, err := fmt.Fprintln(p.writer); err != nil {
				slog.Warn("Failed to write newline after progress bar", "error", err)
			}
		}),
	)
}
