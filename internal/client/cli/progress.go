package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/dmitrijs2005/lessonvault/internal/client/transfer"
	"golang.org/x/term"
)

const defaultWidth = 80

// terminalWidth is a test seam for the width of stdout.
var terminalWidth = func() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		return defaultWidth
	}
	return w
}

// progressLine redraws a single status line with carriage returns.
type progressLine struct {
	mu     sync.Mutex
	w      io.Writer
	width  func() int
	active bool
}

func newProgressLine(w io.Writer, width func() int) *progressLine {
	return &progressLine{w: w, width: width}
}

func (p *progressLine) render(pr transfer.Progress) {
	p.mu.Lock()
	defer p.mu.Unlock()

	width := p.width()
	stats := fmt.Sprintf(" %5.1f%% %d/%d %s  %.1f MB  %s/s", pr.Percent(), pr.FileIndex+1, pr.FileCount,
		pr.FileName, pr.UploadedMB(), formatBytes(int64(pr.Throughput())))

	bar := width - len(stats) - 3
	if bar > 40 {
		bar = 40
	}
	line := stats
	if bar >= 5 {
		filled := int(pr.Percent() / 100 * float64(bar))
		line = "[" + strings.Repeat("#", filled) + strings.Repeat(".", bar-filled) + "]" + stats
	}
	if len(line) > width-1 {
		line = line[:width-1]
	}

	fmt.Fprintf(p.w, "\r%-*s", width-1, line)
	p.active = true
}

// finish moves the cursor past a drawn line.
func (p *progressLine) finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.active {
		fmt.Fprintln(p.w)
		p.active = false
	}
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
