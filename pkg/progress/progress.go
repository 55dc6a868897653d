package progress

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// GetProgressBar renders a bar like "=====>-----" for a 0-100 percentage.
func GetProgressBar(progress, width int) string {
	if width == 0 {
		width = 50
	}
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}
	barLength := progress * width / 100
	progressBar := strings.Repeat("=", barLength)
	progressBar += ">"
	progressBar += strings.Repeat("-", width-barLength)
	return progressBar
}

// Bar prints a single self-overwriting progress line.
type Bar struct {
	mu    sync.Mutex
	w     io.Writer
	width int
	every int
	start time.Time
}

// NewBar returns a bar that redraws every `every` updates and on the last one.
func NewBar(w io.Writer, width, every int) *Bar {
	if every <= 0 {
		every = 1
	}
	return &Bar{w: w, width: width, every: every, start: time.Now()}
}

// Update redraws the line for done/total.
func (b *Bar) Update(done, total int) {
	if total <= 0 {
		return
	}
	if done%b.every != 0 && done != total {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	percent := done * 100 / total
	elapsed := strings.Split(time.Since(b.start).String(), ".")[0] + "s"
	fmt.Fprint(b.w, "\r\033[2K")
	fmt.Fprintf(b.w, "\r[%s] %d%% (%d/%d), %s", GetProgressBar(percent, b.width), percent, done, total, elapsed)
	if done == total {
		fmt.Fprint(b.w, "\n")
	}
}

// Clear wipes the current line so other output can be printed.
func (b *Bar) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	fmt.Fprint(b.w, "\r\033[2K\r")
}
