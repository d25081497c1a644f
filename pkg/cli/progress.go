package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

// ProgressReporter reports progress for long-running operations.
type ProgressReporter interface {
	Start(total int)
	Increment(label string)
	Finish()
	Error(err error)
}

// SimpleProgress renders a single updating progress line.
type SimpleProgress struct {
	mu      sync.Mutex
	verb    string
	total   int
	current int
	writer  io.Writer
}

// NewProgressReporter creates a progress reporter writing to w, or to
// os.Stderr when w is nil. verb prefixes the line, e.g. "Imported".
func NewProgressReporter(w io.Writer, verb string) *SimpleProgress {
	if w == nil {
		w = os.Stderr
	}
	return &SimpleProgress{writer: w, verb: verb}
}

// Start initializes the progress reporter with the total number of items.
func (p *SimpleProgress) Start(total int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.total = total
	p.current = 0
	p.render("")
}

// Increment counts one processed item.
func (p *SimpleProgress) Increment(label string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.current++
	p.render(label)
}

// Finish ends the progress line.
func (p *SimpleProgress) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.render("")
	fmt.Fprintln(p.writer)
}

// Error reports an error during progress.
func (p *SimpleProgress) Error(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	fmt.Fprintf(p.writer, "\n✗ Error: %v\n", err)
}

func (p *SimpleProgress) render(label string) {
	if p.total == 0 {
		return
	}

	const barWidth = 30
	filled := barWidth * p.current / p.total
	if filled > barWidth {
		filled = barWidth
	}
	bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)

	line := fmt.Sprintf("\r%s [%s] %d/%d", p.verb, bar, p.current, p.total)
	if label != "" {
		line += " " + label
	}
	fmt.Fprint(p.writer, line)
}
