package cli

import (
	"bytes"
	"errors"
	"strings"
	"sync"
	"testing"
)

func TestSimpleProgressBasic(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgressReporter(&buf, "Imported")

	p.Start(2)
	p.Increment("providers/openai")
	p.Increment("tools/search")
	p.Finish()

	out := buf.String()
	for _, want := range []string{"Imported", "1/2 providers/openai", "2/2 tools/search"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if !strings.HasSuffix(out, "\n") {
		t.Error("Finish should end the line")
	}
}

func TestSimpleProgressZeroTotal(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgressReporter(&buf, "Imported")

	p.Start(0)
	p.Increment("x")
	p.Finish()

	if buf.String() != "\n" {
		t.Errorf("zero total should render nothing but the final newline, got %q", buf.String())
	}
}

func TestSimpleProgressError(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgressReporter(&buf, "Imported")

	p.Start(3)
	p.Error(errors.New("store unavailable"))

	if !strings.Contains(buf.String(), "✗ Error: store unavailable") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestSimpleProgressConcurrent(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgressReporter(&buf, "Imported")
	p.Start(50)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.Increment("")
		}()
	}
	wg.Wait()
	p.Finish()

	if !strings.Contains(buf.String(), "50/50") {
		t.Error("all increments should be counted")
	}
}

func TestNewProgressReporterNilWriter(t *testing.T) {
	p := NewProgressReporter(nil, "Imported")
	if p.writer == nil {
		t.Error("nil writer should default to stderr")
	}
}
