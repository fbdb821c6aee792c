package console

import (
	"bytes"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newTestPrinter(input string) (*Printer, *bytes.Buffer) {
	var out bytes.Buffer
	return New(Options{Out: &out, In: strings.NewReader(input)}), &out
}

func TestPrinter_PlainLines(t *testing.T) {
	p, out := newTestPrinter("")

	p.Title("Searching '%s' online...", "one piece")
	p.Success("DONE: %s", "/tmp/x.pdf")
	p.Warn("Last downloaded chapter: %v", 12)
	p.Error("Chapters not found: %s", "4")
	p.Info("ONE PIECE")
	p.Dim("3 chapters will be downloaded - Cancel with Ctrl+C")

	expected := strings.Join([]string{
		"Searching 'one piece' online...",
		"DONE: /tmp/x.pdf",
		"Last downloaded chapter: 12",
		"Chapters not found: 4",
		"ONE PIECE",
		"3 chapters will be downloaded - Cancel with Ctrl+C",
		"",
	}, "\n")
	assert.Equal(t, expected, out.String())
	assert.NotContains(t, out.String(), "\x1b[")
}

func TestPrinter_Exists(t *testing.T) {
	p, out := newTestPrinter("")

	p.Exists("Page 3/20")
	p.Exists("a label that is longer than twenty")

	lines := strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n")
	assert.Equal(t, "Page 3/20           - Already exists", lines[0])
	assert.Equal(t, "a label that is longer than twenty- Already exists", lines[1])
}

func TestPrinter_Progress(t *testing.T) {
	p, out := newTestPrinter("")

	p.Progress("Page 5/20", 5, 20)
	p.Progress("Page 0/0", 0, 0)

	lines := strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n")
	assert.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "Page 5/20 (25%)"), lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "Page 0/0 (0%)"), lines[1])
}

func TestPrinter_Confirm(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected bool
	}{
		{"yes", "y\n", true},
		{"long yes", "YES\n", true},
		{"no", "n\n", false},
		{"empty line", "\n", false},
		{"end of input", "", false},
		{"yes without newline", "y", true},
		{"anything else", "maybe\n", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, out := newTestPrinter(tt.input)
			assert.Equal(t, tt.expected, p.Confirm("Continue?", false))
			assert.Contains(t, out.String(), "Continue? [y/N]: ")
		})
	}
}

func TestPrinter_ConfirmAssumeYes(t *testing.T) {
	p, out := newTestPrinter("n\n")

	assert.True(t, p.Confirm("Continue?", true))
	assert.Equal(t, "Continue? [y/N]: y\n", out.String())
}

func TestPrinter_ConcurrentUse(t *testing.T) {
	p, out := newTestPrinter("")

	var wg sync.WaitGroup
	for i := 1; i <= 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.Progress("Page", i, 20)
		}()
	}
	wg.Wait()

	assert.Len(t, strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n"), 20)
}

func TestPad(t *testing.T) {
	assert.Equal(t, "ab  ", Pad("ab", 4))
	assert.Equal(t, "abcdef", Pad("abcdef", 4))
	// wide runes take two cells
	assert.Equal(t, "漫画 ", Pad("漫画", 5))
}
