// Package console prints the user-facing status lines of a run: colored
// messages, per-page progress and the continue prompt.
package console

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/termenv"
)

// labelWidth is the column "- Already exists" is aligned to
const labelWidth = 20

const barWidth = 20

// Printer writes styled lines to out and reads answers from in. It is safe
// for concurrent use.
type Printer struct {
	mu     sync.Mutex
	out    io.Writer
	in     *bufio.Reader
	styles Styles
	bar    progress.Model
}

// Options configure a Printer
type Options struct {
	Out   io.Writer
	In    io.Reader
	Color bool
}

// New creates a printer. Without Color every line is plain ASCII.
func New(opts Options) *Printer {
	renderer := lipgloss.NewRenderer(opts.Out)
	if !opts.Color {
		renderer.SetColorProfile(termenv.Ascii)
	}

	in := opts.In
	if in == nil {
		in = strings.NewReader("")
	}

	return &Printer{
		out:    opts.Out,
		in:     bufio.NewReader(in),
		styles: NewStyles(renderer),
		bar: progress.New(
			progress.WithGradient(string(colorBlue), string(colorPurple)),
			progress.WithWidth(barWidth),
			progress.WithoutPercentage(),
			progress.WithColorProfile(renderer.ColorProfile()),
		),
	}
}

func (p *Printer) println(style lipgloss.Style, format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.out, style.Render(fmt.Sprintf(format, args...)))
}

// Title prints a bold heading line
func (p *Printer) Title(format string, args ...any) {
	p.println(p.styles.Title, format, args...)
}

// Success prints a green line
func (p *Printer) Success(format string, args ...any) {
	p.println(p.styles.Success, format, args...)
}

// Warn prints a bright yellow line
func (p *Printer) Warn(format string, args ...any) {
	p.println(p.styles.Warn, format, args...)
}

// Error prints a bright red line
func (p *Printer) Error(format string, args ...any) {
	p.println(p.styles.Error, format, args...)
}

// Info prints a blue line
func (p *Printer) Info(format string, args ...any) {
	p.println(p.styles.Info, format, args...)
}

// Dim prints a muted line
func (p *Printer) Dim(format string, args ...any) {
	p.println(p.styles.Dim, format, args...)
}

// Exists reports a file that is kept as is
func (p *Printer) Exists(label string) {
	p.println(p.styles.Exists, "%s- Already exists", Pad(label, labelWidth))
}

// Progress prints "label (p%)" followed by a progress bar
func (p *Printer) Progress(label string, done, total int) {
	percent := 0.0
	if total > 0 {
		percent = float64(done) / float64(total)
	}
	percent = min(max(percent, 0), 1)

	p.mu.Lock()
	defer p.mu.Unlock()
	text := fmt.Sprintf("%s (%d%%)", label, int(percent*100))
	fmt.Fprintf(p.out, "%s %s\n", p.styles.Success.UnsetBold().Render(Pad(text, labelWidth)), p.bar.ViewAs(percent))
}

// Confirm asks a yes/no question. assumeYes answers without reading input.
// Anything but y/yes, including end of input, is a no.
func (p *Printer) Confirm(question string, assumeYes bool) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if assumeYes {
		fmt.Fprintf(p.out, "%s [y/N]: y\n", p.styles.Warn.Render(question))
		return true
	}

	fmt.Fprintf(p.out, "%s [y/N]: ", p.styles.Warn.Render(question))
	answer, err := p.in.ReadString('\n')
	if err != nil && answer == "" {
		fmt.Fprintln(p.out)
		return false
	}

	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

// Pad right-pads s with spaces to width terminal cells. Wider strings are
// returned unchanged.
func Pad(s string, width int) string {
	if w := runewidth.StringWidth(s); w < width {
		return s + strings.Repeat(" ", width-w)
	}
	return s
}
