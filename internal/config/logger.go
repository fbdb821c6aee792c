package config

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LogToStderr as logging.file sends logs to the console instead of a file
const LogToStderr = "stderr"

// DefaultLogFile returns $XDG_STATE_HOME/mangadl/mangadl.log
func DefaultLogFile() string {
	return filepath.Join(getStateDir(), appName, appName+".log")
}

// InitLogger initializes the application logger based on configuration
func InitLogger(cfg *LoggingConfig) (*slog.Logger, error) {
	level := parseLogLevel(cfg.Level)

	if cfg.File == "" {
		cfg.File = DefaultLogFile()
	}

	isConsole := cfg.File == LogToStderr

	var writer io.Writer
	if isConsole {
		writer = os.Stderr
	} else {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		writer = &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSize, // megabytes
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge, // days
			Compress:   cfg.Compress,
		}
	}

	logger := slog.New(newHandler(writer, cfg.Format, level, cfg.Color && isConsole))
	slog.SetDefault(logger)

	return logger, nil
}

func newHandler(w io.Writer, format string, level slog.Level, color bool) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}

	switch strings.ToLower(format) {
	case LogFormatJSON:
		return slog.NewJSONHandler(w, opts)
	default:
		// Colors only make sense on a terminal, never in the log file
		if color {
			return NewColoredTextHandler(w, opts)
		}
		return slog.NewTextHandler(w, opts)
	}
}

var levelStyles = map[slog.Level]lipgloss.Style{
	slog.LevelDebug: lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
	slog.LevelInfo:  lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
	slog.LevelWarn:  lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
	slog.LevelError: lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
}

// ColoredTextHandler renders records like slog.TextHandler and colors the
// leading time/level segment by severity
type ColoredTextHandler struct {
	writer io.Writer
	opts   *slog.HandlerOptions
	// WithAttrs/WithGroup calls replayed in order on every record
	chain []func(slog.Handler) slog.Handler
}

// NewColoredTextHandler creates a new handler that adds colors for console output
func NewColoredTextHandler(w io.Writer, opts *slog.HandlerOptions) *ColoredTextHandler {
	if opts == nil {
		opts = &slog.HandlerOptions{}
	}
	return &ColoredTextHandler{writer: w, opts: opts}
}

// Handle implements slog.Handler interface
func (h *ColoredTextHandler) Handle(ctx context.Context, r slog.Record) error {
	var buf strings.Builder
	var inner slog.Handler = slog.NewTextHandler(&buf, h.opts)
	for _, apply := range h.chain {
		inner = apply(inner)
	}
	if err := inner.Handle(ctx, r); err != nil {
		return err
	}

	_, err := io.WriteString(h.writer, colorize(buf.String(), r.Level))
	return err
}

// colorize styles the first word of line. Unknown levels pass through.
func colorize(line string, level slog.Level) string {
	style, ok := levelStyles[level]
	if !ok {
		return line
	}

	head, rest, found := strings.Cut(line, " ")
	if !found {
		return style.Render(line)
	}
	return style.Render(head) + " " + rest
}

// WithAttrs implements slog.Handler interface
func (h *ColoredTextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	return h.with(func(inner slog.Handler) slog.Handler { return inner.WithAttrs(attrs) })
}

// WithGroup implements slog.Handler interface
func (h *ColoredTextHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return h.with(func(inner slog.Handler) slog.Handler { return inner.WithGroup(name) })
}

func (h *ColoredTextHandler) with(apply func(slog.Handler) slog.Handler) *ColoredTextHandler {
	next := *h
	next.chain = append(append([]func(slog.Handler) slog.Handler(nil), h.chain...), apply)
	return &next
}

// Enabled implements slog.Handler interface
func (h *ColoredTextHandler) Enabled(_ context.Context, level slog.Level) bool {
	minLevel := slog.LevelInfo
	if h.opts.Level != nil {
		minLevel = h.opts.Level.Level()
	}
	return level >= minLevel
}

// parseLogLevel parses a log level string
func parseLogLevel(levelStr string) slog.Level {
	switch strings.ToLower(levelStr) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
