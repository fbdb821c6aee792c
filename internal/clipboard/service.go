package clipboard

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/atotto/clipboard"

	"github.com/justchokingaround/mangadl/internal/config"
)

// Service copies text to the system clipboard
type Service struct {
	command string
	logger  *slog.Logger

	// primary is the clipboard package, replaceable in tests
	primary func(string) error
}

// NewService creates a new clipboard service
func NewService(cfg config.ClipboardConfig, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		command: cfg.Command,
		logger:  logger,
		primary: clipboard.WriteAll,
	}
}

// Write copies text to the clipboard. When the clipboard package cannot
// reach a clipboard, the configured command is used, then clip.exe on WSL,
// then whatever system utility is installed.
func (s *Service) Write(ctx context.Context, text string) error {
	err := s.primary(text)
	if err == nil {
		s.logger.Debug("copied to clipboard using primary method", "text_length", len(text))
		return nil
	}
	s.logger.Warn("failed to copy to clipboard using primary method", "error", err)

	switch {
	case s.command != "":
		return s.copyWithCommand(ctx, text, s.command)
	case isWSL():
		return s.copyWithCommand(ctx, text, "clip.exe")
	default:
		return s.copyWithDefault(ctx, text)
	}
}

// copyWithDefault copies text using the clipboard utility of the platform
func (s *Service) copyWithDefault(ctx context.Context, text string) error {
	var parts []string

	switch runtime.GOOS {
	case "windows":
		parts = []string{"clip.exe"}
	case "darwin":
		parts = []string{"pbcopy"}
	case "linux":
		switch {
		case commandExists("wl-copy"):
			parts = []string{"wl-copy"}
		case commandExists("xclip"):
			parts = []string{"xclip", "-selection", "clipboard"}
		case commandExists("xsel"):
			parts = []string{"xsel", "--clipboard", "--input"}
		default:
			return fmt.Errorf("no clipboard tool found (install wl-clipboard, xclip or xsel)")
		}
	default:
		return fmt.Errorf("clipboard not supported on %s", runtime.GOOS)
	}

	return s.run(ctx, text, parts)
}

// copyWithCommand copies text by piping it to a user supplied command
func (s *Service) copyWithCommand(ctx context.Context, text, command string) error {
	parts := parseCommand(command)
	if len(parts) == 0 {
		return fmt.Errorf("invalid clipboard command: %q", command)
	}
	return s.run(ctx, text, parts)
}

func (s *Service) run(ctx context.Context, text string, parts []string) error {
	cmd := exec.CommandContext(ctx, parts[0], parts[1:]...)
	cmd.Stdin = strings.NewReader(text)

	s.logger.Debug("running clipboard command", "command", parts, "text_length", len(text))

	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("clipboard command %s failed: %w: %s", parts[0], err, strings.TrimSpace(string(out)))
	}
	return nil
}

// parseCommand parses a command string into executable parts, respecting quotes
func parseCommand(command string) []string {
	var parts []string
	var currentPart string
	var inQuotes bool
	var quoteChar rune

	for _, char := range command {
		switch {
		case char == '\'' || char == '"':
			if !inQuotes {
				inQuotes = true
				quoteChar = char
			} else if char == quoteChar {
				inQuotes = false
			} else {
				currentPart += string(char)
			}
		case char == ' ' && !inQuotes:
			if currentPart != "" {
				parts = append(parts, currentPart)
				currentPart = ""
			}
		default:
			currentPart += string(char)
		}
	}

	if currentPart != "" {
		parts = append(parts, currentPart)
	}

	return parts
}

// isWSL checks if the application is running in Windows Subsystem for Linux
func isWSL() bool {
	if runtime.GOOS != "linux" {
		return false
	}
	version, err := os.ReadFile("/proc/version")
	if err != nil {
		return false
	}
	v := strings.ToLower(string(version))
	return strings.Contains(v, "microsoft") || strings.Contains(v, "wsl")
}

func commandExists(cmd string) bool {
	_, err := exec.LookPath(cmd)
	return err == nil
}
