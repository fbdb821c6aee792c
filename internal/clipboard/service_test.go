package clipboard

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justchokingaround/mangadl/internal/config"
)

func TestService_WritePrimary(t *testing.T) {
	var copied string
	service := NewService(config.ClipboardConfig{Command: "does-not-exist"}, nil)
	service.primary = func(text string) error {
		copied = text
		return nil
	}

	require.NoError(t, service.Write(context.Background(), "/manga/One Piece 1-3.mobi"))
	assert.Equal(t, "/manga/One Piece 1-3.mobi", copied)
}

func TestService_WriteFallsBackToCommand(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("tee is not available")
	}

	out := filepath.Join(t.TempDir(), "clip board.txt")
	service := NewService(config.ClipboardConfig{Command: `tee "` + out + `"`}, nil)
	service.primary = func(string) error { return errors.New("no clipboard") }

	require.NoError(t, service.Write(context.Background(), "One Piece 1.cbz"))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "One Piece 1.cbz", string(data))
}

func TestService_WriteCommandErrors(t *testing.T) {
	tests := []struct {
		name    string
		command string
		wantErr string
	}{
		{"empty after parsing", `""`, "invalid clipboard command"},
		{"missing binary", "mangadl-no-such-clipboard", "mangadl-no-such-clipboard"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := NewService(config.ClipboardConfig{Command: tt.command}, nil)
			service.primary = func(string) error { return errors.New("no clipboard") }

			err := service.Write(context.Background(), "text")
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		command string
		want    []string
	}{
		{"wl-copy", []string{"wl-copy"}},
		{"xclip -selection clipboard", []string{"xclip", "-selection", "clipboard"}},
		{`tee "/tmp/my file"`, []string{"tee", "/tmp/my file"}},
		{`sh -c 'echo "hi"'`, []string{"sh", "-c", `echo "hi"`}},
		{"  spaced   out  ", []string{"spaced", "out"}},
		{"", nil},
	}

	for _, tt := range tests {
		t.Run(tt.command, func(t *testing.T) {
			assert.Equal(t, tt.want, parseCommand(tt.command))
		})
	}
}
