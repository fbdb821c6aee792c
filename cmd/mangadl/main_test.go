package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justchokingaround/mangadl/internal/app"
	"github.com/justchokingaround/mangadl/internal/config"
	"github.com/justchokingaround/mangadl/internal/console"
	"github.com/justchokingaround/mangadl/internal/converter"
	"github.com/justchokingaround/mangadl/internal/providers"
)

func TestApplyDownloadFlags(t *testing.T) {
	cfg = config.Default()
	cfg.Downloads.Single = true
	t.Cleanup(func() { cfg = nil })

	require.NoError(t, rootCmd.ParseFlags([]string{"--format", "pdf", "-d", "/tmp/manga", "--single=false", "--fullsize"}))
	applyDownloadFlags(rootCmd)

	assert.Equal(t, "pdf", cfg.Downloads.Format)
	assert.Equal(t, "/tmp/manga", cfg.Downloads.Directory)
	assert.False(t, cfg.Downloads.Single)
	assert.True(t, cfg.Downloads.FullSize)
	// untouched flags keep the config value
	assert.Equal(t, config.Default().Downloads.Profile, cfg.Downloads.Profile)
}

func TestReportError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"cancelled", context.Canceled, "Cancelled"},
		{"aborted", app.ErrAborted, "Cancelled"},
		{"not found", fmt.Errorf("%q: %w", "x", providers.ErrNotFound), "Manga not found"},
		{"no chapters", app.ErrNoChapters, "No chapters found"},
		{"ambiguous", &providers.AmbiguousError{Query: "one", Candidates: []string{"ONE PIECE", "ONE PUNCH MAN"}}, "There are several results, please select one of these:\nONE PIECE\nONE PUNCH MAN"},
		{"other", errors.New("boom"), "boom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			saved := printer
			printer = console.New(console.Options{Out: &out})
			t.Cleanup(func() { printer = saved })

			reportError(tt.err)

			assert.Contains(t, out.String(), tt.want)
		})
	}
}

func TestFormatNames(t *testing.T) {
	assert.Equal(t, "PNG, PDF, CBZ, EPUB, MOBI", formatNames())
}

func TestCopyTarget(t *testing.T) {
	root := t.TempDir()
	manga := providers.Manga{Slug: "One-Piece", Title: "One Piece"}

	images := &app.Report{Manga: manga}
	assert.Equal(t, filepath.Join(root, "One-Piece"), copyTarget(images, root))

	converted := &app.Report{Manga: manga, Outputs: []converter.Output{
		{Path: filepath.Join(root, "One Piece 1.cbz")},
		{Path: filepath.Join(root, "One Piece 2.cbz"), Skipped: true},
	}}
	assert.Equal(t, filepath.Join(root, "One Piece 2.cbz"), copyTarget(converted, root))
}
