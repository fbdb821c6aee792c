package downloader

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
)

// ErrInsufficientSpace is returned when the download directory is nearly full
var ErrInsufficientSpace = errors.New("insufficient disk space")

// errUnsupported means free space cannot be read on this platform
var errUnsupported = errors.New("disk space check not supported")

// CheckDiskSpace fails when the file system holding dir has less than minMB
// megabytes free. A non-positive minMB disables the check.
func CheckDiskSpace(dir string, minMB int64) error {
	if minMB <= 0 || dir == "" {
		return nil
	}

	free, err := freeSpace(existingParent(dir))
	if errors.Is(err, errUnsupported) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to check disk space: %w", err)
	}

	required := uint64(minMB) * 1024 * 1024
	if free < required {
		return fmt.Errorf("%w: %s free in %s, %s required",
			ErrInsufficientSpace, humanize.IBytes(free), dir, humanize.IBytes(required))
	}
	return nil
}

// existingParent walks up from dir to the first path that exists
func existingParent(dir string) string {
	dir = filepath.Clean(dir)
	for {
		if _, err := os.Stat(dir); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return dir
		}
		dir = parent
	}
}
