//go:build linux || darwin

package downloader

import (
	"syscall"
)

// freeSpace returns the bytes available to unprivileged users (Linux/macOS)
func freeSpace(path string) (uint64, error) {
	var stat syscall.Statfs_t
	if err := syscall.Statfs(path, &stat); err != nil {
		return 0, err
	}
	return uint64(stat.Bavail) * uint64(stat.Bsize), nil
}
