//go:build !(linux || darwin || windows)

package downloader

// freeSpace is not implemented here; the check is skipped
func freeSpace(path string) (uint64, error) {
	return 0, errUnsupported
}
