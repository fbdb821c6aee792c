// Package tools detects the external programs used for e-reader conversion
package tools

import (
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strings"
	"time"
)

// ToolType represents the type of external tool
type ToolType int

const (
	// ToolKCC is Kindle Comic Converter, used for MOBI and KCC-built EPUBs
	ToolKCC ToolType = iota
	// ToolKindleGen is Amazon's MOBI builder that KCC calls
	ToolKindleGen
)

// String returns the string representation of ToolType
func (t ToolType) String() string {
	switch t {
	case ToolKCC:
		return "kcc"
	case ToolKindleGen:
		return "kindlegen"
	default:
		return "unknown"
	}
}

// KCCBinaries are the names KCC is installed under, in lookup order
var KCCBinaries = []string{"kcc-c2e", "comic2ebook", "kcc"}

// versionTimeout bounds how long a tool may take to print its version
const versionTimeout = 5 * time.Second

var (
	versionPattern = regexp.MustCompile(`(?i)version\s+v?([^\s,]+)`)
	genericPattern = regexp.MustCompile(`(\d+\.\d+(?:\.\d+)?)`)
)

// ToolInfo contains information about an external tool
type ToolInfo struct {
	Type      ToolType
	Binary    string
	Version   string
	Available bool
}

// DetectKCC finds KCC. An explicit path wins over PATH lookup.
func DetectKCC(ctx context.Context, explicit string) (*ToolInfo, error) {
	info := &ToolInfo{Type: ToolKCC}

	candidates := KCCBinaries
	if explicit != "" {
		candidates = []string{explicit}
	}

	for _, name := range candidates {
		path, err := FindTool(name)
		if err != nil {
			continue
		}
		info.Binary = path
		info.Available = true
		info.Version, _ = GetVersion(ctx, path, "--version")
		return info, nil
	}

	if explicit != "" {
		return info, fmt.Errorf("kcc not found at %s", explicit)
	}
	return info, fmt.Errorf("kcc not found in PATH (tried %s). Install it with: pip install KindleComicConverter", strings.Join(KCCBinaries, ", "))
}

// DetectKindleGen finds kindlegen in PATH. KCC needs it for MOBI output.
func DetectKindleGen(ctx context.Context) (*ToolInfo, error) {
	info := &ToolInfo{Type: ToolKindleGen}

	path, err := FindTool("kindlegen")
	if err != nil {
		return info, err
	}
	info.Binary = path
	info.Available = true
	// kindlegen prints its banner when run without arguments
	info.Version, _ = GetVersion(ctx, path)
	return info, nil
}

// FindTool searches for a tool in the system PATH
// Returns the full path to the binary or an error if not found
func FindTool(name string) (string, error) {
	path, err := exec.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("%s not found in PATH: %w", name, err)
	}
	return path, nil
}

// GetVersion runs the tool with args and parses a version from its output.
// The exit status is ignored as long as something was printed.
func GetVersion(ctx context.Context, toolPath string, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, versionTimeout)
	defer cancel()

	output, err := exec.CommandContext(ctx, toolPath, args...).CombinedOutput()
	if len(output) == 0 {
		if err == nil {
			err = fmt.Errorf("no output")
		}
		return "", fmt.Errorf("failed to get version for %s: %w", toolPath, err)
	}

	version := parseVersion(string(output))
	if version == "" {
		return "", fmt.Errorf("failed to parse version from output: %s", output)
	}

	return version, nil
}

// parseVersion extracts a version from the first meaningful line of output.
// Handles "kcc-c2e 5.5.1", "comic2ebook version 5.6.0" and kindlegen's
// "Amazon kindlegen(Linux) V2.9 build ..." banner.
func parseVersion(output string) string {
	for _, line := range strings.Split(strings.TrimSpace(output), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "*") {
			continue
		}

		if matches := versionPattern.FindStringSubmatch(line); len(matches) > 1 {
			return matches[1]
		}
		if matches := genericPattern.FindStringSubmatch(line); len(matches) > 1 {
			return matches[1]
		}
	}
	return ""
}
