package ort

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
)

// Info describes a detected ONNX Runtime shared library.
type Info struct {
	// LibraryPath is the resolved shared library path.
	LibraryPath string
	// Version is the library version, if it could be determined.
	Version string
}

// wellKnownLibraryPaths are locations probed when no explicit path is
// configured.
var wellKnownLibraryPaths = []string{
	"/usr/lib/libonnxruntime.so",
	"/usr/local/lib/libonnxruntime.so",
	"/opt/homebrew/lib/libonnxruntime.dylib",
	"C:/onnxruntime/lib/onnxruntime.dll",
}

var versionPattern = regexp.MustCompile(`([0-9]+\.[0-9]+\.[0-9]+)`)

// ErrRuntimeNotFound indicates that no ONNX Runtime shared library could be
// located on this host. It should be surfaced once, at process startup,
// before any Runner is constructed.
var ErrRuntimeNotFound = errors.New("onnxruntime shared library not found; see https://onnxruntime.ai/ for installation")

// Detect locates the ONNX Runtime shared library. An explicit path wins,
// then the ORT_LIBRARY_PATH environment variable, then well-known install
// locations. This is the process-startup capability check: callers should run
// it (or NewRuntime, which runs it) before constructing any Runner so a
// missing dependency is reported up front rather than on first use.
func Detect(libraryPath string) (Info, error) {
	path := libraryPath
	if path == "" {
		path = os.Getenv("ORT_LIBRARY_PATH")
	}
	if path == "" {
		for _, candidate := range wellKnownLibraryPaths {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
	}
	if path == "" {
		return Info{}, ErrRuntimeNotFound
	}
	if _, err := os.Stat(path); err != nil {
		return Info{}, fmt.Errorf("onnxruntime library path check failed: %w", err)
	}

	version := os.Getenv("ORT_VERSION")
	if version == "" {
		if m := versionPattern.FindStringSubmatch(filepath.Base(path)); len(m) == 2 {
			version = m[1]
		}
	}
	if version == "" {
		version = "unknown"
	}
	return Info{LibraryPath: path, Version: version}, nil
}
