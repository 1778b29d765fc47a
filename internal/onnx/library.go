package onnx

import (
	"os"
	"path/filepath"
	"runtime"
)

// libraryNames maps GOOS to the shared library filename
var libraryNames = map[string]string{
	"linux":   "libonnxruntime.so",
	"darwin":  "libonnxruntime.dylib",
	"windows": "onnxruntime.dll",
}

func libraryName(goos string) string {
	if name, ok := libraryNames[goos]; ok {
		return name
	}
	return "libonnxruntime.so"
}

// managedLibraryDir is where a user-installed runtime is looked for
func managedLibraryDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".config", "embedkit", "lib")
}

// LibraryPath returns the ONNX Runtime shared library to load.
// Checks in order:
//  1. configured (from model.library_path)
//  2. ONNX_PATH environment variable
//  3. ~/.config/embedkit/lib/<library>
//
// Returns "" when nothing is found, in which case the runtime's own default
// search is used.
func LibraryPath(configured string) string {
	if configured != "" {
		return configured
	}
	if envPath := os.Getenv("ONNX_PATH"); envPath != "" {
		return envPath
	}
	managed := filepath.Join(managedLibraryDir(), libraryName(runtime.GOOS))
	if _, err := os.Stat(managed); err == nil {
		return managed
	}
	return ""
}
