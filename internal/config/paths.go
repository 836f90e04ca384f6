package config

import (
	"os"
	"path/filepath"
	"strings"
)

// baseDir is the directory relative runtime paths are resolved against:
// the working directory, falling back to the executable's directory.
func baseDir() string {
	if wd, err := os.Getwd(); err == nil && strings.TrimSpace(wd) != "" {
		return wd
	}
	if exe, err := os.Executable(); err == nil && strings.TrimSpace(exe) != "" {
		if resolved, rerr := filepath.EvalSymlinks(exe); rerr == nil {
			exe = resolved
		}
		return filepath.Dir(exe)
	}
	return "."
}

// ResolveRuntimePath turns raw (or fallback when raw is blank) into a clean
// absolute path.
func ResolveRuntimePath(raw, fallback string) string {
	target := strings.TrimSpace(raw)
	if target == "" {
		target = strings.TrimSpace(fallback)
	}
	if target == "" {
		return baseDir()
	}
	if filepath.IsAbs(target) {
		return filepath.Clean(target)
	}
	return filepath.Clean(filepath.Join(baseDir(), target))
}
