package manifest

import (
	"runtime"
	"strings"

	"github.com/matzehuels/uvm/pkg/errors"
)

// Platform is the host operating system a catalog is published for.
type Platform string

// Supported platforms.
const (
	MacOS     Platform = "mac"
	LinuxOS   Platform = "linux"
	WindowsOS Platform = "windows"
)

// Arch is the host CPU architecture.
type Arch string

// Supported architectures.
const (
	AMD64 Arch = "x86_64"
	ARM64 Arch = "arm64"
)

// CurrentPlatform returns the platform of the running process.
func CurrentPlatform() Platform {
	switch runtime.GOOS {
	case "darwin":
		return MacOS
	case "windows":
		return WindowsOS
	default:
		return LinuxOS
	}
}

// CurrentArch returns the architecture of the running process.
func CurrentArch() Arch {
	if runtime.GOARCH == "arm64" {
		return ARM64
	}
	return AMD64
}

// ParsePlatform accepts the names used by catalogs and by Go itself.
func ParsePlatform(s string) (Platform, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return CurrentPlatform(), nil
	case "mac", "macos", "darwin", "osx":
		return MacOS, nil
	case "linux":
		return LinuxOS, nil
	case "windows", "win", "win32", "win64":
		return WindowsOS, nil
	}
	return "", errors.New(errors.ErrCodeInvalidInput, "unknown platform %q", s)
}

// ParseArch accepts the names used by catalogs and by Go itself.
func ParseArch(s string) (Arch, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return CurrentArch(), nil
	case "x86_64", "amd64", "x64":
		return AMD64, nil
	case "arm64", "aarch64", "apple-silicon":
		return ARM64, nil
	}
	return "", errors.New(errors.ErrCodeInvalidInput, "unknown architecture %q", s)
}
