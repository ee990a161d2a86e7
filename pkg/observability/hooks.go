// Package observability provides hooks for metrics around installs.
//
// Libraries emit events through the registered hooks; the CLI registers a
// backend at startup (see the prom subpackage). Nothing is recorded until
// a backend is registered: the defaults are no-ops.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetInstallHooks(&myInstallHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Install().OnTaskStart(ctx, component)
//	// ... download, extract ...
//	observability.Install().OnTaskComplete(ctx, component, duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Install Hooks
// =============================================================================

// InstallHooks receives events from the orchestrator and installer pipeline.
type InstallHooks interface {
	// Task lifecycle
	OnTaskStart(ctx context.Context, component string)
	OnTaskComplete(ctx context.Context, component string, duration time.Duration, err error)

	// Extraction with a specific installer format
	OnExtract(ctx context.Context, component, format string, duration time.Duration, err error)
}

// =============================================================================
// Download Hooks
// =============================================================================

// DownloadHooks receives events from the artifact loader.
type DownloadHooks interface {
	// OnDownloadStart records the start of an artifact fetch. offset is
	// non-zero when resuming a partial download.
	OnDownloadStart(ctx context.Context, component string, offset int64)

	// OnDownloadComplete records a finished fetch with the bytes received.
	OnDownloadComplete(ctx context.Context, component string, bytes int64, duration time.Duration, err error)

	// OnArtifactCached records an artifact served from the local cache.
	OnArtifactCached(ctx context.Context, component string)

	// OnChecksumMismatch records a failed integrity check.
	OnChecksumMismatch(ctx context.Context, component string)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from catalog cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopInstallHooks is a no-op implementation of InstallHooks.
type NoopInstallHooks struct{}

func (NoopInstallHooks) OnTaskStart(context.Context, string)                             {}
func (NoopInstallHooks) OnTaskComplete(context.Context, string, time.Duration, error)    {}
func (NoopInstallHooks) OnExtract(context.Context, string, string, time.Duration, error) {}

// NoopDownloadHooks is a no-op implementation of DownloadHooks.
type NoopDownloadHooks struct{}

func (NoopDownloadHooks) OnDownloadStart(context.Context, string, int64)                           {}
func (NoopDownloadHooks) OnDownloadComplete(context.Context, string, int64, time.Duration, error) {}
func (NoopDownloadHooks) OnArtifactCached(context.Context, string)                                 {}
func (NoopDownloadHooks) OnChecksumMismatch(context.Context, string)                               {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	installHooks  InstallHooks  = NoopInstallHooks{}
	downloadHooks DownloadHooks = NoopDownloadHooks{}
	cacheHooks    CacheHooks    = NoopCacheHooks{}
	hooksMu       sync.RWMutex
)

// SetInstallHooks registers custom install hooks.
// This should be called once at application startup.
func SetInstallHooks(h InstallHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		installHooks = h
	}
}

// SetDownloadHooks registers custom download hooks.
// This should be called once at application startup.
func SetDownloadHooks(h DownloadHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		downloadHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
// This should be called once at application startup.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// Install returns the registered install hooks.
func Install() InstallHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return installHooks
}

// Download returns the registered download hooks.
func Download() DownloadHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return downloadHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	installHooks = NoopInstallHooks{}
	downloadHooks = NoopDownloadHooks{}
	cacheHooks = NoopCacheHooks{}
}
