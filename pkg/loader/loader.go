package loader

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gofrs/flock"

	"github.com/matzehuels/uvm/pkg/errors"
	"github.com/matzehuels/uvm/pkg/httputil"
	"github.com/matzehuels/uvm/pkg/manifest"
	"github.com/matzehuels/uvm/pkg/observability"
	"github.com/matzehuels/uvm/pkg/version"
)

const (
	partSuffix = ".part"
	lockSuffix = ".lock"

	// installerDir is the subdirectory of the cache root holding artifacts.
	installerDir = "installer"

	lockRetryDelay = 100 * time.Millisecond
)

// Doer sends HTTP requests. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Loader downloads module artifacts into a shared cache directory.
//
// Artifacts live at <dir>/installer/<version>/<file>. Each one is guarded
// by an advisory lock file next to it, so concurrent processes fetching
// the same artifact take turns instead of interleaving writes.
type Loader struct {
	dir      string
	client   Doer
	verify   bool
	attempts int
	delay    time.Duration
	logger   *log.Logger
}

// Option configures a Loader.
type Option func(*Loader)

// WithClient sets the HTTP client. The default is [httputil.NewClient].
func WithClient(c Doer) Option {
	return func(l *Loader) { l.client = c }
}

// WithVerify toggles checksum verification. Empty artifacts are rejected
// regardless.
func WithVerify(verify bool) Option {
	return func(l *Loader) { l.verify = verify }
}

// WithRetry sets how often a transient network failure is retried and the
// initial delay between attempts.
func WithRetry(attempts int, delay time.Duration) Option {
	return func(l *Loader) { l.attempts, l.delay = attempts, delay }
}

// WithLogger sets the logger. The default is log.Default().
func WithLogger(logger *log.Logger) Option {
	return func(l *Loader) { l.logger = logger }
}

// New returns a Loader caching artifacts below dir.
func New(dir string, opts ...Option) *Loader {
	l := &Loader{
		dir:      dir,
		verify:   true,
		attempts: 3,
		delay:    time.Second,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.client == nil {
		l.client = httputil.NewClient()
	}
	if l.logger == nil {
		l.logger = log.Default()
	}
	return l
}

// Dir returns the directory holding all cached artifacts.
func (l *Loader) Dir() string { return filepath.Join(l.dir, installerDir) }

// ArtifactPath returns where the artifact of mod for v is cached.
func (l *Loader) ArtifactPath(mod manifest.Module, v version.Version) (string, error) {
	name := mod.FileName()
	if err := errors.ValidateRelativePath(name); err != nil || name == "." || name == ".." {
		return "", errors.New(errors.ErrCodeInvalidPath, "artifact name %q for %s is not usable", name, mod.ID)
	}
	return filepath.Join(l.Dir(), v.String(), name), nil
}

// Download returns the local path of the artifact for mod, fetching it if
// it is not cached or fails verification. progress may be nil.
//
// A cached artifact that verifies is returned without any network request.
// A download that produces an empty file or a checksum mismatch is fetched
// once more from scratch before the error is returned.
func (l *Loader) Download(ctx context.Context, mod manifest.Module, v version.Version, progress Progress) (string, error) {
	if mod.DownloadURL == "" {
		return "", errors.New(errors.ErrCodeInvalidCatalog, "module %s has no download url", mod.ID)
	}
	path, err := l.ArtifactPath(mod, v)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "prepare cache directory")
	}

	unlock, err := l.lock(ctx, path)
	if err != nil {
		return "", err
	}
	defer unlock()

	logger := l.logger.With("module", mod.ID)
	hooks := observability.Download()

	m := &meter{p: progress}
	if _, err := os.Stat(path); err == nil {
		m.verifying()
		verr := l.check(mod, path)
		if verr == nil {
			logger.Debug("artifact cached", "path", path)
			hooks.OnArtifactCached(ctx, string(mod.ID))
			m.done(nil)
			return path, nil
		}
		logger.Warn("cached artifact rejected, fetching again", "err", verr)
		_ = os.Remove(path)
		_ = os.Remove(path + partSuffix)
	}

	var lastErr error
	for attempt := range 2 {
		if attempt > 0 {
			logger.Warn("artifact failed verification, refetching", "err", lastErr)
			_ = os.Remove(path + partSuffix)
		}
		err := l.fetch(ctx, mod, path, m)
		if err == nil {
			m.verifying()
			err = l.check(mod, path)
			if err != nil {
				_ = os.Remove(path)
			}
		}
		if err == nil {
			m.done(nil)
			return path, nil
		}
		lastErr = err
		if !errors.Is(err, errors.ErrCodeChecksumMismatch) && !errors.Is(err, errors.ErrCodeEmptyOrMissing) {
			break
		}
		if errors.Is(err, errors.ErrCodeChecksumMismatch) {
			hooks.OnChecksumMismatch(ctx, string(mod.ID))
		}
	}
	m.done(lastErr)
	return "", lastErr
}

func (l *Loader) lock(ctx context.Context, path string) (func(), error) {
	fl := flock.New(path + lockSuffix)
	ok, err := fl.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		if ctx.Err() != nil {
			return nil, errors.Wrap(errors.ErrCodeCancelled, ctx.Err(), "waiting for lock on %s", filepath.Base(path))
		}
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "lock %s", filepath.Base(path))
	}
	if !ok {
		return nil, errors.New(errors.ErrCodeInternal, "lock %s not acquired", filepath.Base(path))
	}
	return func() {
		if err := fl.Unlock(); err != nil {
			l.logger.Warn("release artifact lock", "path", fl.Path(), "err", err)
		}
	}, nil
}

// check verifies the artifact at path.
func (l *Loader) check(mod manifest.Module, path string) error {
	fi, err := os.Stat(path)
	if err != nil || fi.Size() == 0 {
		return errors.New(errors.ErrCodeEmptyOrMissing, "artifact for %s is empty or missing", mod.ID)
	}
	if !l.verify || mod.Checksum == nil {
		return nil
	}
	if err := mod.Checksum.VerifyFile(path); err != nil {
		if stderrors.Is(err, manifest.ErrChecksumMismatch) {
			return errors.Wrap(errors.ErrCodeChecksumMismatch, err, "artifact for %s failed verification", mod.ID)
		}
		return errors.Wrap(errors.ErrCodeInternal, err, "verify artifact for %s", mod.ID)
	}
	return nil
}

// fetch downloads mod into path through a resumable .part file.
func (l *Loader) fetch(ctx context.Context, mod manifest.Module, path string, m *meter) error {
	part := path + partSuffix
	start := time.Now()
	var offset int64
	if fi, err := os.Stat(part); err == nil {
		offset = fi.Size()
	}
	m.add(offset)
	observability.Download().OnDownloadStart(ctx, string(mod.ID), offset)

	u, err := url.Parse(mod.DownloadURL)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidCatalog, err, "download url for %s", mod.ID)
	}

	var written int64
	err = httputil.Retry(ctx, l.attempts, l.delay, func() error {
		var n int64
		var err error
		if u.Scheme == "file" {
			n, err = copyLocal(u, part, mod, m)
		} else {
			n, err = l.fetchOnce(ctx, mod, part, m)
		}
		written += n
		return err
	})
	if err == nil {
		if rerr := os.Rename(part, path); rerr != nil {
			err = errors.Wrap(errors.ErrCodeInternal, rerr, "finalize artifact for %s", mod.ID)
		}
	}
	if err != nil && ctx.Err() != nil {
		err = errors.Wrap(errors.ErrCodeCancelled, ctx.Err(), "download of %s cancelled", mod.ID)
	}
	observability.Download().OnDownloadComplete(ctx, string(mod.ID), written, time.Since(start), err)
	return err
}

// fetchOnce performs one HTTP request, resuming from the current size of
// part. A 206 reply starting at that size is appended; any other 2xx
// reply replaces the file. A 206 for a different range discards part and
// fails transiently so the retry starts over.
func (l *Loader) fetchOnce(ctx context.Context, mod manifest.Module, part string, m *meter) (int64, error) {
	var offset int64
	if fi, err := os.Stat(part); err == nil {
		offset = fi.Size()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, mod.DownloadURL, nil)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeInvalidCatalog, err, "download request for %s", mod.ID)
	}
	if offset > 0 {
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-", offset))
	}

	resp, err := l.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}
		return 0, httputil.Transient(errors.Wrap(errors.ErrCodeNetwork, err, "download %s", mod.ID))
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusRequestedRangeNotSatisfiable && offset > 0 {
		_ = os.Remove(part)
		return 0, httputil.Transient(errors.New(errors.ErrCodeNetwork, "server rejected resume of %s at byte %d", mod.ID, offset))
	}
	if err := httputil.CheckStatus(resp); err != nil {
		wrapped := errors.Wrap(errors.ErrCodeNetwork, err, "download %s", mod.ID)
		if httputil.IsRetryable(err) {
			return 0, httputil.Transient(wrapped)
		}
		return 0, wrapped
	}

	if resp.StatusCode == http.StatusPartialContent && offset > 0 {
		if start, ok := rangeStart(resp.Header.Get("Content-Range")); !ok || start != offset {
			_ = os.Remove(part)
			return 0, httputil.Transient(errors.New(errors.ErrCodeNetwork,
				"server answered resume of %s at byte %d with range %q", mod.ID, offset, resp.Header.Get("Content-Range")))
		}
	}

	flags := os.O_CREATE | os.O_WRONLY
	total := resp.ContentLength
	if resp.StatusCode == http.StatusPartialContent && offset > 0 {
		flags |= os.O_APPEND
		if total >= 0 {
			total += offset
		}
	} else {
		if offset > 0 {
			l.logger.Debug("server ignored range request, restarting", "module", mod.ID, "offset", offset)
		}
		flags |= os.O_TRUNC
	}
	if total < 0 {
		total = int64(mod.DownloadSize)
	}
	m.start(total)

	f, err := os.OpenFile(part, flags, 0o644)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeInternal, err, "open partial artifact")
	}
	n, err := io.Copy(io.MultiWriter(f, m), resp.Body)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		if ctx.Err() != nil {
			return n, ctx.Err()
		}
		return n, httputil.Transient(errors.Wrap(errors.ErrCodeNetwork, err, "read body of %s", mod.ID))
	}
	return n, nil
}

// rangeStart returns the first byte of a "bytes first-last/size"
// Content-Range value.
func rangeStart(h string) (int64, bool) {
	spec, ok := strings.CutPrefix(strings.TrimSpace(h), "bytes ")
	if !ok {
		return 0, false
	}
	first, _, ok := strings.Cut(spec, "-")
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseInt(strings.TrimSpace(first), 10, 64)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// copyLocal serves file:// URLs, which mirrors on shared storage use.
func copyLocal(u *url.URL, part string, mod manifest.Module, m *meter) (int64, error) {
	src, err := os.Open(filepath.FromSlash(u.Path))
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeFileNotFound, err, "open local artifact for %s", mod.ID)
	}
	defer func() { _ = src.Close() }()
	if fi, err := src.Stat(); err == nil {
		m.start(fi.Size())
	}

	dst, err := os.OpenFile(part, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeInternal, err, "open partial artifact")
	}
	n, err := io.Copy(io.MultiWriter(dst, m), src)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return n, errors.Wrap(errors.ErrCodeInternal, err, "copy local artifact for %s", mod.ID)
	}
	return n, nil
}

// Remove deletes every cached artifact for v.
func (l *Loader) Remove(v version.Version) error {
	return os.RemoveAll(filepath.Join(l.Dir(), v.String()))
}
