package installer

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/uvm/pkg/errors"
	"github.com/matzehuels/uvm/pkg/manifest"
	"github.com/matzehuels/uvm/pkg/observability"
)

// Job is one module to place into an installation.
type Job struct {
	Module manifest.Module
	// Artifact is the verified local download.
	Artifact string
	// BasePath is the installation root that {BASE_PATH} expands to.
	BasePath string
}

// Pipeline installs downloaded artifacts.
//
// Each run goes through four steps: prepare the destination, unpack the
// artifact into a private staging directory and move the payload into
// place, apply the module's rename, and on any failure remove what the
// module left behind.
type Pipeline struct {
	runner   Runner
	logger   *log.Logger
	observer StateObserver
	tempDir  string
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithRunner sets the tool runner. The default is an [ExecRunner].
func WithRunner(r Runner) Option { return func(p *Pipeline) { p.runner = r } }

// WithLogger sets the logger. The default is log.Default().
func WithLogger(l *log.Logger) Option { return func(p *Pipeline) { p.logger = l } }

// WithObserver reports Extracting, Placing, Done and Failed to o.
func WithObserver(o StateObserver) Option { return func(p *Pipeline) { p.observer = o } }

// WithTempDir sets where staging directories are created. The default is
// the parent of the installation root, which keeps moves on one filesystem.
func WithTempDir(dir string) Option { return func(p *Pipeline) { p.tempDir = dir } }

// NewPipeline returns a Pipeline.
func NewPipeline(opts ...Option) *Pipeline {
	p := &Pipeline{}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = log.Default()
	}
	if p.runner == nil {
		p.runner = ExecRunner{Logger: p.logger}
	}
	return p
}

// Placement returns the directory the payload of mod is merged into when
// installed with s. Package archives for playback engines carry the
// engine's path inside their payload, so they are placed two levels above
// the declared destination.
func Placement(mod manifest.Module, s Strategy, base string) string {
	dest := mod.ResolvedDestination(base)
	if s.Format() == FormatPkg && !mod.IsEditor() && manifest.IsPlaybackEngine(mod.Destination) {
		return filepath.Dir(filepath.Dir(dest))
	}
	return dest
}

// Run installs job. The returned error is the first failure; cleanup
// problems are logged and never replace it.
func (p *Pipeline) Run(ctx context.Context, job Job) error {
	id := job.Module.ID
	logger := p.logger.With("module", id)

	strategy, err := Select(job.Module, job.Artifact)
	if err != nil {
		p.report(id, Failed)
		return err
	}
	dest := Placement(job.Module, strategy, job.BasePath)
	if !job.Module.IsEditor() && !errors.WithinDir(job.BasePath, dest) {
		p.report(id, Failed)
		return errors.New(errors.ErrCodeInvalidPath, "destination %s of %s is outside %s", dest, id, job.BasePath)
	}

	p.report(id, Extracting)
	start := time.Now()
	err = p.install(ctx, job, strategy, dest, logger)
	if err != nil && ctx.Err() != nil && !errors.Is(err, errors.ErrCodeCancelled) {
		err = errors.Wrap(errors.ErrCodeCancelled, err, "install of %s cancelled", id)
	}
	observability.Install().OnExtract(ctx, string(id), strategy.Format().String(), time.Since(start), err)

	if err != nil {
		p.onError(job, logger)
		p.report(id, Failed)
		return err
	}
	logger.Debug("installed", "format", strategy.Format(), "dest", dest, "took", time.Since(start).Round(time.Millisecond))
	p.report(id, Done)
	return nil
}

func (p *Pipeline) install(ctx context.Context, job Job, s Strategy, dest string, logger *log.Logger) error {
	if err := p.beforeInstall(job, s, dest); err != nil {
		return err
	}

	staging, err := p.makeStaging(job.BasePath)
	if err != nil {
		return err
	}
	defer func() {
		if err := os.RemoveAll(staging); err != nil {
			logger.Warn("remove staging directory", "path", staging, "err", err)
		}
	}()

	w := &workspace{runner: p.runner, logger: logger, artifact: job.Artifact, staging: staging}
	payload, err := s.unpack(ctx, w)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return errors.Wrap(errors.ErrCodeCancelled, err, "install of %s cancelled", job.Module.ID)
	}

	p.report(job.Module.ID, Placing)
	if err := moveTree(payload, dest); err != nil {
		return errors.Wrap(errors.ErrCodeExtractionFailed, err, "place %s", job.Module.ID)
	}
	return p.afterInstall(job, logger)
}

// beforeInstall empties the declared destination of a module for formats
// that expect a clean start. The installation root itself is never
// emptied.
func (p *Pipeline) beforeInstall(job Job, s Strategy, dest string) error {
	declared := job.Module.ResolvedDestination(job.BasePath)
	if s.cleanStart() && !job.Module.IsEditor() && !samePath(declared, job.BasePath) && errors.WithinDir(job.BasePath, declared) {
		if err := os.RemoveAll(declared); err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "clear %s", declared)
		}
	}
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "create %s", dest)
	}
	return nil
}

func (p *Pipeline) makeStaging(base string) (string, error) {
	parent := p.tempDir
	if parent == "" {
		parent = filepath.Dir(filepath.Clean(base))
	}
	dir := filepath.Join(parent, ".uvm-staging-"+uuid.NewString())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "create staging directory")
	}
	return dir, nil
}

// afterInstall applies the module's rename. The source is first moved to
// a side directory under the installation root, so a target that contains
// or is contained in the source still ends up with the right contents.
func (p *Pipeline) afterInstall(job Job, logger *log.Logger) error {
	from, to, ok := job.Module.ResolvedRename(job.BasePath)
	if !ok || samePath(from, to) {
		return nil
	}
	for _, path := range []string{from, to} {
		if !errors.WithinDir(job.BasePath, path) {
			return errors.New(errors.ErrCodeInvalidPath, "rename path %s of %s is outside %s", path, job.Module.ID, job.BasePath)
		}
	}

	if _, err := os.Lstat(from); err != nil {
		if _, terr := os.Lstat(to); terr == nil {
			logger.Debug("rename source missing, target present", "from", from, "to", to)
			return nil
		}
		return errors.Wrap(errors.ErrCodeExtractionFailed, err, "rename source of %s", job.Module.ID)
	}

	side := filepath.Join(job.BasePath, ".uvm-rename-"+uuid.NewString())
	if err := os.Rename(from, side); err != nil {
		return errors.Wrap(errors.ErrCodeExtractionFailed, err, "stage rename of %s", job.Module.ID)
	}
	defer func() { _ = os.RemoveAll(side) }()

	fi, err := os.Lstat(side)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "stat %s", side)
	}
	if fi.IsDir() {
		if err := moveTree(side, to); err != nil {
			return errors.Wrap(errors.ErrCodeExtractionFailed, err, "rename %s", job.Module.ID)
		}
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(to), 0o755); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "create %s", filepath.Dir(to))
	}
	_ = os.RemoveAll(to)
	if err := os.Rename(side, to); err != nil {
		return errors.Wrap(errors.ErrCodeExtractionFailed, err, "rename %s", job.Module.ID)
	}
	return nil
}

// onError removes what a failed module left behind. For the editor this is
// the whole installation root; for other modules it is their declared
// destination unless that is the root.
func (p *Pipeline) onError(job Job, logger *log.Logger) {
	target := job.Module.ResolvedDestination(job.BasePath)
	if job.Module.IsEditor() {
		target = job.BasePath
	} else if samePath(target, job.BasePath) || !errors.WithinDir(job.BasePath, target) {
		logger.Debug("leaving installation root in place after failure")
		return
	}
	if err := os.RemoveAll(target); err != nil {
		logger.Warn("cleanup after failed install", "path", target, "err", err)
		return
	}
	logger.Debug("removed partial install", "path", target)
}

func (p *Pipeline) report(id manifest.ComponentID, s State) {
	if p.observer != nil {
		p.observer.TaskState(id, s)
	}
}
