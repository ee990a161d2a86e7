package orchestrator

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/uvm/pkg/dag"
	"github.com/matzehuels/uvm/pkg/errors"
	"github.com/matzehuels/uvm/pkg/installation"
	"github.com/matzehuels/uvm/pkg/installer"
	"github.com/matzehuels/uvm/pkg/loader"
	"github.com/matzehuels/uvm/pkg/manifest"
	"github.com/matzehuels/uvm/pkg/observability"
	"github.com/matzehuels/uvm/pkg/version"
)

// DefaultWorkers is the default number of tasks run at once.
const DefaultWorkers = 4

// Catalog resolves a version to its manifest. *manifest.Catalog
// satisfies it.
type Catalog interface {
	Fetch(ctx context.Context, req manifest.Request) (*manifest.Manifest, error)
	Stale(ctx context.Context, req manifest.Request) (*manifest.Manifest, time.Time, error)
}

// Downloader fetches module artifacts. *loader.Loader satisfies it.
type Downloader interface {
	Download(ctx context.Context, mod manifest.Module, v version.Version, progress loader.Progress) (string, error)
}

// Request describes one install run.
type Request struct {
	Version  version.Version
	Platform manifest.Platform
	Arch     manifest.Arch
	// Destination overrides the installation directory derived from the
	// layout.
	Destination string
	// Modules lists the components to install. Empty means the editor.
	Modules []manifest.ComponentID
	// WithSync also installs the descendants of every requested module.
	WithSync bool
	// Offline uses the cached catalog document whatever its age, without
	// contacting the catalog service.
	Offline bool
}

// Orchestrator installs a version's modules into an installation.
type Orchestrator struct {
	catalog  Catalog
	loader   Downloader
	layout   installation.Layout
	runner   installer.Runner
	observer installer.StateObserver
	progress func(manifest.Module) loader.Progress
	workers  int
	logger   *log.Logger
	now      func() time.Time
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithWorkers bounds how many tasks run at once.
func WithWorkers(n int) Option {
	return func(o *Orchestrator) { o.workers = n }
}

// WithRunner sets the external tool runner used by the installer.
func WithRunner(r installer.Runner) Option {
	return func(o *Orchestrator) { o.runner = r }
}

// WithObserver receives every task state change.
func WithObserver(obs installer.StateObserver) Option {
	return func(o *Orchestrator) { o.observer = obs }
}

// WithProgress creates a download progress observer per module.
func WithProgress(fn func(manifest.Module) loader.Progress) Option {
	return func(o *Orchestrator) { o.progress = fn }
}

// WithLogger sets the logger. The default is log.Default().
func WithLogger(l *log.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// WithClock sets the time source for record timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// New returns an Orchestrator installing below layout.
func New(catalog Catalog, dl Downloader, layout installation.Layout, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		catalog: catalog,
		loader:  dl,
		layout:  layout,
		workers: DefaultWorkers,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.workers < 1 {
		o.workers = 1
	}
	if o.logger == nil {
		o.logger = log.Default()
	}
	return o
}

// Destination returns the installation directory req targets.
func (o *Orchestrator) Destination(req Request) string {
	if req.Destination != "" {
		return req.Destination
	}
	return o.layout.Path(req.Version)
}

// Manifest returns the catalog manifest for req, honouring req.Offline.
func (o *Orchestrator) Manifest(ctx context.Context, req Request) (*manifest.Manifest, error) {
	creq := manifest.Request{Version: req.Version, Platform: req.Platform, Arch: req.Arch}
	if !req.Offline {
		return o.catalog.Fetch(ctx, creq)
	}
	m, fetched, err := o.catalog.Stale(ctx, creq)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeCatalogUnavailable, err, "offline catalog for %s", req.Version)
	}
	o.logger.Info("using cached catalog", "version", req.Version, "fetched", fetched.Format(time.DateTime))
	return m, nil
}

// Graph builds the install graph for req's installation with install
// status set from its record.
func (o *Orchestrator) Graph(ctx context.Context, req Request) (*dag.Graph, *manifest.Manifest, error) {
	m, err := o.Manifest(ctx, req)
	if err != nil {
		return nil, nil, err
	}
	installed, err := installation.InstalledSet(o.Destination(req))
	if err != nil {
		return nil, nil, err
	}
	g := dag.Build(m, dag.WithWarn(func(id, parent manifest.ComponentID, err error) {
		o.logger.Warn("module attached to editor", "module", id, "sync", parent, "err", err)
	}))
	g.MarkInstalled(installed)
	return g, m, nil
}

// Run installs req. Every scheduled task runs to a terminal state; the
// returned error is a *RunError listing each failed component. The
// installation record is rewritten once, after all tasks finish, when at
// least one task succeeded.
//
// A run against an installation that already has everything requested
// schedules nothing and downloads nothing.
func (o *Orchestrator) Run(ctx context.Context, req Request) (*Report, error) {
	runID := uuid.NewString()
	logger := o.logger.With("run", runID[:8])
	dest := o.Destination(req)

	g, m, err := o.Graph(ctx, req)
	if err != nil {
		return nil, err
	}
	report := &Report{
		RunID:            runID,
		Version:          m.Version,
		Destination:      dest,
		AlreadyInstalled: satisfied(g, req.Modules),
	}

	tasks, err := Plan(g, m, req.Modules, req.WithSync)
	if err != nil {
		return nil, err
	}
	if len(tasks) == 0 {
		logger.Info("nothing to install", "version", req.Version, "dest", dest)
		return report, nil
	}
	logger.Info("installing", "version", req.Version, "dest", dest, "modules", len(tasks), "workers", o.workers)

	results := o.execute(ctx, logger, req.Version, dest, tasks)
	report.Tasks = results

	if err := o.record(req, m, dest, tasks, results); err != nil {
		logger.Error("update installation record", "err", err)
		report.RecordErr = err
	}

	var failures []*TaskError
	for _, r := range results {
		if r.Err != nil {
			failures = append(failures, &TaskError{Component: r.ID, Err: r.Err})
		}
	}
	if len(failures) > 0 {
		return report, &RunError{Failures: failures}
	}
	return report, nil
}

// execute runs tasks on a bounded pool. Each task's install step waits for
// the outcome of the task it is scheduled after; a failed predecessor
// fails the task without downloading or extracting anything.
func (o *Orchestrator) execute(ctx context.Context, logger *log.Logger, v version.Version, dest string, tasks []Task) []Result {
	tracker := installer.NewTracker(o.observer, logger)
	pipeline := installer.NewPipeline(
		installer.WithRunner(o.runner),
		installer.WithLogger(logger),
		installer.WithObserver(tracker),
	)

	gates := make(map[manifest.ComponentID]*barrier, len(tasks))
	for _, t := range tasks {
		gates[t.ID()] = newBarrier()
		tracker.TaskState(t.ID(), installer.Pending)
	}
	done := resolved()

	var (
		mu      sync.Mutex
		results = make([]Result, len(tasks))
		eg      errgroup.Group
	)
	eg.SetLimit(o.workers)
	for i, t := range tasks {
		gate := done
		if t.After != "" {
			gate = gates[t.After]
		}
		own := gates[t.ID()]
		eg.Go(func() error {
			start := time.Now()
			observability.Install().OnTaskStart(ctx, string(t.ID()))
			err := o.runTask(ctx, logger, tracker, pipeline, v, dest, t, gate)
			own.resolve(err)
			if err != nil {
				tracker.TaskState(t.ID(), installer.Failed)
				logger.Error("install failed", "module", t.ID(), "err", errors.UserMessage(err))
			} else {
				logger.Info("installed", "module", t.ID(), "took", time.Since(start).Round(time.Millisecond))
			}
			observability.Install().OnTaskComplete(ctx, string(t.ID()), time.Since(start), err)

			mu.Lock()
			results[i] = Result{ID: t.ID(), Selected: t.Selected, Err: err, Duration: time.Since(start)}
			mu.Unlock()
			return nil
		})
	}
	_ = eg.Wait()

	for i := range results {
		results[i].State, _ = tracker.State(results[i].ID)
	}
	return results
}

func (o *Orchestrator) runTask(ctx context.Context, logger *log.Logger, tracker *installer.Tracker, pipeline *installer.Pipeline,
	v version.Version, dest string, t Task, gate *barrier) error {
	id := t.ID()
	if err, ok := gate.peek(); ok && err != nil {
		return dependencyFailed(t, err)
	}
	if err := ctx.Err(); err != nil {
		return errors.Wrap(errors.ErrCodeCancelled, err, "install of %s cancelled", id)
	}

	// A failed predecessor aborts a download still in flight.
	taskCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-gate.done:
			if err, _ := gate.peek(); err != nil {
				cancel()
			}
		case <-taskCtx.Done():
		}
	}()

	tracker.TaskState(id, installer.Downloading)
	var progress loader.Progress
	if o.progress != nil {
		progress = o.progress(t.Module)
	}
	artifact, err := o.loader.Download(taskCtx, t.Module, v, &taskProgress{next: progress, id: id, tracker: tracker})
	if err != nil {
		if gerr, ok := gate.peek(); ok && gerr != nil {
			return dependencyFailed(t, gerr)
		}
		return err
	}

	if err := gate.wait(ctx); err != nil {
		if ctx.Err() != nil {
			return errors.Wrap(errors.ErrCodeCancelled, err, "install of %s cancelled", id)
		}
		return dependencyFailed(t, err)
	}
	logger.Debug("placing", "module", id, "artifact", artifact)
	return pipeline.Run(taskCtx, installer.Job{Module: t.Module, Artifact: artifact, BasePath: dest})
}

func dependencyFailed(t Task, cause error) error {
	return errors.Wrap(errors.ErrCodeDependencyFailed, cause, "%s not installed because %s failed", t.ID(), t.After)
}

// record merges the successful tasks into the installation record.
func (o *Orchestrator) record(req Request, m *manifest.Manifest, dest string, tasks []Task, results []Result) error {
	var completed []Result
	for _, r := range results {
		if r.Err == nil {
			completed = append(completed, r)
		}
	}
	if len(completed) == 0 {
		return nil
	}

	v := m.Version
	if v.Hash == "" {
		v = v.WithHash(req.Version.Hash)
	}
	rec, ok, err := installation.ReadRecord(dest)
	if err != nil || !ok {
		rec = installation.NewRecord(v, req.Platform, req.Arch)
		// A missing editor is always scheduled, so an unscheduled one was
		// already on disk.
		if !slices.ContainsFunc(tasks, func(t Task) bool { return t.Module.IsEditor() }) {
			rec.Add(manifest.Editor, false, o.now())
		}
	}
	if v.Hash != "" {
		rec.Version = v
	}
	now := o.now()
	for _, r := range completed {
		rec.Add(r.ID, r.Selected, now)
	}
	rec.UpdatedAt = now
	return installation.WriteRecord(dest, rec)
}

// taskProgress reports Verifying to the tracker and forwards to an
// optional caller observer.
type taskProgress struct {
	next    loader.Progress
	id      manifest.ComponentID
	tracker *installer.Tracker
}

func (p *taskProgress) Start(total int64) {
	if p.next != nil {
		p.next.Start(total)
	}
}

func (p *taskProgress) Add(n int64) {
	if p.next != nil {
		p.next.Add(n)
	}
}

func (p *taskProgress) Done(err error) {
	if p.next != nil {
		p.next.Done(err)
	}
}

func (p *taskProgress) Verifying() {
	p.tracker.TaskState(p.id, installer.Verifying)
	if v, ok := p.next.(loader.VerifyObserver); ok {
		v.Verifying()
	}
}
