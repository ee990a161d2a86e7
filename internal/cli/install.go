package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/matzehuels/uvm/pkg/errors"
	"github.com/matzehuels/uvm/pkg/loader"
	"github.com/matzehuels/uvm/pkg/manifest"
	"github.com/matzehuels/uvm/pkg/orchestrator"
	"github.com/matzehuels/uvm/pkg/version"
)

// installCommand creates the install command.
func (c *CLI) installCommand() *cobra.Command {
	var (
		modules    []string
		withSync   bool
		dest       string
		offline    bool
		noCache    bool
		noProgress bool
	)

	cmd := &cobra.Command{
		Use:   "install <version>",
		Short: "Install an editor version and modules",
		Long: `Install an editor version and modules.

Without --module only the editor is installed. Requested modules pull in the
modules they install alongside, and the editor itself when the installation
does not have one yet. Modules already recorded for the installation are
skipped, so running the same install twice downloads nothing.

Modules are installed concurrently once the editor is in place. A module that
fails does not stop its siblings; modules that depend on it are reported as
not installed.`,
		Example: `  uvm install 2022.3.10f1
  uvm install 2022.3.10f1 -m android --with-sync
  uvm install "2021.3.5f1 (40eb3a945986)" -m ios,webgl --dest ./editors/2021`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := version.Parse(args[0])
			if err != nil {
				return err
			}
			ids, err := parseModules(modules)
			if err != nil {
				return err
			}
			req := c.request(v)
			req.Modules = ids
			req.WithSync = withSync
			req.Destination = dest
			req.Offline = offline
			return c.runInstall(cmd.Context(), req, noCache, !noProgress)
		},
	}

	cmd.Flags().StringSliceVarP(&modules, "module", "m", nil, "modules to install (repeatable or comma-separated)")
	cmd.Flags().BoolVar(&withSync, "with-sync", false, "also install every module that syncs with a requested one")
	cmd.Flags().StringVar(&dest, "dest", "", "install into this directory instead of the install root")
	cmd.Flags().BoolVar(&offline, "offline", false, "use the cached catalog regardless of its age")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "bypass the catalog cache")
	cmd.Flags().BoolVar(&noProgress, "no-progress", false, "log progress instead of drawing it")
	cmd.Flags().Int("workers", 0, "modules installed at once")
	cmd.Flags().Bool("verify", true, "verify artifact checksums")
	_ = cmd.RegisterFlagCompletionFunc("module", completeModules)

	return cmd
}

// parseModules maps user input to component ids, accepting aliases.
func parseModules(in []string) ([]manifest.ComponentID, error) {
	var ids []manifest.ComponentID
	for _, s := range in {
		id, err := manifest.ParseComponentID(s)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// runInstall runs one install and prints its report. Task failures are
// printed here; the returned *orchestrator.RunError only sets the exit code.
func (c *CLI) runInstall(ctx context.Context, req orchestrator.Request, noCache, interactive bool) error {
	cat, closeCat, err := c.newCatalog(ctx, noCache)
	if err != nil {
		return err
	}
	defer closeCat()

	sw := newStopwatch(c.Logger)
	var (
		report *orchestrator.Report
		runErr error
	)
	if interactive && c.Logger.GetLevel() > log.DebugLevel && isatty.IsTerminal(os.Stderr.Fd()) {
		report, runErr = c.installWithView(ctx, cat, req)
	} else {
		report, runErr = c.newOrchestrator(cat).Run(ctx, req)
	}
	if report == nil {
		return runErr
	}
	sw.done("Install finished", "version", report.Version)

	printReport(report)
	if runErr == nil && len(report.Tasks) > 0 {
		printNewline()
		printNextStep("Show modules", fmt.Sprintf("%s modules %s", appName, req.Version))
	}
	return runErr
}

// installWithView runs the install while a bubbletea program draws one
// line per task. The logger is muted for the duration; the report carries
// every failure.
func (c *CLI) installWithView(ctx context.Context, cat orchestrator.Catalog, req orchestrator.Request) (*orchestrator.Report, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(NewInstallView(fmt.Sprintf("Installing %s", req.Version), cancel), tea.WithOutput(os.Stderr))
	orch := c.newOrchestrator(cat,
		orchestrator.WithObserver(viewObserver{send: p.Send}),
		orchestrator.WithProgress(func(mod manifest.Module) loader.Progress {
			return &viewProgress{id: mod.ID, send: p.Send}
		}),
	)

	level := c.Logger.GetLevel()
	c.Logger.SetLevel(log.FatalLevel)
	defer c.Logger.SetLevel(level)

	var (
		report *orchestrator.Report
		runErr error
		done   = make(chan struct{})
	)
	go func() {
		defer close(done)
		report, runErr = orch.Run(ctx, req)
		p.Send(runFinishedMsg{})
	}()

	if _, err := p.Run(); err != nil {
		// Without a view the install keeps going; wait for it.
		c.Logger.SetLevel(level)
		c.Logger.Warn("progress display failed", "err", err)
	}
	<-done
	return report, runErr
}

// printReport prints the outcome of each task and the run totals.
func printReport(r *orchestrator.Report) {
	printNewline()
	printKeyValue("Version", r.Version.FullString())
	printKeyValue("Location", r.Destination)
	printNewline()

	if len(r.Tasks) == 0 {
		printSuccess("Everything requested is already installed")
		return
	}
	for _, t := range r.Tasks {
		if t.Err != nil {
			printError("%s %s", StyleValue.Render(string(t.ID)), StyleError.Render(errors.UserMessage(t.Err)))
			continue
		}
		printSuccess("%s %s", StyleValue.Render(string(t.ID)), StyleDim.Render(t.Duration.Round(time.Millisecond).String()))
	}
	printNewline()
	printStats(len(r.Installed()), len(r.AlreadyInstalled), len(r.Failed()))
	if r.RecordErr != nil {
		printWarning("installation record not updated: %s", errors.UserMessage(r.RecordErr))
	}
}
