// Package cli implements the uvm command-line interface.
package cli

import (
	"context"
	"io"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/uvm/internal/config"
	"github.com/matzehuels/uvm/pkg/buildinfo"
	"github.com/matzehuels/uvm/pkg/cache"
	"github.com/matzehuels/uvm/pkg/httputil"
	"github.com/matzehuels/uvm/pkg/installation"
	"github.com/matzehuels/uvm/pkg/loader"
	"github.com/matzehuels/uvm/pkg/manifest"
	"github.com/matzehuels/uvm/pkg/observability/prom"
	"github.com/matzehuels/uvm/pkg/orchestrator"
	"github.com/matzehuels/uvm/pkg/version"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = config.AppName

	// catalogSubdir holds catalog documents inside the cache directory.
	catalogSubdir = "catalog"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// Config is loaded before any subcommand runs.
	Config *config.Config
	// ConfigFile is the file Config was read from, if any.
	ConfigFile string

	configPath  string
	metricsFile string
	metrics     *prom.Metrics
	client      *http.Client
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:               appName,
		Short:             "uvm installs editor versions and their modules",
		Long:              `uvm installs editor releases side by side, adds platform modules to existing installs and keeps a record of what each installation holds.`,
		Version:           buildinfo.Version,
		SilenceUsage:      true,
		PersistentPreRunE: c.preRun,
	}

	root.SetVersionTemplate(buildinfo.Template())
	c.registerGlobalFlags(root)

	root.AddCommand(c.installCommand())
	root.AddCommand(c.listCommand())
	root.AddCommand(c.modulesCommand())
	root.AddCommand(c.graphCommand())
	root.AddCommand(c.detectCommand())
	root.AddCommand(c.uninstallCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Factories
// =============================================================================

func (c *CLI) httpClient() *http.Client {
	if c.client == nil {
		c.client = httputil.NewClient()
	}
	return c.client
}

// newStore opens the catalog document store selected by the config.
// A Redis backend that cannot be reached falls back to the file cache.
func (c *CLI) newStore(ctx context.Context, noCache bool) (cache.Cache, error) {
	cfg := c.Config
	if noCache || cfg.Cache.Backend == config.BackendNone {
		return cache.NewNullCache(), nil
	}
	if cfg.Cache.Backend == config.BackendRedis {
		rc, err := cache.NewRedisCache(ctx, cache.RedisOptions{Addr: cfg.Cache.RedisAddr})
		if err == nil {
			return cache.Scoped(rc, catalogSubdir+":"), nil
		}
		c.Logger.Warn("redis unavailable, using file cache", "addr", cfg.Cache.RedisAddr, "err", err)
	}
	return cache.NewFileCache(catalogDir(cfg))
}

// newCatalog builds the catalog client. The returned close function
// releases the document store.
func (c *CLI) newCatalog(ctx context.Context, noCache bool) (*manifest.Catalog, func(), error) {
	store, err := c.newStore(ctx, noCache)
	if err != nil {
		return nil, nil, err
	}
	ttl, err := c.Config.CatalogTTL()
	if err != nil {
		store.Close()
		return nil, nil, err
	}
	transport := manifest.NewHTTPTransport(c.httpClient())
	transport.APIURL = c.Config.Catalog.APIURL
	transport.MirrorURL = c.Config.Catalog.MirrorURL
	transport.PreferINI = c.Config.Catalog.PreferINI

	cat := manifest.NewCatalog(transport, store, manifest.WithTTL(ttl), manifest.WithLogger(c.Logger))
	return cat, func() { _ = store.Close() }, nil
}

func (c *CLI) newLoader() *loader.Loader {
	return loader.New(c.Config.CacheDir,
		loader.WithClient(c.httpClient()),
		loader.WithVerify(c.Config.Verify),
		loader.WithLogger(c.Logger),
	)
}

func (c *CLI) layout() installation.Layout {
	return installation.Layout{Root: c.Config.InstallRoot}
}

func (c *CLI) newOrchestrator(cat orchestrator.Catalog, opts ...orchestrator.Option) *orchestrator.Orchestrator {
	base := []orchestrator.Option{
		orchestrator.WithWorkers(c.Config.Workers),
		orchestrator.WithLogger(c.Logger),
	}
	return orchestrator.New(cat, c.newLoader(), c.layout(), append(base, opts...)...)
}

// request builds an orchestrator request for v on the configured host.
func (c *CLI) request(v version.Version) orchestrator.Request {
	return orchestrator.Request{
		Version:  v,
		Platform: c.Config.HostPlatform(),
		Arch:     c.Config.HostArch(),
	}
}
