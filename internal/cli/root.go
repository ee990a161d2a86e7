package cli

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/uvm/internal/config"
	"github.com/matzehuels/uvm/pkg/observability"
	"github.com/matzehuels/uvm/pkg/observability/prom"
)

// annotationNoConfig marks commands that run without loading the config
// file, such as the one creating it.
const annotationNoConfig = "uvm/no-config"

// registerGlobalFlags adds the flags every command shares. Flags that
// mirror config keys are bound in preRun, so they override the config file
// and UVM_* variables only when given.
func (c *CLI) registerGlobalFlags(root *cobra.Command) {
	pf := root.PersistentFlags()
	pf.StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/uvm/config.toml)")
	pf.String("install-root", "", "directory holding one installation per version")
	pf.String("cache-dir", "", "directory for downloaded artifacts and catalogs")
	pf.String("platform", "", "target platform: mac, linux or windows (default: this host)")
	pf.String("arch", "", "target architecture: x86_64 or arm64 (default: this host)")
	pf.String("cache", "", "catalog cache backend: file, redis or none")
	pf.String("redis-addr", "", "redis address for --cache redis")
	pf.String("catalog-ttl", "", "how long a cached catalog is used, e.g. 12h")
	pf.Bool("prefer-ini", false, "fetch flat catalogs from the download mirror when the build hash is known")
	pf.StringVar(&c.metricsFile, "metrics-file", "", "write Prometheus metrics to this textfile on exit")
}

// preRun loads the configuration and registers the metrics backend.
func (c *CLI) preRun(cmd *cobra.Command, _ []string) error {
	if cmd.Annotations[annotationNoConfig] != "" {
		d := config.Default()
		c.Config = &d
		return nil
	}
	cfg, path, err := config.Load(config.Options{File: c.configPath, Flags: cmd.Flags()})
	if err != nil {
		return err
	}
	c.Config, c.ConfigFile = cfg, path
	if path != "" {
		c.Logger.Debug("loaded config", "file", path)
	}
	if c.metricsFile == "" {
		c.metricsFile = cfg.MetricsFile
	}
	if c.metricsFile != "" && c.metrics == nil {
		c.metrics = prom.New()
		c.metrics.Register()
	}
	return nil
}

// Close flushes metrics. main calls it after the command finished,
// whether or not it failed.
func (c *CLI) Close() {
	if c.metrics == nil {
		return
	}
	if err := c.metrics.WriteTextfile(c.metricsFile); err != nil {
		c.Logger.Warn("write metrics", "file", c.metricsFile, "err", err)
	}
	observability.Reset()
}

// catalogDir is where the file cache keeps catalog documents.
func catalogDir(cfg *config.Config) string {
	return filepath.Join(cfg.CacheDir, catalogSubdir)
}
