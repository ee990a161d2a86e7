// Package config loads uvm settings from defaults, a TOML file, UVM_*
// environment variables and command-line flags, in increasing priority.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/matzehuels/uvm/pkg/errors"
	"github.com/matzehuels/uvm/pkg/manifest"
)

const (
	// AppName names the config, cache and data directories.
	AppName = "uvm"
	// FileName is the config file name inside [Dir].
	FileName = "config.toml"
	// EnvPrefix is the prefix of environment overrides, e.g. UVM_WORKERS.
	EnvPrefix = "UVM"
)

// Cache backends.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendNone  = "none"
)

// Config is the effective configuration.
type Config struct {
	InstallRoot string        `mapstructure:"install_root" toml:"install_root"`
	CacheDir    string        `mapstructure:"cache_dir" toml:"cache_dir"`
	Workers     int           `mapstructure:"workers" toml:"workers"`
	Verify      bool          `mapstructure:"verify" toml:"verify"`
	Platform    string        `mapstructure:"platform" toml:"platform"`
	Arch        string        `mapstructure:"arch" toml:"arch"`
	MetricsFile string        `mapstructure:"metrics_file" toml:"metrics_file"`
	Catalog     CatalogConfig `mapstructure:"catalog" toml:"catalog"`
	Cache       CacheConfig   `mapstructure:"cache" toml:"cache"`
}

// CatalogConfig selects where catalogs come from and how long they are
// trusted.
type CatalogConfig struct {
	APIURL    string `mapstructure:"api_url" toml:"api_url"`
	MirrorURL string `mapstructure:"mirror_url" toml:"mirror_url"`
	PreferINI bool   `mapstructure:"prefer_ini" toml:"prefer_ini"`
	// TTL is a Go duration string such as "24h".
	TTL string `mapstructure:"ttl" toml:"ttl"`
}

// CacheConfig selects the catalog document store.
type CacheConfig struct {
	Backend   string `mapstructure:"backend" toml:"backend"`
	RedisAddr string `mapstructure:"redis_addr" toml:"redis_addr"`
}

// Default returns the built-in configuration for the running host.
func Default() Config {
	return Config{
		InstallRoot: defaultInstallRoot(),
		CacheDir:    defaultCacheDir(),
		Workers:     4,
		Verify:      true,
		Platform:    string(manifest.CurrentPlatform()),
		Arch:        string(manifest.CurrentArch()),
		Catalog: CatalogConfig{
			APIURL:    manifest.DefaultAPIURL,
			MirrorURL: manifest.DefaultMirrorURL,
			TTL:       manifest.DefaultTTL.String(),
		},
		Cache: CacheConfig{
			Backend:   BackendFile,
			RedisAddr: "localhost:6379",
		},
	}
}

// Options control where Load looks.
type Options struct {
	// File is an explicit config file. It must exist.
	File string
	// Flags are bound over the file and environment. Flag names use
	// dashes where keys use underscores: --install-root sets install_root.
	Flags *pflag.FlagSet
}

// Load resolves the configuration. It returns the path of the file that
// was read, or "" when none was.
func Load(opts Options) (*Config, string, error) {
	v := viper.New()
	setDefaults(v, Default())

	v.SetConfigType("toml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	path := opts.File
	if path == "" {
		if dir, err := Dir(); err == nil {
			if _, err := os.Stat(filepath.Join(dir, FileName)); err == nil {
				path = filepath.Join(dir, FileName)
			}
		}
	} else if _, err := os.Stat(path); err != nil {
		return nil, "", errors.Wrap(errors.ErrCodeFileNotFound, err, "config file %s", path)
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, "", errors.Wrap(errors.ErrCodeInvalidInput, err, "read config %s", path)
		}
	}

	if opts.Flags != nil {
		if err := bindFlags(v, opts.Flags); err != nil {
			return nil, "", err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", errors.Wrap(errors.ErrCodeInvalidInput, err, "decode config")
	}
	cfg.InstallRoot = expandHome(cfg.InstallRoot)
	cfg.CacheDir = expandHome(cfg.CacheDir)
	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}
	return &cfg, path, nil
}

// flagKeys maps flag names to config keys.
var flagKeys = map[string]string{
	"install-root": "install_root",
	"cache-dir":    "cache_dir",
	"workers":      "workers",
	"verify":       "verify",
	"platform":     "platform",
	"arch":         "arch",
	"metrics-file": "metrics_file",
	"cache":        "cache.backend",
	"redis-addr":   "cache.redis_addr",
	"prefer-ini":   "catalog.prefer_ini",
	"catalog-ttl":  "catalog.ttl",
}

func bindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for name, key := range flagKeys {
		f := fs.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "bind flag --%s", name)
		}
	}
	return nil
}

func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("install_root", d.InstallRoot)
	v.SetDefault("cache_dir", d.CacheDir)
	v.SetDefault("workers", d.Workers)
	v.SetDefault("verify", d.Verify)
	v.SetDefault("platform", d.Platform)
	v.SetDefault("arch", d.Arch)
	v.SetDefault("metrics_file", d.MetricsFile)
	v.SetDefault("catalog.api_url", d.Catalog.APIURL)
	v.SetDefault("catalog.mirror_url", d.Catalog.MirrorURL)
	v.SetDefault("catalog.prefer_ini", d.Catalog.PreferINI)
	v.SetDefault("catalog.ttl", d.Catalog.TTL)
	v.SetDefault("cache.backend", d.Cache.Backend)
	v.SetDefault("cache.redis_addr", d.Cache.RedisAddr)
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.Workers < 1 {
		return errors.New(errors.ErrCodeInvalidInput, "workers must be at least 1, got %d", c.Workers)
	}
	switch c.Cache.Backend {
	case BackendFile, BackendRedis, BackendNone:
	default:
		return errors.New(errors.ErrCodeInvalidInput, "unknown cache backend %q (want file, redis or none)", c.Cache.Backend)
	}
	if _, err := c.CatalogTTL(); err != nil {
		return err
	}
	if _, err := manifest.ParsePlatform(c.Platform); err != nil {
		return err
	}
	if _, err := manifest.ParseArch(c.Arch); err != nil {
		return err
	}
	if c.InstallRoot == "" {
		return errors.New(errors.ErrCodeInvalidInput, "install_root must not be empty")
	}
	return nil
}

// CatalogTTL parses Catalog.TTL. "0" disables expiry.
func (c *Config) CatalogTTL() (time.Duration, error) {
	d, err := time.ParseDuration(c.Catalog.TTL)
	if err != nil || d < 0 {
		return 0, errors.New(errors.ErrCodeInvalidInput, "catalog.ttl %q is not a duration", c.Catalog.TTL)
	}
	return d, nil
}

// HostPlatform returns the configured platform.
func (c *Config) HostPlatform() manifest.Platform {
	p, _ := manifest.ParsePlatform(c.Platform)
	return p
}

// HostArch returns the configured architecture.
func (c *Config) HostArch() manifest.Arch {
	a, _ := manifest.ParseArch(c.Arch)
	return a
}

// Encode renders c as TOML.
func (c *Config) Encode() ([]byte, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode config")
	}
	return buf.Bytes(), nil
}

// WriteDefault writes the default configuration to path. An existing file
// is left alone unless force is set.
func WriteDefault(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return errors.New(errors.ErrCodeInvalidInput, "%s already exists", path)
	}
	d := Default()
	data, err := d.Encode()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "create %s", filepath.Dir(path))
	}
	header := fmt.Sprintf("# %s configuration. Environment variables %s_<KEY> override these values.\n\n", AppName, EnvPrefix)
	return os.WriteFile(path, append([]byte(header), data...), 0o644)
}

// Dir returns the configuration directory ($XDG_CONFIG_HOME/uvm, or the
// platform's equivalent).
func Dir() (string, error) {
	if x := os.Getenv("XDG_CONFIG_HOME"); x != "" {
		return filepath.Join(x, AppName), nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, AppName), nil
}

// DefaultFile returns the path of the default config file.
func DefaultFile() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, FileName), nil
}

func defaultCacheDir() string {
	if x := os.Getenv("XDG_CACHE_HOME"); x != "" {
		return filepath.Join(x, AppName)
	}
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, AppName)
	}
	return filepath.Join(os.TempDir(), AppName)
}

func defaultInstallRoot() string {
	switch runtime.GOOS {
	case "darwin":
		return "/Applications/Unity/Hub/Editor"
	case "windows":
		if pf := os.Getenv("ProgramFiles"); pf != "" {
			return filepath.Join(pf, "Unity", "Hub", "Editor")
		}
		return `C:\Program Files\Unity\Hub\Editor`
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), AppName, "editors")
	}
	return filepath.Join(home, "Unity", "Hub", "Editor")
}

func expandHome(p string) string {
	rest, ok := strings.CutPrefix(p, "~")
	if !ok || (rest != "" && rest[0] != '/' && rest[0] != filepath.Separator) {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, rest)
}
