package cli

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/uvm/internal/config"
	"github.com/matzehuels/uvm/pkg/cache"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage downloaded artifacts and cached catalogs",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	var catalogsOnly bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete downloaded artifacts and cached catalogs",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !catalogsOnly {
				dir := c.newLoader().Dir()
				count, size, err := clearDir(dir)
				if err != nil {
					return err
				}
				if count == 0 {
					printInfo("No downloaded artifacts")
				} else {
					printSuccess("Removed %d artifacts (%s)", count, humanBytes(size))
					printDetail("Directory: %s", dir)
				}
			}
			return c.clearCatalogs(cmd.Context())
		},
	}
	cmd.Flags().BoolVar(&catalogsOnly, "catalogs", false, "only clear cached catalogs")
	return cmd
}

// clearCatalogs drops every catalog document from the configured backend.
func (c *CLI) clearCatalogs(ctx context.Context) error {
	var (
		clearer cache.Clearer
		where   string
	)
	switch c.Config.Cache.Backend {
	case config.BackendNone:
		return nil
	case config.BackendRedis:
		rc, err := cache.NewRedisCache(ctx, cache.RedisOptions{Addr: c.Config.Cache.RedisAddr})
		if err != nil {
			printWarning("redis unavailable, catalogs not cleared: %v", err)
			return nil
		}
		defer rc.Close()
		clearer, where = rc, "redis "+c.Config.Cache.RedisAddr
	default:
		fc, err := cache.NewFileCache(catalogDir(c.Config))
		if err != nil {
			return err
		}
		clearer, where = fc, fc.Dir()
	}
	if err := clearer.Clear(ctx); err != nil {
		return fmt.Errorf("clear catalogs: %w", err)
	}
	printSuccess("Cleared cached catalogs")
	printDetail("Location: %s", where)
	return nil
}

// clearDir removes every file below dir and reports how many files and
// bytes went away. A missing dir is empty.
func clearDir(dir string) (int, uint64, error) {
	var (
		count int
		size  uint64
	)
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil // skip unreadable entries, keep walking
		}
		if info, err := d.Info(); err == nil {
			size += uint64(info.Size())
		}
		count++
		return nil
	})
	if err != nil {
		return 0, 0, err
	}
	if err := os.RemoveAll(dir); err != nil {
		return 0, 0, fmt.Errorf("remove %s: %w", dir, err)
	}
	return count, size, nil
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache directories",
		RunE: func(cmd *cobra.Command, args []string) error {
			printKeyValue("Cache", c.Config.CacheDir)
			printKeyValue("Artifacts", c.newLoader().Dir())
			printKeyValue("Catalogs", catalogDir(c.Config))
			return nil
		},
	}
}
