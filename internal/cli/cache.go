package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/ruleviz/internal/config"
	"github.com/matzehuels/ruleviz/pkg/cache"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the AST and layout cache",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove all cached ASTs and layouts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runCacheClear(cmd.Context())
		},
	}
}

func (c *CLI) runCacheClear(ctx context.Context) error {
	if c.Config.Cache.Backend == config.BackendNone {
		printInfo("Caching is disabled")
		return nil
	}

	ch, err := c.openBackend(ctx)
	if err != nil {
		return fmt.Errorf("open cache: %w", err)
	}
	defer ch.Close()

	clearer, ok := ch.(cache.Clearer)
	if !ok {
		return fmt.Errorf("cache backend %q cannot be cleared", c.Config.Cache.Backend)
	}
	if err := clearer.Clear(ctx); err != nil {
		return fmt.Errorf("clear cache: %w", err)
	}

	printSuccess("Cache cleared")
	printDetail("Backend: %s (%s)", c.Config.Cache.Backend, c.cacheLocation())
	return nil
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache location",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println(c.cacheLocation())
			return nil
		},
	}
}

// cacheLocation is the directory of a file cache or the address of a Redis
// cache.
func (c *CLI) cacheLocation() string {
	switch c.Config.Cache.Backend {
	case config.BackendRedis:
		return "redis://" + c.Config.Cache.RedisAddr
	case config.BackendNone:
		return "disabled"
	}
	dir, err := c.cacheDir()
	if err != nil {
		return "unknown"
	}
	return dir
}
