package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/ruleviz/internal/config"
	"github.com/matzehuels/ruleviz/pkg/buildinfo"
	"github.com/matzehuels/ruleviz/pkg/cache"
	"github.com/matzehuels/ruleviz/pkg/pipeline"
	"github.com/matzehuels/ruleviz/pkg/ruleclient"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for display.
const appName = config.AppName

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
	Config config.Config

	configPath string
	flags      globalFlags
}

// globalFlags are the persistent flags that override the config file.
type globalFlags struct {
	server  string
	timeout time.Duration
	retries int
	noCache bool
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Config: config.Default(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use. Commands that never talk
// to the rule service pass withService=false.
func (c *CLI) newRunner(ctx context.Context, withService bool) (*pipeline.Runner, error) {
	logger := loggerFromContext(ctx)
	ch := c.openCache(ctx)

	var svc pipeline.Service
	if withService {
		client, err := c.newClient(ch)
		if err != nil {
			ch.Close()
			return nil, err
		}
		svc = client
	}

	runner := pipeline.NewRunner(svc, ch, nil, logger)
	runner.Options = c.Config.PipelineOptions()
	return runner, nil
}

// newClient creates a rule service client from the resolved config.
func (c *CLI) newClient(ch cache.Cache) (*ruleclient.Client, error) {
	opts := append(c.Config.ClientOptions(),
		ruleclient.WithHeader("User-Agent", buildinfo.UserAgent()),
		ruleclient.WithLogger(c.Logger),
		ruleclient.WithCache(ch, nil, c.Config.Cache.TTL),
	)
	return ruleclient.New(c.Config.Server, opts...)
}

// openCache opens the configured cache backend. Failures fall back to a
// disabled cache with a warning: caching never blocks a command.
func (c *CLI) openCache(ctx context.Context) cache.Cache {
	if c.flags.noCache {
		return cache.NewNullCache()
	}
	ch, err := c.openBackend(ctx)
	if err != nil {
		c.Logger.Warn("cache disabled", "backend", c.Config.Cache.Backend, "err", err)
		return cache.NewNullCache()
	}
	return cache.Instrument(ch)
}

func (c *CLI) openBackend(ctx context.Context) (cache.Cache, error) {
	switch c.Config.Cache.Backend {
	case config.BackendNone:
		return cache.NewNullCache(), nil
	case config.BackendRedis:
		return cache.NewRedisCache(ctx, c.Config.Cache.RedisAddr)
	default:
		dir, err := c.cacheDir()
		if err != nil {
			return nil, err
		}
		return cache.NewFileCache(dir)
	}
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the file cache directory: cache.dir from the config, or
// the user cache directory (~/.cache/ruleviz on Linux).
func (c *CLI) cacheDir() (string, error) {
	if c.Config.Cache.Dir != "" {
		return c.Config.Cache.Dir, nil
	}
	return cache.DefaultDir()
}

// outputPath derives an output file from the input path when none is given:
// "rule.json" becomes "rule<suffix>".
func outputPath(output, input, suffix string) string {
	if output != "" {
		return output
	}
	return strings.TrimSuffix(input, filepath.Ext(input)) + suffix
}

// openOutput opens path for writing; "-" means stdout.
func openOutput(path string) (io.WriteCloser, error) {
	if path == "-" {
		return nopCloser{os.Stdout}, nil
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	return os.Create(path)
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// writeOutput writes data to path ("-" for stdout).
func writeOutput(path string, data []byte) error {
	out, err := openOutput(path)
	if err != nil {
		return err
	}
	if _, err := out.Write(data); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// =============================================================================
// Options Helpers
// =============================================================================

// layoutFlags are the layout settings shared by layout, render and tui.
type layoutFlags struct {
	width    float64
	height   float64
	maxDepth int
}

func (f *layoutFlags) register(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&f.width, "width", pipeline.DefaultWidth, "layout width")
	cmd.Flags().Float64Var(&f.height, "height", pipeline.DefaultHeight, "layout height")
	cmd.Flags().IntVar(&f.maxDepth, "max-depth", pipeline.DefaultMaxDepth, "maximum number of tree levels")
}

// apply copies explicitly set flags over the loaded config and validates
// the result, so a zero width is rejected rather than defaulted.
func (f *layoutFlags) apply(cmd *cobra.Command, cfg *config.Config) error {
	if cmd.Flags().Changed("width") {
		cfg.Width = f.width
	}
	if cmd.Flags().Changed("height") {
		cfg.Height = f.height
	}
	if cmd.Flags().Changed("max-depth") {
		cfg.MaxDepth = f.maxDepth
	}
	return cfg.Validate()
}

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.FormatSVG}
	}
	var formats []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			formats = append(formats, f)
		}
	}
	return formats
}
