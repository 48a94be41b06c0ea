package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/ruleviz/internal/config"
	"github.com/matzehuels/ruleviz/pkg/buildinfo"
)

// RootCommand creates the root cobra command with all subcommands registered.
//
// Configuration is resolved before any subcommand runs, with the precedence
// flag > environment > config file > default.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "ruleviz compiles rules and draws their syntax trees",
		Long: `ruleviz talks to a rule service to evaluate rules against sample data and
compile them to abstract syntax trees, then lays the trees out and draws them
as node-link diagrams (SVG, PNG, PDF, DOT or text).`,
		Version:       buildinfo.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := c.loadConfig(cmd); err != nil {
				return err
			}
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	pf := root.PersistentFlags()
	pf.StringVar(&c.configPath, "config", "", "config file (default: $XDG_CONFIG_HOME/ruleviz/config.toml)")
	pf.StringVar(&c.flags.server, "server", "", "rule service URL (env "+config.EnvServer+")")
	pf.DurationVar(&c.flags.timeout, "timeout", 0, "rule service request timeout")
	pf.IntVar(&c.flags.retries, "retries", 0, "retries for failed rule service requests")
	pf.BoolVar(&c.flags.noCache, "no-cache", false, "disable caching")

	// Register all subcommands
	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.compileCommand())
	root.AddCommand(c.evalCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.tuiCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// loadConfig reads the config file and environment, then applies the
// persistent flags the user set.
func (c *CLI) loadConfig(cmd *cobra.Command) error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("server") {
		cfg.Server = c.flags.server
	}
	if flags.Changed("timeout") {
		cfg.Timeout = c.flags.timeout
	}
	if flags.Changed("retries") {
		cfg.Retries = c.flags.retries
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	c.Config = cfg
	c.Logger.Debug("loaded config",
		"server", cfg.Server,
		"cache", cfg.Cache.Backend,
		"timeout", cfg.Timeout,
		"retries", cfg.Retries)
	return nil
}
