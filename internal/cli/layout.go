package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/ruleviz/pkg/errors"
	"github.com/matzehuels/ruleviz/pkg/render/sink"
	"github.com/matzehuels/ruleviz/pkg/tree"
)

// layoutCommand creates the layout command for computing tree layouts.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		output string
		format string
		lf     layoutFlags
	)

	cmd := &cobra.Command{
		Use:   "layout [ast.json]",
		Short: "Compute node positions for a rule AST",
		Long: `Compute node positions for a rule AST.

The layout command reads an AST (JSON or YAML, as produced by 'compile') and
places every node: depth decides the row, leaves are spread evenly across the
width and each parent is centred over its children. The output is a
layout.json file that 'render' and other tools can consume.

Results are cached locally for faster subsequent runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := lf.apply(cmd, &c.Config); err != nil {
				return err
			}
			return c.runLayout(cmd.Context(), args[0], output, format)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file, - for stdout (default: <input>.layout.json)")
	cmd.Flags().StringVar(&format, "format", "json", "output format: json, text")
	lf.register(cmd)

	return cmd
}

// runLayout loads the AST, computes the layout and writes output.
func (c *CLI) runLayout(ctx context.Context, input, output, format string) error {
	if format != "json" && format != "text" {
		return errors.New(errors.ErrCodeInvalidFormat, "invalid layout format: %q (must be json or text)", format)
	}

	root, err := tree.ReadFile(input)
	if err != nil {
		return fmt.Errorf("load ast %s: %w", input, err)
	}

	runner, err := c.newRunner(ctx, false)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	prog := newProgress(loggerFromContext(ctx))
	l, hit, err := runner.LayoutWithCacheInfo(ctx, root, runner.Options)
	if err != nil {
		return err
	}
	prog.done("Computed layout", "nodes", len(l.Nodes), "cached", hit)

	var data []byte
	if format == "text" {
		data = []byte(sink.RenderText(l, sink.WithCoordinates()))
	} else {
		if data, err = l.MarshalJSON(); err != nil {
			return err
		}
		data = append(data, '\n')
	}

	path := outputPath(output, input, ".layout."+format)
	if format == "text" && output == "" {
		path = "-"
	}
	if err := writeOutput(path, data); err != nil {
		return err
	}

	if path != "-" {
		printSuccess("Layout computed")
		printStats(len(l.Nodes), len(l.Edges), hit)
		printFile(path)
		printNextStep("Render it", fmt.Sprintf("%s render %s", appName, input))
	}
	return nil
}
