package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/ruleviz/pkg/pipeline"
	"github.com/matzehuels/ruleviz/pkg/tree"
)

// renderCommand creates the render command for drawing rule ASTs.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		output   string
		formats  string
		detailed bool
		lf       layoutFlags
	)

	cmd := &cobra.Command{
		Use:   "render [ast.json]",
		Short: "Draw a rule AST as a node-link diagram",
		Long: `Draw a rule AST as a node-link diagram.

The AST is laid out first (see 'layout'), then drawn in every requested
format. svg, png, pdf, json and text use the computed layout; dot emits a
Graphviz description of the tree.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := lf.apply(cmd, &c.Config); err != nil {
				return err
			}
			return c.runRender(cmd.Context(), args[0], output, parseFormats(formats), detailed)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output base path (default: <input> without extension)")
	cmd.Flags().StringVarP(&formats, "format", "f", pipeline.FormatSVG, "output formats, comma separated: "+strings.Join(pipeline.FormatNames(), ", "))
	cmd.Flags().BoolVar(&detailed, "detailed", false, "add node ids and depths to dot labels")
	lf.register(cmd)

	return cmd
}

// runRender loads the AST, lays it out and writes one file per format.
func (c *CLI) runRender(ctx context.Context, input, output string, formats []string, detailed bool) error {
	logger := loggerFromContext(ctx)

	if err := pipeline.ValidateFormats(formats); err != nil {
		return err
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

	opts := runner.Options
	opts.Formats = formats
	opts.Detailed = detailed

	l, hit, err := runner.LayoutWithCacheInfo(ctx, root, opts)
	if err != nil {
		return err
	}
	logger.Debug("layout ready", "nodes", len(l.Nodes), "cached", hit)

	prog := newProgress(logger)
	artifacts, err := runner.Render(ctx, l, root, opts)
	if err != nil {
		return err
	}
	prog.done("Rendered", "formats", len(artifacts))

	base := basePath(output, input)
	names := make([]string, 0, len(artifacts))
	for format := range artifacts {
		names = append(names, format)
	}
	sort.Strings(names)

	printSuccess("Rendered %s", filepath.Base(input))
	printStats(len(l.Nodes), len(l.Edges), hit)
	for _, format := range names {
		path := base + "." + fileExt(format)
		if err := writeOutput(path, artifacts[format]); err != nil {
			return err
		}
		printFile(path)
	}
	return nil
}

// fileExt maps a format to the extension of its output file.
func fileExt(format string) string {
	if format == pipeline.FormatText {
		return "txt"
	}
	return format
}

// basePath derives the base output path from the output and input file paths.
// If output is empty, it strips the extension from input.
// If output has a format extension (.svg, .pdf, etc.), it strips that extension.
func basePath(output, input string) string {
	if output == "" {
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	ext := filepath.Ext(output)
	if pipeline.ValidFormats[strings.TrimPrefix(ext, ".")] {
		return strings.TrimSuffix(output, ext)
	}
	return output
}
