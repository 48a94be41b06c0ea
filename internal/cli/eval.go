package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/ruleviz/pkg/pipeline"
	"github.com/matzehuels/ruleviz/pkg/render/sink"
)

// evalCommand creates the eval command: one full submit cycle from the
// terminal.
func (c *CLI) evalCommand() *cobra.Command {
	var (
		ruleFile string
		fields   []string
		sample   bool
		asJSON   bool
		svgOut   string
		lf       layoutFlags
	)

	cmd := &cobra.Command{
		Use:   "eval [rule]",
		Short: "Evaluate a rule against data and draw its syntax tree",
		Long: `Evaluate a rule against data and draw its syntax tree.

The rule is evaluated (POST /evaluate) and compiled (POST /api/create_rule)
concurrently. The results are printed as a table, followed by an outline of
the laid out AST. Data fields are given as key=value pairs; values are read
as JSON when possible (30, true, "Sales") and as text otherwise.`,
		Example: `  ruleviz eval 'age > 30' --data age=35
  ruleviz eval 'department == "Sales"' --sample --svg rule.svg`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := lf.apply(cmd, &c.Config); err != nil {
				return err
			}
			rule, err := readRule(args, ruleFile)
			if err != nil {
				return err
			}
			data, err := pipeline.ParseData(fields)
			if err != nil {
				return err
			}
			if sample {
				for k, v := range pipeline.SampleData() {
					if _, ok := data[k]; !ok {
						data[k] = v
					}
				}
			}
			return c.runEval(cmd.Context(), pipeline.Request{Rule: rule, Data: data}, asJSON, svgOut)
		},
	}

	cmd.Flags().StringVar(&ruleFile, "rule", "", "read the rule from a file (- for stdin)")
	cmd.Flags().StringArrayVarP(&fields, "data", "d", nil, "data field as key=value (repeatable)")
	cmd.Flags().BoolVar(&sample, "sample", false, "fill missing fields from the sample record")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the results as JSON")
	cmd.Flags().StringVar(&svgOut, "svg", "", "write the tree drawing to this SVG file")
	lf.register(cmd)

	return cmd
}

// runEval runs one cycle and prints its state.
func (c *CLI) runEval(ctx context.Context, req pipeline.Request, asJSON bool, svgOut string) error {
	logger := loggerFromContext(ctx)

	runner, err := c.newRunner(ctx, true)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	spinner := newSpinnerWithContext(ctx, "Evaluating rule...")
	spinner.Start()
	st := runner.Run(ctx, req)
	spinner.Stop()
	logger.Debug("cycle finished", "stats", st.Stats.String())

	if st.Err != nil {
		return st.Err
	}
	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(st.Results)
	}

	printState(st)
	if st.Layout != nil {
		fmt.Print(sink.RenderText(*st.Layout))
	}
	if svgOut != "" {
		if err := writeOutput(svgOut, st.SVG); err != nil {
			return err
		}
		printFile(svgOut)
	}
	return nil
}
