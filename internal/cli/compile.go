package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/ruleviz/pkg/errors"
	"github.com/matzehuels/ruleviz/pkg/tree"
)

// compileCommand creates the compile command, which fetches a rule's AST
// from the rule service.
func (c *CLI) compileCommand() *cobra.Command {
	var (
		ruleFile string
		output   string
	)

	cmd := &cobra.Command{
		Use:   "compile [rule]",
		Short: "Compile a rule to its abstract syntax tree",
		Long: `Compile a rule to its abstract syntax tree.

The rule is sent to the rule service (POST /api/create_rule) and the returned
AST is written as JSON. Pass the rule as an argument, or read it from a file
with --rule (- for stdin).

ASTs are cached per service host.`,
		Example: `  ruleviz compile 'age > 30 and department == "Sales"' -o rule.json
  ruleviz compile --rule rule.txt`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rule, err := readRule(args, ruleFile)
			if err != nil {
				return err
			}
			return c.runCompile(cmd.Context(), rule, output)
		},
	}

	cmd.Flags().StringVar(&ruleFile, "rule", "", "read the rule from a file (- for stdin)")
	cmd.Flags().StringVarP(&output, "output", "o", "-", "output file (- for stdout)")

	return cmd
}

// runCompile fetches the AST of rule and writes it to output.
func (c *CLI) runCompile(ctx context.Context, rule, output string) error {
	runner, err := c.newRunner(ctx, true)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	spinner := newSpinnerWithContext(ctx, "Compiling rule...")
	spinner.Start()
	root, hit, err := runner.Compile(ctx, rule)
	if err != nil {
		spinner.StopWithError(errors.UserMessage(err))
		return err
	}
	spinner.Stop()

	data, err := tree.Marshal(root)
	if err != nil {
		return err
	}
	if err := writeOutput(output, append(data, '\n')); err != nil {
		return err
	}

	if output != "-" {
		printSuccess("Compiled rule")
		printStats(tree.Count(root), tree.Count(root)-1, hit)
		printFile(output)
		printNextStep("Render it", fmt.Sprintf("%s render %s", appName, output))
	}
	return nil
}

// readRule returns the rule from the positional argument or the --rule file.
func readRule(args []string, file string) (string, error) {
	switch {
	case len(args) == 1 && file != "":
		return "", errors.New(errors.ErrCodeInvalidInput, "pass the rule as an argument or with --rule, not both")
	case len(args) == 1:
		return args[0], nil
	case file == "":
		return "", errors.New(errors.ErrCodeInvalidInput, "no rule given")
	}

	var (
		data []byte
		err  error
	)
	if file == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(file)
	}
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidInput, err, "read rule")
	}
	return strings.TrimRight(string(data), "\r\n"), nil
}
