package cli

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/ruleviz/pkg/errors"
	"github.com/matzehuels/ruleviz/pkg/pipeline"
	"github.com/matzehuels/ruleviz/pkg/render/sink"
)

var (
	promptStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	helpStyle   = lipgloss.NewStyle().Foreground(colorDim)
	cursorStyle = lipgloss.NewStyle().Reverse(true)
)

// tuiCommand creates the tui command: an interactive rule prompt.
func (c *CLI) tuiCommand() *cobra.Command {
	var (
		fields []string
		lf     layoutFlags
	)

	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Edit rules interactively and watch their trees",
		Long: `Edit rules interactively and watch their trees.

Type a rule and press enter to evaluate it against the data. The results and
an outline of the syntax tree appear below the prompt. Submitting again
before an answer arrives discards the older answer. Up and down walk the
rule history.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := lf.apply(cmd, &c.Config); err != nil {
				return err
			}
			data := pipeline.SampleData()
			if len(fields) > 0 {
				var err error
				if data, err = pipeline.ParseData(fields); err != nil {
					return err
				}
			}
			return c.runTUI(cmd.Context(), data)
		},
	}

	cmd.Flags().StringArrayVarP(&fields, "data", "d", nil, "data field as key=value (default: the sample record)")
	lf.register(cmd)

	return cmd
}

func (c *CLI) runTUI(ctx context.Context, data map[string]any) error {
	runner, err := c.newRunner(ctx, true)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	_, err = tea.NewProgram(NewRuleModel(ctx, runner, data), tea.WithContext(ctx)).Run()
	return err
}

// =============================================================================
// RuleModel - Interactive rule prompt
// =============================================================================

// stateMsg carries the outcome of one Submit.
type stateMsg struct {
	state pipeline.State
	err   error
}

// RuleModel is the bubbletea model for the rule prompt.
type RuleModel struct {
	ctx    context.Context
	runner *pipeline.Runner
	data   map[string]any

	Input   []rune
	History []string
	histIdx int

	State   *pipeline.State
	Pending int
}

// NewRuleModel creates a rule prompt that evaluates against data.
func NewRuleModel(ctx context.Context, runner *pipeline.Runner, data map[string]any) RuleModel {
	return RuleModel{ctx: ctx, runner: runner, data: data}
}

func (m RuleModel) Init() tea.Cmd {
	return nil
}

func (m RuleModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			rule := strings.TrimSpace(string(m.Input))
			if rule == "" {
				return m, nil
			}
			if len(m.History) == 0 || m.History[len(m.History)-1] != rule {
				m.History = append(m.History, rule)
			}
			m.histIdx = len(m.History)
			m.Pending++
			return m, m.submit(rule)
		case tea.KeyUp:
			if m.histIdx > 0 {
				m.histIdx--
				m.Input = []rune(m.History[m.histIdx])
			}
		case tea.KeyDown:
			if m.histIdx < len(m.History)-1 {
				m.histIdx++
				m.Input = []rune(m.History[m.histIdx])
			} else {
				m.histIdx = len(m.History)
				m.Input = nil
			}
		case tea.KeyBackspace:
			if len(m.Input) > 0 {
				m.Input = m.Input[:len(m.Input)-1]
			}
		case tea.KeySpace:
			m.Input = append(m.Input, ' ')
		case tea.KeyRunes:
			m.Input = append(m.Input, msg.Runes...)
		}
	case stateMsg:
		m.Pending--
		if msg.err != nil {
			// Superseded by a later submission.
			return m, nil
		}
		st := msg.state
		m.State = &st
	}
	return m, nil
}

// submit runs one cycle off the UI goroutine.
func (m RuleModel) submit(rule string) tea.Cmd {
	req := pipeline.Request{Rule: rule, Data: m.data}
	return func() tea.Msg {
		st, err := m.runner.Submit(m.ctx, req)
		return stateMsg{state: st, err: err}
	}
}

func (m RuleModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("ruleviz"))
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("⏎ evaluate  ↑/↓ history  esc quit"))
	b.WriteString("\n\n")

	b.WriteString(promptStyle.Render("rule> "))
	b.WriteString(string(m.Input))
	b.WriteString(cursorStyle.Render(" "))
	b.WriteString("\n")
	b.WriteString(StyleDim.Render(strings.ReplaceAll(strings.TrimSpace(pipeline.FormatData(m.data)), "\n", "  ")))
	b.WriteString("\n\n")

	if m.Pending > 0 {
		b.WriteString(StyleDim.Render("evaluating..."))
		b.WriteString("\n")
	}
	if m.State != nil {
		b.WriteString(stateView(*m.State))
	}
	return b.String()
}

// stateView draws a finished cycle: the error alone, or the results table
// followed by the tree outline.
func stateView(st pipeline.State) string {
	if st.Err != nil {
		code := errors.GetCode(st.Err)
		return StyleError.Render(iconError+" "+st.Message()) + "\n" + StyleDim.Render(string(code)) + "\n"
	}

	var b strings.Builder
	b.WriteString(resultsTable(st.Results))
	b.WriteString("\n")
	if st.Layout != nil {
		b.WriteString(sink.RenderText(*st.Layout))
	}
	b.WriteString(StyleDim.Render(st.Stats.String()))
	b.WriteString("\n")
	return b.String()
}
