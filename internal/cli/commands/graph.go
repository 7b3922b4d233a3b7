package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/projnorm/internal/cli/output"
	"github.com/leapstack-labs/projnorm/internal/project"
)

// GraphQuerier provides read-only access to the evaluation graph.
type GraphQuerier interface {
	Subproject(id string) (*project.Subproject, bool)
	Dependencies(id string) []string
	Dependents(id string) []string
	Roots() []string
	Leaves() []string
	EdgeCount() int
}

// NewGraphCommand creates the graph command.
func NewGraphCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "graph",
		Aliases: []string{"dag"},
		Short:   "Show the subproject evaluation graph",
		Long: `Display the evaluation graph of all subprojects.

Subprojects are grouped by evaluation level. The anchor subproject, when
configured, is evaluated before every other one; declared depends_on
edges come next.

Output adapts to environment:
  - Terminal: Styled output with colors
  - Piped/Scripted: Markdown format (agent-friendly)`,
		Example: `  # Show the graph
  projnorm graph

  # Without the anchor edges
  projnorm graph --anchor ""

  # Output as JSON
  projnorm graph --output json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGraph(cmd)
		},
	}
	return cmd
}

func runGraph(cmd *cobra.Command) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	r := cmdCtx.Renderer
	graph := cmdCtx.Engine.Graph()

	levels, err := graph.Levels()
	if err != nil {
		return fmt.Errorf("failed to get evaluation levels: %w", err)
	}

	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(buildGraphOutput(graph, levels))
	case output.ModeMarkdown:
		graphMarkdown(r, graph, levels)
	default:
		graphText(r, graph, levels)
	}
	return nil
}

func kindOf(graph GraphQuerier, id string) string {
	if s, ok := graph.Subproject(id); ok {
		return string(s.Kind())
	}
	return ""
}

// graphText outputs the graph in styled text format.
func graphText(r *output.Renderer, graph GraphQuerier, levels [][]string) {
	styles := r.Styles()

	r.Header(1, "Evaluation Graph")

	total := 0
	for i, level := range levels {
		r.Println(styles.Header2.Render(fmt.Sprintf("Level %d:", i)))
		for _, id := range level {
			total++
			r.Printf("  %s %s\n", styles.Path.Render(id), styles.Muted.Render("("+kindOf(graph, id)+")"))
			if deps := graph.Dependencies(id); len(deps) > 0 {
				r.Printf("    %s %s\n", styles.Muted.Render("after:"), strings.Join(deps, ", "))
			}
			if children := graph.Dependents(id); len(children) > 0 {
				r.Printf("    %s %s\n", styles.Muted.Render("before:"), strings.Join(children, ", "))
			}
		}
		r.Println("")
	}

	r.Printf("%s %s\n", styles.Muted.Render("roots:"), strings.Join(graph.Roots(), ", "))
	r.Printf("%s %s\n", styles.Muted.Render("leaves:"), strings.Join(graph.Leaves(), ", "))
	r.Println(styles.Muted.Render(fmt.Sprintf("Total: %s, %s",
		plural(total, "subproject"), plural(graph.EdgeCount(), "dependency edge"))))
}

// graphMarkdown outputs the graph in markdown format.
func graphMarkdown(r *output.Renderer, graph GraphQuerier, levels [][]string) {
	r.Println(output.FormatHeader(1, "Evaluation Graph"))
	r.Println("")

	total := 0
	for i, level := range levels {
		name := fmt.Sprintf("Level %d", i)
		if i == 0 {
			name = "Level 0 (Roots)"
		}
		r.Println(output.FormatHeader(2, name))

		for _, id := range level {
			total++
			r.Printf("- %s (%s)\n", id, kindOf(graph, id))
			if deps := graph.Dependencies(id); len(deps) > 0 {
				r.Printf("  - after: %s\n", strings.Join(deps, ", "))
			}
			if children := graph.Dependents(id); len(children) > 0 {
				r.Printf("  - before: %s\n", strings.Join(children, ", "))
			}
		}
		r.Println("")
	}

	r.Println(output.FormatHeader(2, "Summary"))
	r.Println(output.FormatKeyValue("Total Subprojects", fmt.Sprintf("%d", total)))
	r.Println(output.FormatKeyValue("Total Edges", fmt.Sprintf("%d", graph.EdgeCount())))
	r.Println(output.FormatKeyValue("Roots", strings.Join(graph.Roots(), ", ")))
	r.Println(output.FormatKeyValue("Leaves", strings.Join(graph.Leaves(), ", ")))
}

func buildGraphOutput(graph *project.Graph, levels [][]string) output.GraphOutput {
	out := output.GraphOutput{
		Project:          graph.Name,
		Anchor:           graph.Anchor,
		Levels:           make([]output.GraphLevel, 0, len(levels)),
		Roots:            graph.Roots(),
		Leaves:           graph.Leaves(),
		TotalSubprojects: len(graph.Subprojects()),
		TotalEdges:       graph.EdgeCount(),
	}
	for i, level := range levels {
		gl := output.GraphLevel{Level: i, Subprojects: make([]output.GraphNode, 0, len(level))}
		for _, id := range level {
			gl.Subprojects = append(gl.Subprojects, output.GraphNode{
				ID:        id,
				Kind:      kindOf(graph, id),
				DependsOn: graph.Dependencies(id),
				UsedBy:    graph.Dependents(id),
			})
		}
		out.Levels = append(out.Levels, gl)
	}
	return out
}
