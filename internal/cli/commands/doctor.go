package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/leapstack-labs/projnorm/internal/cli/output"
	"github.com/leapstack-labs/projnorm/internal/engine"
	"github.com/leapstack-labs/projnorm/internal/namespace"
	"github.com/leapstack-labs/projnorm/internal/relocate"
)

// Check statuses.
const (
	statusPass  = "pass"
	statusWarn  = "warn"
	statusError = "error"
)

// Check groups.
const (
	groupLayout     = "layout"
	groupManifests  = "manifests"
	groupNamespaces = "namespaces"
	groupMerge      = "merge"
)

// DoctorOutput is the JSON output for the doctor command.
type DoctorOutput struct {
	Summary      ProjectSummary `json:"summary"`
	HealthChecks []HealthCheck  `json:"health_checks"`
	IssueCount   int            `json:"issue_count"`
	Healthy      bool           `json:"healthy"`
}

// ProjectSummary contains project-level statistics.
type ProjectSummary struct {
	Project      string `json:"project"`
	Subprojects  int    `json:"subprojects"`
	Android      int    `json:"android"`
	Inferred     int    `json:"inferred_namespaces"`
	LegacyCount  int    `json:"legacy_manifests"`
	GraphDepth   int    `json:"graph_depth"`
	EdgeCount    int    `json:"edge_count"`
	BuildDir     string `json:"build_dir"`
	MergeCommand string `json:"merge_command,omitempty"`
}

// HealthCheck represents a single health check result.
type HealthCheck struct {
	Name       string   `json:"name"`
	Group      string   `json:"group"`
	Status     string   `json:"status"` // "pass", "warn", "error"
	IssueCount int      `json:"issue_count"`
	Details    []string `json:"details,omitempty"`
}

// NewDoctorCommand creates the doctor command.
func NewDoctorCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check the project before normalizing it",
		Long: `Analyze the project for problems a run would hit or hide.

The doctor command evaluates the project graph without writing anything
and reports:
- Missing subproject directories and main manifests
- Manifests still carrying the legacy package attribute
- Namespaces shared by more than one subproject
- A merge command that cannot be found
- A root build directory inside a subproject source directory

Output adapts to environment:
  - Terminal: Styled output with colors
  - Piped/Scripted: Markdown format
  - JSON: Machine-readable format`,
		Example: `  # Run health check
  projnorm doctor

  # Output as JSON
  projnorm doctor -o json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDoctor(cmd)
		},
	}
	return cmd
}

func runDoctor(cmd *cobra.Command) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	eng := cmdCtx.Engine
	r := cmdCtx.Renderer

	if err := eng.Evaluate(cmd.Context()); err != nil {
		return err
	}
	out := buildDoctorOutput(eng, cmdCtx.Cfg.MergeCommand)

	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(out)
	case output.ModeMarkdown:
		renderDoctorMarkdown(r, out)
	default:
		renderDoctorText(r, out)
	}
	return nil
}

func buildDoctorOutput(eng *engine.Engine, mergeCommand string) *DoctorOutput {
	graph := eng.Graph()
	subprojects := graph.Subprojects()

	summary := ProjectSummary{
		Project:      graph.Name,
		Subprojects:  len(subprojects),
		EdgeCount:    graph.EdgeCount(),
		BuildDir:     eng.BuildDir(),
		MergeCommand: mergeCommand,
	}
	if levels, err := graph.Levels(); err == nil {
		summary.GraphDepth = len(levels)
	}

	var missingDirs, missingManifests, legacy, nested []string
	for _, s := range subprojects {
		if s.NamespaceInferred {
			summary.Inferred++
		}
		if relocate.Within(s.SourceDir(), eng.BuildDir()) {
			nested = append(nested, fmt.Sprintf("%s contains the build directory", s.ID))
		}
		if !eng.Exists(s.SourceDir()) {
			missingDirs = append(missingDirs, fmt.Sprintf("%s: %s", s.ID, relTo(eng.ProjectDir(), s.SourceDir())))
			continue
		}
		if !s.IsAndroid() {
			continue
		}
		summary.Android++

		m, err := eng.ReadManifest(s.ManifestPath())
		switch {
		case errors.Is(err, fs.ErrNotExist):
			missingManifests = append(missingManifests, fmt.Sprintf("%s: %s", s.ID, relTo(eng.ProjectDir(), s.ManifestPath())))
		case err != nil:
			missingManifests = append(missingManifests, fmt.Sprintf("%s: %v", s.ID, err))
		case m.HasLegacyPackage():
			legacy = append(legacy, fmt.Sprintf("%s: %s", s.ID, relTo(eng.ProjectDir(), m.Path)))
		}
	}
	summary.LegacyCount = len(legacy)

	var collisions []string
	for _, c := range namespace.FindCollisions(subprojects) {
		collisions = append(collisions, fmt.Sprintf("%s: %s", c.Namespace, strings.Join(c.Subprojects, ", ")))
	}

	var merge []string
	if err := eng.Merger().Check(); err != nil {
		merge = append(merge, err.Error())
	}

	checks := []HealthCheck{
		newCheck("Subproject directories exist", groupLayout, statusWarn, missingDirs),
		newCheck("Build directory outside sources", groupLayout, statusError, nested),
		newCheck("Main manifests exist", groupManifests, statusWarn, missingManifests),
		newCheck("Legacy package attributes", groupManifests, statusWarn, legacy),
		newCheck("Namespaces are unique", groupNamespaces, statusWarn, collisions),
		newCheck("Merge command available", groupMerge, statusError, merge),
	}
	sort.SliceStable(checks, func(i, j int) bool {
		return checks[i].Group < checks[j].Group
	})

	out := &DoctorOutput{Summary: summary, HealthChecks: checks, Healthy: true}
	for _, c := range checks {
		out.IssueCount += c.IssueCount
		if c.Status == statusError {
			out.Healthy = false
		}
	}
	return out
}

func newCheck(name, group, failStatus string, details []string) HealthCheck {
	status := statusPass
	if len(details) > 0 {
		status = failStatus
	}
	return HealthCheck{Name: name, Group: group, Status: status, IssueCount: len(details), Details: details}
}

func renderDoctorText(r *output.Renderer, out *DoctorOutput) {
	styles := r.Styles()

	r.Println("")
	r.Println(styles.Header1.Render("projnorm Health Report: " + out.Summary.Project))
	r.Println(styles.Muted.Render(strings.Repeat("=", 55)))
	r.Println("")

	r.Println(styles.Header2.Render("Project Summary"))
	r.Printf("   Subprojects: %d | Android: %d | Inferred namespaces: %d\n",
		out.Summary.Subprojects, out.Summary.Android, out.Summary.Inferred)
	r.Printf("   Graph Depth: %d levels | Edges: %d\n", out.Summary.GraphDepth, out.Summary.EdgeCount)
	r.Printf("   Build Dir: %s\n", styles.Path.Render(out.Summary.BuildDir))
	r.Println("")

	r.Println(styles.Header2.Render("Health Checks"))
	r.Println("")

	currentGroup := ""
	titleCaser := cases.Title(language.English)
	for _, check := range out.HealthChecks {
		if check.Group != currentGroup {
			currentGroup = check.Group
			r.Println(styles.Bold.Render("   " + titleCaser.String(currentGroup)))
			r.Println(styles.Muted.Render("   " + strings.Repeat("-", 40)))
		}

		icon := styles.StatusSuccess.String()
		switch check.Status {
		case statusWarn:
			icon = styles.Warning.Render("!")
		case statusError:
			icon = styles.StatusFailed.String()
		}

		line := fmt.Sprintf("%s %s", icon, check.Name)
		if check.IssueCount > 0 {
			line += fmt.Sprintf(" (%s)", plural(check.IssueCount, "issue"))
		}
		r.Println("   " + line)

		for i, detail := range check.Details {
			if i >= 3 {
				r.Println(styles.Muted.Render(fmt.Sprintf("       ... and %d more", len(check.Details)-3)))
				break
			}
			r.Println(styles.Muted.Render("       - " + detail))
		}
	}
	r.Println("")

	r.Println(styles.Muted.Render(strings.Repeat("=", 55)))
	if out.Healthy {
		r.Success("ready to normalize")
	} else {
		r.Error("fix the errors above before running")
	}
}

func renderDoctorMarkdown(r *output.Renderer, out *DoctorOutput) {
	r.Println(output.FormatHeader(1, "projnorm Health Report: "+out.Summary.Project))
	r.Println("")

	r.Println(output.FormatHeader(2, "Project Summary"))
	r.Println("")
	r.Println(output.FormatKeyValue("Subprojects", fmt.Sprintf("%d", out.Summary.Subprojects)))
	r.Println(output.FormatKeyValue("Android", fmt.Sprintf("%d", out.Summary.Android)))
	r.Println(output.FormatKeyValue("Inferred Namespaces", fmt.Sprintf("%d", out.Summary.Inferred)))
	r.Println(output.FormatKeyValue("Legacy Manifests", fmt.Sprintf("%d", out.Summary.LegacyCount)))
	r.Println(output.FormatKeyValue("Build Dir", out.Summary.BuildDir))
	r.Println("")

	r.Println(output.FormatHeader(2, "Health Checks"))
	r.Println("")
	rows := make([][]string, 0, len(out.HealthChecks))
	for _, c := range out.HealthChecks {
		rows = append(rows, []string{c.Group, c.Name, c.Status, fmt.Sprintf("%d", c.IssueCount)})
	}
	r.Table([]string{"Group", "Check", "Status", "Issues"}, rows)
	r.Println("")

	for _, c := range out.HealthChecks {
		if len(c.Details) == 0 {
			continue
		}
		r.Println(output.FormatHeader(3, c.Name))
		for _, d := range c.Details {
			r.Printf("- %s\n", d)
		}
		r.Println("")
	}

	if out.Healthy {
		r.Println("**Ready to normalize.**")
	} else {
		r.Println("**Fix the errors above before running.**")
	}
}
