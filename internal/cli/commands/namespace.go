package commands

import (
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/projnorm/internal/cli/output"
	"github.com/leapstack-labs/projnorm/internal/project"
)

// Namespace sources.
const (
	sourceExplicit = "explicit"
	sourceInferred = "inferred"
	sourceNone     = "none"
)

// NewNamespaceCommand creates the namespace command.
func NewNamespaceCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "namespace",
		Aliases: []string{"ns"},
		Short:   "Show the namespace of every subproject",
		Long: `Evaluate the project graph and show each subproject's namespace.

Library and application subprojects without an explicit namespace get
the configured prefix followed by their id, with '-' and ':' replaced
by '.'. Other subprojects have no namespace. Nothing is written.`,
		Example: `  # Show namespaces
  projnorm namespace

  # Preview a different prefix
  projnorm namespace --namespace-prefix io.acme.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			eng := cmdCtx.Engine
			r := cmdCtx.Renderer

			if err := eng.Evaluate(cmd.Context()); err != nil {
				return err
			}
			entries := namespaceEntries(eng.Graph().Subprojects())

			switch r.EffectiveMode() {
			case output.ModeJSON:
				return r.JSON(entries)
			case output.ModeMarkdown:
				r.Println(output.FormatHeader(1, "Namespaces"))
				r.Println("")
			default:
				r.Header(1, "Namespaces")
			}

			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				ns := e.Namespace
				if ns == "" {
					ns = "-"
				}
				rows = append(rows, []string{e.Subproject, e.Kind, ns, e.Source})
			}
			r.Table([]string{"Subproject", "Kind", "Namespace", "Source"}, rows)
			return nil
		},
	}
}

func namespaceEntries(subprojects []*project.Subproject) []output.NamespaceEntry {
	entries := make([]output.NamespaceEntry, 0, len(subprojects))
	for _, s := range subprojects {
		source := sourceNone
		switch {
		case s.NamespaceInferred:
			source = sourceInferred
		case s.Namespace != "":
			source = sourceExplicit
		}
		entries = append(entries, output.NamespaceEntry{
			Subproject: s.ID,
			Kind:       string(s.Kind()),
			Namespace:  s.Namespace,
			Source:     source,
		})
	}
	return entries
}
