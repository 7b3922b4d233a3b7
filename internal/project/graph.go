package project

import (
	"fmt"
	"path/filepath"

	"github.com/leapstack-labs/projnorm/internal/dag"
)

// Graph is the evaluated project graph: the root project directory and its
// subprojects, linked by evaluation dependencies.
type Graph struct {
	Name   string
	Root   string
	Anchor string

	subprojects []*Subproject
	byID        map[string]*Subproject
	deps        *dag.Graph[*Subproject]
}

// NewGraph links the subprojects of f below root. When anchor is non-empty
// every other subproject's evaluation depends on it.
func NewGraph(f *File, root, anchor string) (*Graph, error) {
	if err := validate(f); err != nil {
		return nil, err
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving project root: %w", err)
	}

	g := &Graph{
		Name:   f.Name,
		Root:   absRoot,
		Anchor: anchor,
		byID:   make(map[string]*Subproject, len(f.Subprojects)),
		deps:   dag.NewGraph[*Subproject](),
	}
	if g.Name == "" {
		g.Name = filepath.Base(absRoot)
	}

	for _, s := range f.Subprojects {
		s.root = absRoot
		g.subprojects = append(g.subprojects, s)
		g.byID[s.ID] = s
		g.deps.AddNode(s.ID, s)
	}

	if anchor != "" {
		if _, ok := g.byID[anchor]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownAnchor, anchor)
		}
	}

	for _, s := range g.subprojects {
		if anchor != "" && s.ID != anchor {
			if err := g.deps.AddEdge(anchor, s.ID); err != nil {
				return nil, err
			}
		}
		for _, dep := range s.DependsOn {
			if err := g.deps.AddEdge(dep, s.ID); err != nil {
				return nil, fmt.Errorf("subproject %q: %w", s.ID, err)
			}
		}
	}

	if cycle := g.deps.FindCycle(); cycle != nil {
		return nil, &dag.CycleError{Path: cycle}
	}
	return g, nil
}

// Subprojects returns the subprojects in declaration order.
func (g *Graph) Subprojects() []*Subproject {
	return g.subprojects
}

// Subproject returns a subproject by id.
func (g *Graph) Subproject(id string) (*Subproject, bool) {
	s, ok := g.byID[id]
	return s, ok
}

// EvaluationOrder returns subprojects with dependencies before dependents.
func (g *Graph) EvaluationOrder() ([]*Subproject, error) {
	nodes, err := g.deps.TopologicalSort()
	if err != nil {
		return nil, err
	}
	order := make([]*Subproject, 0, len(nodes))
	for _, n := range nodes {
		order = append(order, n.Data)
	}
	return order, nil
}

// Levels groups subproject ids by evaluation depth.
func (g *Graph) Levels() ([][]string, error) {
	return g.deps.Levels()
}

// Dependencies returns the direct evaluation dependencies of a subproject.
func (g *Graph) Dependencies(id string) []string {
	return g.deps.Parents(id)
}

// Dependents returns the subprojects whose evaluation depends on id.
func (g *Graph) Dependents(id string) []string {
	return g.deps.Children(id)
}

// EdgeCount returns the number of evaluation dependencies.
func (g *Graph) EdgeCount() int {
	return g.deps.EdgeCount()
}

// Upstream returns every subproject id that must be evaluated before id.
func (g *Graph) Upstream(id string) []string {
	return g.deps.Upstream(id)
}

// Roots returns the subprojects evaluated without waiting on another one.
func (g *Graph) Roots() []string {
	return g.deps.Roots()
}

// Leaves returns the subprojects no other evaluation waits on.
func (g *Graph) Leaves() []string {
	return g.deps.Leaves()
}
