package dag

import (
	"errors"
	"slices"
	"testing"
)

func newTestGraph(t *testing.T, ids []string, edges [][2]string) *Graph[string] {
	t.Helper()
	g := NewGraph[string]()
	for _, id := range ids {
		g.AddNode(id, id)
	}
	for _, e := range edges {
		if err := g.AddEdge(e[0], e[1]); err != nil {
			t.Fatalf("failed to add edge %v: %v", e, err)
		}
	}
	return g
}

func positions(nodes []*Node[string]) map[string]int {
	pos := make(map[string]int, len(nodes))
	for i, n := range nodes {
		pos[n.ID] = i
	}
	return pos
}

func TestGraph_AddNodeAndEdge(t *testing.T) {
	g := newTestGraph(t, []string{"app", "core", "image-picker"}, [][2]string{
		{"app", "core"},
		{"app", "image-picker"},
	})

	if roots := g.Roots(); !slices.Equal(roots, []string{"app"}) {
		t.Errorf("unexpected roots: %v", roots)
	}
	if g.EdgeCount() != 2 {
		t.Errorf("expected 2 edges, got %d", g.EdgeCount())
	}
}

func TestGraph_AddNode_ReplacesData(t *testing.T) {
	g := NewGraph[int]()
	g.AddNode("app", 1)
	g.AddNode("app", 2)

	sorted, err := g.TopologicalSort()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sorted) != 1 {
		t.Fatalf("expected 1 node, got %d", len(sorted))
	}
	if sorted[0].Data != 2 {
		t.Errorf("expected data 2, got %d", sorted[0].Data)
	}
}

func TestGraph_AddEdge_InvalidNodes(t *testing.T) {
	g := NewGraph[string]()
	g.AddNode("app", "")

	if err := g.AddEdge("app", "missing"); err == nil {
		t.Error("expected error for nonexistent child node")
	}
	if err := g.AddEdge("missing", "app"); err == nil {
		t.Error("expected error for nonexistent parent node")
	}
	if err := g.AddEdge("app", "app"); err == nil {
		t.Error("expected error for self-loop")
	}
}

func TestGraph_DuplicateEdges(t *testing.T) {
	g := newTestGraph(t, []string{"a", "b"}, [][2]string{{"a", "b"}, {"a", "b"}})

	if g.EdgeCount() != 1 {
		t.Errorf("expected 1 edge (no duplicates), got %d", g.EdgeCount())
	}
	if len(g.Parents("b")) != 1 {
		t.Errorf("expected 1 parent, got %v", g.Parents("b"))
	}
}

func TestGraph_FindCycle(t *testing.T) {
	acyclic := newTestGraph(t, []string{"a", "b", "c"}, [][2]string{{"a", "b"}, {"b", "c"}})
	if cycle := acyclic.FindCycle(); cycle != nil {
		t.Errorf("expected no cycle, got %v", cycle)
	}

	cyclic := newTestGraph(t, []string{"a", "b", "c"}, [][2]string{{"a", "b"}, {"b", "c"}, {"c", "a"}})
	cycle := cyclic.FindCycle()
	if len(cycle) != 4 {
		t.Fatalf("expected closed cycle of 4 entries, got %v", cycle)
	}
	if cycle[0] != cycle[len(cycle)-1] {
		t.Errorf("cycle should start and end with the same node: %v", cycle)
	}
}

func TestGraph_TopologicalSort_AnchorFirst(t *testing.T) {
	// Every subproject depends on app.
	g := newTestGraph(t, []string{"app", "camera", "image-picker", "path-provider"}, [][2]string{
		{"app", "camera"},
		{"app", "image-picker"},
		{"app", "path-provider"},
	})

	sorted, err := g.TopologicalSort()
	if err != nil {
		t.Fatalf("failed to sort: %v", err)
	}

	var ids []string
	for _, n := range sorted {
		ids = append(ids, n.ID)
	}
	want := []string{"app", "camera", "image-picker", "path-provider"}
	if !slices.Equal(ids, want) {
		t.Errorf("expected %v, got %v", want, ids)
	}
}

func TestGraph_TopologicalSort_Diamond(t *testing.T) {
	g := newTestGraph(t, []string{"a", "b", "c", "d"}, [][2]string{
		{"a", "b"}, {"a", "c"}, {"b", "d"}, {"c", "d"},
	})

	sorted, err := g.TopologicalSort()
	if err != nil {
		t.Fatalf("failed to sort: %v", err)
	}
	pos := positions(sorted)

	if pos["a"] != 0 {
		t.Error("a should be first")
	}
	if pos["d"] != 3 {
		t.Error("d should be last")
	}
}

func TestGraph_TopologicalSort_DependencyWithLaterID(t *testing.T) {
	// zeta sorts after alpha but alpha depends on it.
	g := newTestGraph(t, []string{"alpha", "zeta"}, [][2]string{{"zeta", "alpha"}})

	sorted, err := g.TopologicalSort()
	if err != nil {
		t.Fatalf("failed to sort: %v", err)
	}
	pos := positions(sorted)
	if pos["zeta"] >= pos["alpha"] {
		t.Error("zeta should come before alpha")
	}
}

func TestGraph_TopologicalSort_WithCycle(t *testing.T) {
	g := newTestGraph(t, []string{"a", "b"}, [][2]string{{"a", "b"}, {"b", "a"}})

	_, err := g.TopologicalSort()
	var cycleErr *CycleError
	if !errors.As(err, &cycleErr) {
		t.Fatalf("expected CycleError, got %v", err)
	}
	if len(cycleErr.Path) == 0 {
		t.Error("expected cycle path to be non-empty")
	}
}

func TestGraph_Levels(t *testing.T) {
	g := newTestGraph(t, []string{"app", "core", "feature-a", "feature-b", "shell"}, [][2]string{
		{"app", "core"},
		{"core", "feature-a"},
		{"core", "feature-b"},
		{"feature-a", "shell"},
		{"feature-b", "shell"},
	})

	levels, err := g.Levels()
	if err != nil {
		t.Fatalf("failed to get levels: %v", err)
	}

	want := [][]string{{"app"}, {"core"}, {"feature-a", "feature-b"}, {"shell"}}
	if len(levels) != len(want) {
		t.Fatalf("expected %d levels, got %v", len(want), levels)
	}
	for i := range want {
		if !slices.Equal(levels[i], want[i]) {
			t.Errorf("level %d: expected %v, got %v", i, want[i], levels[i])
		}
	}
}

func TestGraph_Levels_Empty(t *testing.T) {
	levels, err := NewGraph[string]().Levels()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(levels) != 0 {
		t.Errorf("expected no levels, got %v", levels)
	}
}

func TestGraph_Upstream(t *testing.T) {
	g := newTestGraph(t, []string{"a", "b", "c", "d"}, [][2]string{{"a", "b"}, {"b", "c"}})

	up := g.Upstream("c")
	if !slices.Equal(up, []string{"a", "b"}) {
		t.Errorf("unexpected upstream: %v", up)
	}
}

func TestGraph_RootsAndLeaves(t *testing.T) {
	g := newTestGraph(t, []string{"a", "b", "c"}, [][2]string{{"a", "c"}, {"b", "c"}})

	if roots := g.Roots(); !slices.Equal(roots, []string{"a", "b"}) {
		t.Errorf("unexpected roots: %v", roots)
	}
	if leaves := g.Leaves(); !slices.Equal(leaves, []string{"c"}) {
		t.Errorf("unexpected leaves: %v", leaves)
	}
}
