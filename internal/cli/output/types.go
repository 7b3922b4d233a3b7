package output

// GraphOutput is the JSON output of the graph command.
type GraphOutput struct {
	Project          string       `json:"project"`
	Anchor           string       `json:"anchor,omitempty"`
	Levels           []GraphLevel `json:"levels"`
	Roots            []string     `json:"roots"`
	Leaves           []string     `json:"leaves"`
	TotalSubprojects int          `json:"total_subprojects"`
	TotalEdges       int          `json:"total_edges"`
}

// GraphLevel groups subprojects evaluated at the same depth.
type GraphLevel struct {
	Level       int         `json:"level"`
	Subprojects []GraphNode `json:"subprojects"`
}

// GraphNode is one subproject in the evaluation graph.
type GraphNode struct {
	ID        string   `json:"id"`
	Kind      string   `json:"kind"`
	DependsOn []string `json:"depends_on,omitempty"`
	UsedBy    []string `json:"used_by,omitempty"`
}

// NamespaceEntry is one row of the namespace command.
type NamespaceEntry struct {
	Subproject string `json:"subproject"`
	Kind       string `json:"kind"`
	Namespace  string `json:"namespace,omitempty"`
	Source     string `json:"source"` // explicit, inferred or none
}

// RelocationEntry is one row of the relocate command.
type RelocationEntry struct {
	Subproject string `json:"subproject"`
	OutputDir  string `json:"output_dir"`
}

// RelocateOutput is the JSON output of the relocate command.
type RelocateOutput struct {
	BuildDir    string            `json:"build_dir"`
	Subprojects []RelocationEntry `json:"subprojects"`
}
