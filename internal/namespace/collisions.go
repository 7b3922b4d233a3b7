package namespace

import (
	"cmp"
	"slices"

	"github.com/leapstack-labs/projnorm/internal/project"
)

// Collision is a namespace shared by more than one subproject.
type Collision struct {
	Namespace   string   `json:"namespace"`
	Subprojects []string `json:"subprojects"`
}

// FindCollisions reports namespaces shared by two or more subprojects.
// It only reports; inference does not consult it.
func FindCollisions(subprojects []*project.Subproject) []Collision {
	owners := make(map[string][]string)
	for _, s := range subprojects {
		if s.Namespace == "" {
			continue
		}
		owners[s.Namespace] = append(owners[s.Namespace], s.ID)
	}

	var out []Collision
	for ns, ids := range owners {
		if len(ids) < 2 {
			continue
		}
		slices.Sort(ids)
		out = append(out, Collision{Namespace: ns, Subprojects: ids})
	}
	slices.SortFunc(out, func(a, b Collision) int {
		return cmp.Compare(a.Namespace, b.Namespace)
	})
	return out
}
