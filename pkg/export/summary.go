package export

import (
	"cmp"
	"encoding/json"
	"io"
	"slices"
	"time"

	"github.com/OFFIS-RIT/textgraph/pkg/common"
)

const topDegreeLimit = 10

// TypeCount is the number of elements carrying one type.
type TypeCount struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

// NodeDegree is the number of edges touching a node, in either direction.
type NodeDegree struct {
	ID     string `json:"id"`
	Type   string `json:"type"`
	Degree int    `json:"degree"`
}

// Summary describes a graph without listing it.
type Summary struct {
	Nodes             int          `json:"nodes"`
	Edges             int          `json:"edges"`
	NodeTypes         []TypeCount  `json:"node_types"`
	RelationshipTypes []TypeCount  `json:"relationship_types"`
	TopNodes          []NodeDegree `json:"top_nodes"`
	GeneratedAt       time.Time    `json:"generated_at"`
}

func countTypes(types []string) []TypeCount {
	counts := map[string]int{}
	for _, t := range types {
		counts[t]++
	}
	out := make([]TypeCount, 0, len(counts))
	for t, c := range counts {
		out = append(out, TypeCount{Type: t, Count: c})
	}
	slices.SortFunc(out, func(a, b TypeCount) int {
		return cmp.Compare(a.Type, b.Type)
	})
	return out
}

// Summarize computes the summary of g at time now. Type counts are sorted
// by type; TopNodes holds at most ten nodes by descending degree, ties
// broken by id.
func Summarize(g common.Graph, now time.Time) Summary {
	nodeTypes := make([]string, 0, len(g.Nodes))
	for _, n := range g.Nodes {
		nodeTypes = append(nodeTypes, n.Type)
	}
	edgeTypes := make([]string, 0, len(g.Edges))
	degree := map[string]int{}
	for _, e := range g.Edges {
		edgeTypes = append(edgeTypes, e.Type)
		degree[e.Source]++
		degree[e.Target]++
	}

	top := make([]NodeDegree, 0, len(g.Nodes))
	seen := map[string]struct{}{}
	for _, n := range g.Nodes {
		if _, dup := seen[n.ID]; dup {
			continue
		}
		seen[n.ID] = struct{}{}
		top = append(top, NodeDegree{ID: n.ID, Type: n.Type, Degree: degree[n.ID]})
	}
	slices.SortFunc(top, func(a, b NodeDegree) int {
		if c := cmp.Compare(b.Degree, a.Degree); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	if len(top) > topDegreeLimit {
		top = top[:topDegreeLimit]
	}

	return Summary{
		Nodes:             len(g.Nodes),
		Edges:             len(g.Edges),
		NodeTypes:         countTypes(nodeTypes),
		RelationshipTypes: countTypes(edgeTypes),
		TopNodes:          top,
		GeneratedAt:       now.UTC(),
	}
}

// WriteSummary writes s as indented JSON.
func WriteSummary(w io.Writer, s Summary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}
