package graph

import (
	"github.com/OFFIS-RIT/textgraph/pkg/common"
)

// MergeResult is the outcome of merging the fragments of one run.
type MergeResult struct {
	Graph        common.Graph
	DroppedEdges int
	DroppedNodes int
}

// Merge unions fragments into one graph.
//
// Nodes are deduplicated by id. A later node overwrites the type of an
// earlier one with the same id but keeps its first-seen position. Edges are
// kept only when both endpoints exist in the merged node set; the others
// are counted in DroppedEdges. Nodes with an empty id are counted in
// DroppedNodes and never become endpoints.
func Merge(fragments []common.Fragment) MergeResult {
	var res MergeResult

	index := make(map[string]int)
	nodes := make([]common.Node, 0)
	for _, f := range fragments {
		for _, n := range f.Nodes {
			if n.ID == "" {
				res.DroppedNodes++
				continue
			}
			if pos, ok := index[n.ID]; ok {
				nodes[pos] = n
				continue
			}
			index[n.ID] = len(nodes)
			nodes = append(nodes, n)
		}
	}

	edges := make([]common.Edge, 0)
	for _, f := range fragments {
		for _, e := range f.Edges {
			_, okSource := index[e.Source]
			_, okTarget := index[e.Target]
			if !okSource || !okTarget {
				res.DroppedEdges++
				continue
			}
			edges = append(edges, e)
		}
	}

	res.Graph = common.Graph{Nodes: nodes, Edges: edges}
	return res
}
