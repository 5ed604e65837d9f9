package common

// Graph is the deduplicated, validated union of all fragments of one run.
// It serves as the single structure handed to every exporter.
//
// A graph contains:
//   - Nodes: entities identified by a stable string id
//   - Edges: directed relationships whose endpoints are both in Nodes
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Node represents an entity in the graph. The ID is its identity; Type is
// the label assigned by the extractor (PERSON, ORGANIZATION, ...).
type Node struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

// Edge represents a directed relationship from Source to Target.
// Source and Target reference node ids.
type Edge struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Type   string `json:"type"`
}

// Fragment is the raw output of one extraction call, before validation.
// Edges of a fragment may reference nodes that only appear in other
// fragments, or in none.
type Fragment struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Chunk is a contiguous span of the input text sized to fit the token
// budget of one extraction call.
//
// Index is the 1-based position of the chunk and Total the number of chunks
// produced for the same input. HeaderPath holds the headings the chunk was
// found under, keyed by "Header 1", "Header 2", ...
type Chunk struct {
	Index      int               `json:"index"`
	Total      int               `json:"total"`
	Text       string            `json:"text"`
	Tokens     int               `json:"tokens"`
	HeaderPath map[string]string `json:"header_path,omitempty"`
}

// NodeSet returns the set of node ids in the graph.
func (g Graph) NodeSet() map[string]struct{} {
	set := make(map[string]struct{}, len(g.Nodes))
	for _, n := range g.Nodes {
		set[n.ID] = struct{}{}
	}
	return set
}

// Empty reports whether the fragment carries neither nodes nor edges.
func (f Fragment) Empty() bool {
	return len(f.Nodes) == 0 && len(f.Edges) == 0
}
