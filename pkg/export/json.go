package export

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/OFFIS-RIT/textgraph/pkg/common"
)

type jsonGraph struct {
	Nodes []common.Node `json:"nodes"`
	Edges []common.Edge `json:"edges"`
}

// WriteJSON writes g as {"nodes": [...], "edges": [...]}, indented with two
// spaces. Empty collections are written as [] rather than null.
func WriteJSON(w io.Writer, g common.Graph) error {
	doc := jsonGraph{Nodes: g.Nodes, Edges: g.Edges}
	if doc.Nodes == nil {
		doc.Nodes = []common.Node{}
	}
	if doc.Edges == nil {
		doc.Edges = []common.Edge{}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(doc)
}

// ReadJSON parses a document written by WriteJSON.
func ReadJSON(r io.Reader) (common.Graph, error) {
	var doc jsonGraph
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return common.Graph{}, fmt.Errorf("invalid graph json: %w", err)
	}
	if doc.Nodes == nil {
		doc.Nodes = []common.Node{}
	}
	if doc.Edges == nil {
		doc.Edges = []common.Edge{}
	}
	return common.Graph{Nodes: doc.Nodes, Edges: doc.Edges}, nil
}
