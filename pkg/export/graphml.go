package export

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"

	"github.com/OFFIS-RIT/textgraph/pkg/common"
)

const graphMLNamespace = "http://graphml.graphdrawing.org/xmlns"

type graphMLDoc struct {
	XMLName xml.Name     `xml:"graphml"`
	XMLNS   string       `xml:"xmlns,attr,omitempty"`
	Keys    []graphMLKey `xml:"key"`
	Graph   graphMLGraph `xml:"graph"`
}

type graphMLKey struct {
	ID       string `xml:"id,attr"`
	For      string `xml:"for,attr"`
	AttrName string `xml:"attr.name,attr"`
	AttrType string `xml:"attr.type,attr"`
}

type graphMLGraph struct {
	ID          string        `xml:"id,attr,omitempty"`
	EdgeDefault string        `xml:"edgedefault,attr"`
	Nodes       []graphMLNode `xml:"node"`
	Edges       []graphMLEdge `xml:"edge"`
}

type graphMLNode struct {
	ID   string        `xml:"id,attr"`
	Data []graphMLData `xml:"data"`
}

type graphMLEdge struct {
	ID     string        `xml:"id,attr,omitempty"`
	Source string        `xml:"source,attr"`
	Target string        `xml:"target,attr"`
	Data   []graphMLData `xml:"data"`
}

type graphMLData struct {
	Key   string `xml:"key,attr"`
	Value string `xml:",chardata"`
}

var graphMLKeys = []graphMLKey{
	{ID: "d0", For: "node", AttrName: "type", AttrType: "string"},
	{ID: "d1", For: "node", AttrName: "label", AttrType: "string"},
	{ID: "d2", For: "edge", AttrName: "type", AttrType: "string"},
	{ID: "d3", For: "edge", AttrName: "label", AttrType: "string"},
}

// WriteGraphML writes g as a directed GraphML document. Nodes carry their
// type and a label equal to the id; edges carry their type as type and label.
func WriteGraphML(w io.Writer, g common.Graph) error {
	doc := graphMLDoc{
		XMLNS: graphMLNamespace,
		Keys:  graphMLKeys,
		Graph: graphMLGraph{
			ID:          "G",
			EdgeDefault: "directed",
			Nodes:       make([]graphMLNode, 0, len(g.Nodes)),
			Edges:       make([]graphMLEdge, 0, len(g.Edges)),
		},
	}

	for _, n := range g.Nodes {
		doc.Graph.Nodes = append(doc.Graph.Nodes, graphMLNode{
			ID: n.ID,
			Data: []graphMLData{
				{Key: "d0", Value: n.Type},
				{Key: "d1", Value: n.ID},
			},
		})
	}
	for i, e := range g.Edges {
		doc.Graph.Edges = append(doc.Graph.Edges, graphMLEdge{
			ID:     "e" + strconv.Itoa(i),
			Source: e.Source,
			Target: e.Target,
			Data: []graphMLData{
				{Key: "d2", Value: e.Type},
				{Key: "d3", Value: e.Type},
			},
		})
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// ReadGraphML parses a GraphML document. Attributes are resolved through
// their key declarations, so files from other tools that name the node and
// edge attributes "type" are read too. Edges without a type fall back to
// their "label" attribute.
func ReadGraphML(r io.Reader) (common.Graph, error) {
	var doc graphMLDoc
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return common.Graph{}, fmt.Errorf("invalid graphml: %w", err)
	}

	names := make(map[string]string, len(doc.Keys))
	for _, k := range doc.Keys {
		names[k.ID] = k.AttrName
	}
	attrs := func(data []graphMLData) map[string]string {
		out := make(map[string]string, len(data))
		for _, d := range data {
			name := names[d.Key]
			if name == "" {
				name = d.Key
			}
			out[name] = d.Value
		}
		return out
	}

	g := common.Graph{
		Nodes: make([]common.Node, 0, len(doc.Graph.Nodes)),
		Edges: make([]common.Edge, 0, len(doc.Graph.Edges)),
	}
	for _, n := range doc.Graph.Nodes {
		a := attrs(n.Data)
		g.Nodes = append(g.Nodes, common.Node{ID: n.ID, Type: a["type"]})
	}
	for _, e := range doc.Graph.Edges {
		a := attrs(e.Data)
		t := a["type"]
		if t == "" {
			t = a["label"]
		}
		g.Edges = append(g.Edges, common.Edge{Source: e.Source, Target: e.Target, Type: t})
	}

	return g, nil
}
