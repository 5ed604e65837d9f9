package export

import (
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"slices"
	"strings"

	"github.com/OFFIS-RIT/textgraph/pkg/common"
	"github.com/OFFIS-RIT/textgraph/pkg/logger"
)

const (
	visNetworkJS  = "https://cdnjs.cloudflare.com/ajax/libs/vis-network/9.1.2/dist/vis-network.min.js"
	visNetworkCSS = "https://cdnjs.cloudflare.com/ajax/libs/vis-network/9.1.2/dist/dist/vis-network.min.css"
)

// Physics is the layout configuration of the rendered network.
var Physics = map[string]any{
	"solver": "forceAtlas2Based",
	"forceAtlas2Based": map[string]any{
		"gravitationalConstant": -100,
		"centralGravity":        0.01,
		"springLength":          200,
		"springConstant":        0.08,
	},
	"minVelocity": 0.75,
}

// SkippedElement is a node or edge left out of the rendering.
type SkippedElement struct {
	Kind   string `json:"kind"`
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

// RenderReport counts what RenderHTML drew and what it skipped.
type RenderReport struct {
	Nodes   int              `json:"nodes"`
	Edges   int              `json:"edges"`
	Skipped []SkippedElement `json:"skipped,omitempty"`
}

type visNode struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Title string `json:"title"`
	Group string `json:"group"`
}

type visEdge struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Label string `json:"label"`
}

type htmlPage struct {
	ScriptURL string
	StyleURL  string
	Groups    []string
	Nodes     template.JS
	Edges     template.JS
	Options   template.JS
	NodeCount int
	EdgeCount int
}

var pageTemplate = template.Must(template.New("graph").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Knowledge Graph</title>
<script src="{{.ScriptURL}}"></script>
<link rel="stylesheet" href="{{.StyleURL}}">
<style>
  body { margin: 0; background-color: #222222; color: white; font-family: sans-serif; }
  #filter { padding: 8px; }
  #mynetwork { width: 100%; height: 1200px; background-color: #222222; }
</style>
</head>
<body>
<div id="filter">
  <label for="type-filter">Type</label>
  <select id="type-filter">
    <option value="">All ({{.NodeCount}} nodes, {{.EdgeCount}} edges)</option>
    {{- range .Groups}}
    <option value="{{.}}">{{.}}</option>
    {{- end}}
  </select>
</div>
<div id="mynetwork"></div>
<script type="text/javascript">
  var nodes = new vis.DataSet({{.Nodes}});
  var edges = new vis.DataSet({{.Edges}});
  var selected = "";
  var nodeView = new vis.DataView(nodes, {
    filter: function (n) { return selected === "" || n.group === selected; }
  });
  var container = document.getElementById("mynetwork");
  var options = {{.Options}};
  var network = new vis.Network(container, { nodes: nodeView, edges: edges }, options);
  document.getElementById("type-filter").addEventListener("change", function (ev) {
    selected = ev.target.value;
    nodeView.refresh();
  });
</script>
</body>
</html>
`))

// RenderHTML writes a self-contained interactive page for g. Nodes with an
// empty or repeated id and edges with a missing endpoint are skipped and
// listed in the report; the rest of the graph is still drawn.
func RenderHTML(w io.Writer, g common.Graph) (RenderReport, error) {
	var report RenderReport
	skip := func(kind, id, reason string) {
		report.Skipped = append(report.Skipped, SkippedElement{Kind: kind, ID: id, Reason: reason})
		logger.Debug("[Export] Skipping element", "kind", kind, "id", id, "reason", reason)
	}

	nodes := make([]visNode, 0, len(g.Nodes))
	seen := make(map[string]struct{}, len(g.Nodes))
	var groups []string
	for _, n := range g.Nodes {
		if n.ID == "" {
			skip("node", n.ID, "empty id")
			continue
		}
		if _, dup := seen[n.ID]; dup {
			skip("node", n.ID, "duplicate id")
			continue
		}
		seen[n.ID] = struct{}{}
		nodes = append(nodes, visNode{ID: n.ID, Label: n.ID, Title: n.Type, Group: n.Type})
		if n.Type != "" && !slices.Contains(groups, n.Type) {
			groups = append(groups, n.Type)
		}
	}
	slices.Sort(groups)

	edges := make([]visEdge, 0, len(g.Edges))
	for i, e := range g.Edges {
		id := fmt.Sprintf("%s->%s", e.Source, e.Target)
		if e.Source == "" || e.Target == "" {
			skip("edge", id, "empty endpoint")
			continue
		}
		if _, ok := seen[e.Source]; !ok {
			skip("edge", id, fmt.Sprintf("edge %d: unknown source %q", i, e.Source))
			continue
		}
		if _, ok := seen[e.Target]; !ok {
			skip("edge", id, fmt.Sprintf("edge %d: unknown target %q", i, e.Target))
			continue
		}
		edges = append(edges, visEdge{From: e.Source, To: e.Target, Label: strings.ToLower(e.Type)})
	}

	report.Nodes = len(nodes)
	report.Edges = len(edges)

	nodesJSON, err := json.Marshal(nodes)
	if err != nil {
		return report, err
	}
	edgesJSON, err := json.Marshal(edges)
	if err != nil {
		return report, err
	}
	optionsJSON, err := json.Marshal(renderOptions())
	if err != nil {
		return report, err
	}

	page := htmlPage{
		ScriptURL: visNetworkJS,
		StyleURL:  visNetworkCSS,
		Groups:    groups,
		Nodes:     template.JS(nodesJSON),
		Edges:     template.JS(edgesJSON),
		Options:   template.JS(optionsJSON),
		NodeCount: report.Nodes,
		EdgeCount: report.Edges,
	}
	if err := pageTemplate.Execute(w, page); err != nil {
		return report, fmt.Errorf("failed to render html: %w", err)
	}

	return report, nil
}

func renderOptions() map[string]any {
	return map[string]any{
		"nodes": map[string]any{
			"font": map[string]any{"color": "white"},
		},
		"edges": map[string]any{
			"arrows": map[string]any{"to": map[string]any{"enabled": true}},
			"font":   map[string]any{"color": "white", "strokeWidth": 0},
		},
		"physics": Physics,
	}
}
