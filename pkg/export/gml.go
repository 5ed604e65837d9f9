package export

import (
	"bufio"
	"errors"
	"fmt"
	"html"
	"io"
	"strconv"
	"strings"
	"unicode"

	"github.com/OFFIS-RIT/textgraph/pkg/common"
)

// gmlEscape quotes s for a GML string. '&' and '"' and every rune outside
// printable ASCII become numeric character references.
func gmlEscape(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for _, r := range s {
		switch {
		case r == '&':
			b.WriteString("&amp;")
		case r == '"':
			b.WriteString("&quot;")
		case r < 0x20 || r > 0x7e:
			fmt.Fprintf(&b, "&#%d;", r)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

// WriteGML writes g in Graph Modelling Language. Nodes get integer ids in
// graph order and carry the original id as label.
func WriteGML(w io.Writer, g common.Graph) error {
	bw := bufio.NewWriter(w)

	ids := make(map[string]int, len(g.Nodes))
	bw.WriteString("graph [\n  directed 1\n")
	for _, n := range g.Nodes {
		if _, dup := ids[n.ID]; dup {
			return fmt.Errorf("duplicate node id %q", n.ID)
		}
		id := len(ids)
		ids[n.ID] = id
		fmt.Fprintf(bw, "  node [\n    id %d\n    label %s\n    type %s\n  ]\n",
			id, gmlEscape(n.ID), gmlEscape(n.Type))
	}
	for _, e := range g.Edges {
		source, ok := ids[e.Source]
		if !ok {
			return fmt.Errorf("edge source %q is not a node", e.Source)
		}
		target, ok := ids[e.Target]
		if !ok {
			return fmt.Errorf("edge target %q is not a node", e.Target)
		}
		fmt.Fprintf(bw, "  edge [\n    source %d\n    target %d\n    label %s\n    type %s\n  ]\n",
			source, target, gmlEscape(e.Type), gmlEscape(e.Type))
	}
	bw.WriteString("]\n")

	return bw.Flush()
}

type gmlTokenKind int

const (
	gmlKey gmlTokenKind = iota
	gmlString
	gmlNumber
	gmlOpen
	gmlClose
)

type gmlToken struct {
	kind  gmlTokenKind
	value string
}

type gmlLexer struct {
	r *bufio.Reader
}

func (l *gmlLexer) next() (gmlToken, error) {
	for {
		c, _, err := l.r.ReadRune()
		if err != nil {
			return gmlToken{}, err
		}
		switch {
		case unicode.IsSpace(c):
			continue
		case c == '#':
			if _, err := l.r.ReadString('\n'); err != nil && !errors.Is(err, io.EOF) {
				return gmlToken{}, err
			}
			continue
		case c == '[':
			return gmlToken{kind: gmlOpen}, nil
		case c == ']':
			return gmlToken{kind: gmlClose}, nil
		case c == '"':
			s, err := l.r.ReadString('"')
			if err != nil {
				return gmlToken{}, fmt.Errorf("unterminated string: %w", err)
			}
			return gmlToken{kind: gmlString, value: html.UnescapeString(s[:len(s)-1])}, nil
		default:
			var b strings.Builder
			b.WriteRune(c)
			for {
				c, _, err := l.r.ReadRune()
				if err != nil {
					break
				}
				if unicode.IsSpace(c) || c == '[' || c == ']' || c == '"' {
					_ = l.r.UnreadRune()
					break
				}
				b.WriteRune(c)
			}
			v := b.String()
			if _, err := strconv.ParseFloat(v, 64); err == nil {
				return gmlToken{kind: gmlNumber, value: v}, nil
			}
			return gmlToken{kind: gmlKey, value: v}, nil
		}
	}
}

// gmlList is a parsed "[ key value ... ]" block.
type gmlList []gmlPair

type gmlPair struct {
	key   string
	value string
	list  gmlList
}

func (l gmlList) get(key string) (string, bool) {
	for _, p := range l {
		if p.key == key && p.list == nil {
			return p.value, true
		}
	}
	return "", false
}

func parseGMLList(lex *gmlLexer, nested bool) (gmlList, error) {
	var out gmlList
	for {
		tok, err := lex.next()
		if errors.Is(err, io.EOF) {
			if nested {
				return nil, errors.New("unexpected end of input")
			}
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		if tok.kind == gmlClose {
			if !nested {
				return nil, errors.New("unexpected ']'")
			}
			return out, nil
		}
		if tok.kind != gmlKey {
			return nil, fmt.Errorf("expected key, got %q", tok.value)
		}

		val, err := lex.next()
		if err != nil {
			return nil, fmt.Errorf("missing value for %q: %w", tok.value, err)
		}
		switch val.kind {
		case gmlOpen:
			list, err := parseGMLList(lex, true)
			if err != nil {
				return nil, err
			}
			if list == nil {
				list = gmlList{}
			}
			out = append(out, gmlPair{key: tok.value, list: list})
		case gmlString, gmlNumber, gmlKey:
			out = append(out, gmlPair{key: tok.value, value: val.value})
		default:
			return nil, fmt.Errorf("unexpected ']' after %q", tok.value)
		}
	}
}

// ReadGML parses a GML document with a single graph. Edge endpoints are
// resolved through node ids to node labels; a node without label keeps its
// id. Edges without a type fall back to their label.
func ReadGML(r io.Reader) (common.Graph, error) {
	top, err := parseGMLList(&gmlLexer{r: bufio.NewReader(r)}, false)
	if err != nil {
		return common.Graph{}, fmt.Errorf("invalid gml: %w", err)
	}

	var body gmlList
	for _, p := range top {
		if p.key == "graph" && p.list != nil {
			body = p.list
			break
		}
	}
	if body == nil {
		return common.Graph{}, errors.New("invalid gml: no graph block")
	}

	g := common.Graph{Nodes: []common.Node{}, Edges: []common.Edge{}}
	labels := map[string]string{}
	for _, p := range body {
		if p.key != "node" || p.list == nil {
			continue
		}
		id, ok := p.list.get("id")
		if !ok {
			return common.Graph{}, errors.New("invalid gml: node without id")
		}
		label, ok := p.list.get("label")
		if !ok {
			label = id
		}
		t, _ := p.list.get("type")
		labels[id] = label
		g.Nodes = append(g.Nodes, common.Node{ID: label, Type: t})
	}

	for _, p := range body {
		if p.key != "edge" || p.list == nil {
			continue
		}
		source, _ := p.list.get("source")
		target, _ := p.list.get("target")
		s, ok := labels[source]
		if !ok {
			return common.Graph{}, fmt.Errorf("invalid gml: edge source %q is not a node", source)
		}
		t, ok := labels[target]
		if !ok {
			return common.Graph{}, fmt.Errorf("invalid gml: edge target %q is not a node", target)
		}
		typ, ok := p.list.get("type")
		if !ok {
			typ, _ = p.list.get("label")
		}
		g.Edges = append(g.Edges, common.Edge{Source: s, Target: t, Type: typ})
	}

	return g, nil
}
