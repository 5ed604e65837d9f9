package export

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/OFFIS-RIT/textgraph/pkg/common"
)

var formatExtensions = map[string]Target{
	".json":    TargetJSON,
	".graphml": TargetGraphML,
	".xml":     TargetGraphML,
	".gml":     TargetGML,
}

// DetectFormat picks the format of an exported graph file from its
// extension, falling back to the first bytes of its content.
func DetectFormat(path string, head []byte) (Target, error) {
	if t, ok := formatExtensions[strings.ToLower(filepath.Ext(path))]; ok {
		return t, nil
	}

	trimmed := bytes.TrimSpace(head)
	switch {
	case bytes.HasPrefix(trimmed, []byte("{")):
		return TargetJSON, nil
	case bytes.HasPrefix(trimmed, []byte("<")):
		return TargetGraphML, nil
	case bytes.HasPrefix(trimmed, []byte("graph")), bytes.HasPrefix(trimmed, []byte("Creator")):
		return TargetGML, nil
	}
	return "", fmt.Errorf("cannot detect graph format of %q", path)
}

// Parse reads a graph in the given format.
func Parse(r io.Reader, format Target) (common.Graph, error) {
	switch format {
	case TargetJSON:
		return ReadJSON(r)
	case TargetGraphML:
		return ReadGraphML(r)
	case TargetGML:
		return ReadGML(r)
	}
	return common.Graph{}, fmt.Errorf("format %q cannot be loaded", format)
}

// Load reads a graph previously written as json, graphml or gml.
func Load(path string) (common.Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return common.Graph{}, err
	}
	defer f.Close()

	br := bufio.NewReader(f)
	head, _ := br.Peek(512)
	format, err := DetectFormat(path, head)
	if err != nil {
		return common.Graph{}, err
	}

	g, err := Parse(br, format)
	if err != nil {
		return common.Graph{}, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return g, nil
}

// LoadJSON reads a graph written by the json target.
func LoadJSON(path string) (common.Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return common.Graph{}, err
	}
	defer f.Close()
	return ReadJSON(f)
}
