package export

import (
	"encoding/csv"
	"io"

	"github.com/OFFIS-RIT/textgraph/pkg/common"
)

// WriteNodesCSV writes one "id,type" row per node after a header row.
func WriteNodesCSV(w io.Writer, g common.Graph) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"id", "type"}); err != nil {
		return err
	}
	for _, n := range g.Nodes {
		if err := cw.Write([]string{n.ID, n.Type}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteEdgesCSV writes one "source,target,type" row per edge after a header
// row.
func WriteEdgesCSV(w io.Writer, g common.Graph) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"source", "target", "type"}); err != nil {
		return err
	}
	for _, e := range g.Edges {
		if err := cw.Write([]string{e.Source, e.Target, e.Type}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
