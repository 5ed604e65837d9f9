package queue

import "github.com/OFFIS-RIT/textgraph/pkg/export"

// GraphJobMsg asks for a graph of Source, a path, URL or s3:// URI.
// RunID is generated when empty; empty Targets select the configured
// defaults.
type GraphJobMsg struct {
	RunID    string   `json:"run_id,omitempty"`
	Source   string   `json:"source"`
	BaseName string   `json:"base_name,omitempty"`
	Targets  []string `json:"targets,omitempty"`
}

// GraphResultMsg reports a finished job. Error is set when the run failed;
// per-target export failures are in Failures.
type GraphResultMsg struct {
	RunID        string                     `json:"run_id"`
	Source       string                     `json:"source"`
	Nodes        int                        `json:"nodes"`
	Edges        int                        `json:"edges"`
	DroppedEdges int                        `json:"dropped_edges"`
	Outputs      map[export.Target][]string `json:"outputs,omitempty"`
	Failures     map[export.Target]string   `json:"failures,omitempty"`
	Error        string                     `json:"error,omitempty"`
}
