// Package export writes a knowledge graph to interchange formats and an
// interactive HTML rendering.
//
// Every target is written independently: a failing target is recorded in
// Result.Failures and never prevents the others from being written.
package export

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/OFFIS-RIT/textgraph/internal/util"
	"github.com/OFFIS-RIT/textgraph/pkg/common"
	"github.com/OFFIS-RIT/textgraph/pkg/logger"
)

// Target names an export format.
type Target string

const (
	TargetHTML    Target = "html"
	TargetJSON    Target = "json"
	TargetGraphML Target = "graphml"
	TargetGML     Target = "gml"
	TargetCSV     Target = "csv"
	TargetSummary Target = "summary"
)

// DefaultBaseName is the file name, without extension, of exported files.
const DefaultBaseName = "knowledge_graph"

const uploadAttempts = 3

// DefaultTargets are written when no targets are configured.
var DefaultTargets = []Target{TargetHTML, TargetJSON, TargetGraphML, TargetGML}

// AllTargets lists every supported target.
var AllTargets = []Target{TargetHTML, TargetJSON, TargetGraphML, TargetGML, TargetCSV, TargetSummary}

var targetAliases = map[string]Target{
	"visual":        TargetHTML,
	"visual-render": TargetHTML,
	"xml":           TargetGraphML,
}

// ParseTargets parses target names. Values may themselves be comma
// separated; duplicates are removed and order is kept. "all" selects every
// target.
func ParseTargets(values []string) ([]Target, error) {
	var out []Target
	add := func(t Target) {
		if !slices.Contains(out, t) {
			out = append(out, t)
		}
	}

	for _, v := range values {
		for part := range strings.SplitSeq(v, ",") {
			name := strings.ToLower(strings.TrimSpace(part))
			if name == "" {
				continue
			}
			if name == "all" {
				for _, t := range AllTargets {
					add(t)
				}
				continue
			}
			if alias, ok := targetAliases[name]; ok {
				add(alias)
				continue
			}
			if !slices.Contains(AllTargets, Target(name)) {
				return nil, fmt.Errorf("unknown export target %q", part)
			}
			add(Target(name))
		}
	}

	return out, nil
}

// Uploader stores a written artifact remotely and returns its location.
type Uploader interface {
	Upload(ctx context.Context, key string, path string, contentType string) (string, error)
}

// Params configures an Exporter.
//
// OutputDir defaults to the working directory and BaseName to
// DefaultBaseName. When Uploader is set every written file is also
// uploaded under UploadPrefix and the upload location is reported instead
// of the local path.
type Params struct {
	OutputDir    string
	BaseName     string
	Uploader     Uploader
	UploadPrefix string
	Now          func() time.Time
}

// Exporter writes graphs to files.
type Exporter struct {
	outputDir    string
	baseName     string
	uploader     Uploader
	uploadPrefix string
	now          func() time.Time
}

// NewExporter returns an Exporter for params.
func NewExporter(params Params) *Exporter {
	dir := params.OutputDir
	if dir == "" {
		dir = "."
	}
	base := params.BaseName
	if base == "" {
		base = DefaultBaseName
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}

	return &Exporter{
		outputDir:    dir,
		baseName:     base,
		uploader:     params.Uploader,
		uploadPrefix: strings.Trim(params.UploadPrefix, "/"),
		now:          now,
	}
}

// Result maps each target to the locations it produced. A target is in
// exactly one of Outputs or Failures.
type Result struct {
	Outputs  map[Target][]string `json:"outputs"`
	Failures map[Target]string   `json:"failures,omitempty"`
	Render   *RenderReport       `json:"render,omitempty"`
}

// OK reports whether every target succeeded.
func (r Result) OK() bool {
	return len(r.Failures) == 0
}

type artifact struct {
	name        string
	contentType string
	write       func(io.Writer) error
}

// Export writes g to every target. It never fails as a whole; see Result.
func (e *Exporter) Export(ctx context.Context, g common.Graph, targets []Target) Result {
	if len(targets) == 0 {
		targets = DefaultTargets
	}

	res := Result{
		Outputs:  map[Target][]string{},
		Failures: map[Target]string{},
	}

	if err := os.MkdirAll(e.outputDir, 0o755); err != nil {
		for _, t := range targets {
			res.Failures[t] = fmt.Sprintf("failed to create output directory: %v", err)
		}
		logger.Error("[Export] Output directory unavailable", "dir", e.outputDir, "err", err)
		return res
	}

	for _, t := range targets {
		if _, done := res.Outputs[t]; done {
			continue
		}

		locations, err := e.exportTarget(ctx, g, t, &res)
		if err != nil {
			res.Failures[t] = err.Error()
			logger.Error("[Export] Target failed", "target", t, "err", err)
			continue
		}
		res.Outputs[t] = locations
		logger.Info("[Export] Target written", "target", t, "files", locations)
	}

	return res
}

func (e *Exporter) artifacts(g common.Graph, t Target, res *Result) ([]artifact, error) {
	base := e.baseName
	switch t {
	case TargetJSON:
		return []artifact{{base + ".json", "application/json", func(w io.Writer) error {
			return WriteJSON(w, g)
		}}}, nil
	case TargetGraphML:
		return []artifact{{base + ".graphml", "application/xml", func(w io.Writer) error {
			return WriteGraphML(w, g)
		}}}, nil
	case TargetGML:
		return []artifact{{base + ".gml", "text/plain; charset=utf-8", func(w io.Writer) error {
			return WriteGML(w, g)
		}}}, nil
	case TargetHTML:
		return []artifact{{base + ".html", "text/html; charset=utf-8", func(w io.Writer) error {
			report, err := RenderHTML(w, g)
			res.Render = &report
			return err
		}}}, nil
	case TargetCSV:
		return []artifact{
			{base + "_nodes.csv", "text/csv", func(w io.Writer) error { return WriteNodesCSV(w, g) }},
			{base + "_edges.csv", "text/csv", func(w io.Writer) error { return WriteEdgesCSV(w, g) }},
		}, nil
	case TargetSummary:
		return []artifact{{base + "_summary.json", "application/json", func(w io.Writer) error {
			return WriteSummary(w, Summarize(g, e.now()))
		}}}, nil
	}
	return nil, fmt.Errorf("unknown export target %q", t)
}

func (e *Exporter) exportTarget(ctx context.Context, g common.Graph, t Target, res *Result) (locations []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			locations = nil
			err = fmt.Errorf("export %s panicked: %v", t, r)
		}
	}()

	files, err := e.artifacts(g, t, res)
	if err != nil {
		return nil, err
	}

	for _, a := range files {
		path := filepath.Join(e.outputDir, a.name)
		if err := writeFile(path, a.write); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", a.name, err)
		}

		location := path
		if e.uploader != nil {
			location, err = e.upload(ctx, a, path)
			if err != nil {
				return nil, err
			}
		}
		locations = append(locations, location)
	}

	return locations, nil
}

func (e *Exporter) upload(ctx context.Context, a artifact, path string) (string, error) {
	key := a.name
	if e.uploadPrefix != "" {
		key = e.uploadPrefix + "/" + a.name
	}

	location, err := util.RetryWithBackoff(
		ctx,
		uploadAttempts,
		util.ExponentialBackoff(200*time.Millisecond, 2*time.Second),
		func(ctx context.Context) (string, error) {
			return e.uploader.Upload(ctx, key, path, a.contentType)
		},
	)
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", a.name, err)
	}
	return location, nil
}

// writeFile writes through a temporary file so a failed or panicking
// writer never leaves a partial artifact behind.
func writeFile(path string, write func(io.Writer) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}

	committed := false
	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if err := write(tmp); err != nil {
		return err
	}
	if err := tmp.Chmod(0o644); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return err
	}
	committed = true
	return nil
}
