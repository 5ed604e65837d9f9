package routes

import (
	"net/http"

	"github.com/OFFIS-RIT/textgraph/internal/server/middleware"
	serverutil "github.com/OFFIS-RIT/textgraph/internal/server/util"
	"github.com/OFFIS-RIT/textgraph/internal/util"
	"github.com/OFFIS-RIT/textgraph/pkg/export"
	"github.com/OFFIS-RIT/textgraph/pkg/graph"
	"github.com/OFFIS-RIT/textgraph/pkg/logger"

	"github.com/labstack/echo/v4"
)

type createGraphBody struct {
	Text     string   `json:"text" validate:"required"`
	BaseName string   `json:"base_name" validate:"omitempty,max=128,excludesall=/\\"`
	Targets  []string `json:"targets"`
}

type createGraphResponse struct {
	RunID        string                     `json:"run_id"`
	Chunks       int                        `json:"chunks"`
	Nodes        int                        `json:"nodes"`
	Edges        int                        `json:"edges"`
	DroppedEdges int                        `json:"dropped_edges"`
	Outputs      map[export.Target][]string `json:"outputs"`
	Failures     map[export.Target]string   `json:"failures,omitempty"`
	DurationMs   int64                      `json:"duration_ms"`
}

type progressEvent struct {
	graph.ProgressEvent
	Percent int32 `json:"percent"`
}

type errorResponse struct {
	Message string `json:"message"`
}

func newCreateGraphResponse(res *graph.Result) createGraphResponse {
	out := createGraphResponse{
		RunID:        res.RunID,
		Chunks:       res.Chunks,
		Nodes:        len(res.Graph.Nodes),
		Edges:        len(res.Graph.Edges),
		DroppedEdges: res.DroppedEdges,
		DurationMs:   res.Duration.Milliseconds(),
	}
	if res.Export != nil {
		out.Outputs = res.Export.Outputs
		out.Failures = res.Export.Failures
	}
	return out
}

// bindGraphRequest decodes and validates the body. A non-empty message
// describes why the request is invalid.
func bindGraphRequest(c echo.Context) (*createGraphBody, []export.Target, string) {
	data := new(createGraphBody)
	if err := c.Bind(data); err != nil {
		return nil, nil, "Invalid request body"
	}
	if err := c.Validate(data); err != nil {
		return nil, nil, "Invalid request body"
	}

	targets := c.(*middleware.AppContext).App.Targets
	if len(data.Targets) > 0 {
		parsed, err := export.ParseTargets(data.Targets)
		if err != nil {
			return nil, nil, err.Error()
		}
		targets = parsed
	}

	return data, targets, ""
}

func generate(
	c echo.Context,
	data *createGraphBody,
	targets []export.Target,
	observer graph.ProgressObserver,
) (*graph.Result, error) {
	app := c.(*middleware.AppContext).App

	runID, err := graph.NewRunID()
	if err != nil {
		return nil, err
	}

	if app.Metrics != nil {
		observer = graph.MultiObserver(app.Metrics.Observer(), observer)
	}

	res, err := app.Graph.Generate(c.Request().Context(), graph.GenerateRequest{
		RunID:    runID,
		Text:     data.Text,
		Targets:  targets,
		Exporter: serverutil.NewRunExporter(app, runID, data.BaseName),
		Observer: observer,
	})
	if app.Metrics != nil {
		app.Metrics.RecordRun(res, err)
	}
	if err != nil {
		logger.Error("[Server] Graph generation failed", "run_id", runID, "err", err)
	}
	return res, err
}

// CreateGraphHandler builds a knowledge graph from the posted text and
// responds once all targets are written.
func CreateGraphHandler(c echo.Context) error {
	data, targets, msg := bindGraphRequest(c)
	if msg != "" {
		return c.JSON(http.StatusBadRequest, errorResponse{Message: msg})
	}

	res, err := generate(c, data, targets, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, errorResponse{
			Message: "Error generating knowledge graph: " + err.Error(),
		})
	}

	return c.JSON(http.StatusOK, newCreateGraphResponse(res))
}

// CreateGraphStreamHandler builds a knowledge graph like
// CreateGraphHandler and streams progress as server-sent events. The
// stream ends with a "result" or an "error" event.
func CreateGraphStreamHandler(c echo.Context) error {
	data, targets, msg := bindGraphRequest(c)
	if msg != "" {
		return c.JSON(http.StatusBadRequest, errorResponse{Message: msg})
	}

	serverutil.StartSSE(c)

	observer := graph.ProgressFunc(func(ev graph.ProgressEvent) {
		payload := progressEvent{ProgressEvent: ev, Percent: util.ProgressPercentage(ev.Current, ev.Total)}
		if err := serverutil.WriteSSEEvent(c, "progress", payload); err != nil {
			logger.Warn("[Server] Failed to write progress event", "err", err)
		}
	})

	res, err := generate(c, data, targets, observer)
	if err != nil {
		return serverutil.WriteSSEEvent(c, "error", errorResponse{
			Message: "Error generating knowledge graph: " + err.Error(),
		})
	}

	return serverutil.WriteSSEEvent(c, "result", newCreateGraphResponse(res))
}
