package middleware

import (
	"context"

	"github.com/OFFIS-RIT/textgraph/internal/metrics"
	"github.com/OFFIS-RIT/textgraph/pkg/export"
	"github.com/OFFIS-RIT/textgraph/pkg/graph"

	"github.com/labstack/echo/v4"
)

// GraphGenerator runs the pipeline. *graph.GraphClient satisfies it.
type GraphGenerator interface {
	Generate(ctx context.Context, req graph.GenerateRequest) (*graph.Result, error)
}

// App holds what handlers share across requests. Metrics and Uploader
// are optional.
type App struct {
	Graph        GraphGenerator
	Metrics      *metrics.Metrics
	OutputDir    string
	BaseName     string
	Targets      []export.Target
	Uploader     export.Uploader
	UploadPrefix string
	APIKey       string
}

type AppContext struct {
	echo.Context
	App *App
}

func AppContextMiddleware(app *App) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cc := &AppContext{c, app}
			return next(cc)
		}
	}
}
