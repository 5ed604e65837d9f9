package server

import (
	"github.com/OFFIS-RIT/textgraph/internal/metrics"
	"github.com/OFFIS-RIT/textgraph/internal/server/middleware"
	"github.com/OFFIS-RIT/textgraph/internal/server/routes"

	"github.com/labstack/echo/v4"
)

func RegisterRoutes(e *echo.Echo, m *metrics.Metrics) {
	// Health check route
	e.GET("/health", func(c echo.Context) error {
		return c.String(200, "OK")
	})

	if m != nil {
		e.GET("/metrics", echo.WrapHandler(m.Handler()))
	}

	apiRoutes := e.Group("/api", middleware.AuthMiddleware)

	// Graph routes
	apiRoutes.POST("/graphs", routes.CreateGraphHandler)
	apiRoutes.POST("/graphs/stream", routes.CreateGraphStreamHandler)
	apiRoutes.GET("/graphs/:run", routes.ListGraphFilesHandler)
	apiRoutes.GET("/graphs/:run/:file", routes.GetGraphFileHandler)
}
