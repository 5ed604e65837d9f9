package routes

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"

	"github.com/OFFIS-RIT/textgraph/internal/server/middleware"
	"github.com/OFFIS-RIT/textgraph/internal/server/util"

	"github.com/labstack/echo/v4"
)

// GetGraphFileHandler serves one artifact of a finished run.
func GetGraphFileHandler(c echo.Context) error {
	runID := c.Param("run")
	name := c.Param("file")
	if !util.ValidRunID(runID) || !util.ValidFileName(name) {
		return c.JSON(http.StatusBadRequest, errorResponse{Message: "Invalid file"})
	}

	app := c.(*middleware.AppContext).App
	path := filepath.Join(util.RunDir(app, runID), name)
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) || (err == nil && info.IsDir()) {
		return c.JSON(http.StatusNotFound, errorResponse{Message: "File not found"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, errorResponse{Message: "Internal server error"})
	}

	return c.File(path)
}

// ListGraphFilesHandler lists the artifacts of a run.
func ListGraphFilesHandler(c echo.Context) error {
	runID := c.Param("run")
	if !util.ValidRunID(runID) {
		return c.JSON(http.StatusBadRequest, errorResponse{Message: "Invalid run"})
	}

	app := c.(*middleware.AppContext).App
	entries, err := os.ReadDir(util.RunDir(app, runID))
	if errors.Is(err, os.ErrNotExist) {
		return c.JSON(http.StatusNotFound, errorResponse{Message: "Run not found"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, errorResponse{Message: "Internal server error"})
	}

	files := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && util.ValidFileName(e.Name()) {
			files = append(files, e.Name())
		}
	}
	return c.JSON(http.StatusOK, map[string]any{"run_id": runID, "files": files})
}
