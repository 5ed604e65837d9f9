package util

import (
	"path"
	"path/filepath"
	"regexp"

	"github.com/OFFIS-RIT/textgraph/internal/server/middleware"
	"github.com/OFFIS-RIT/textgraph/pkg/export"
)

var (
	runIDPattern    = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
	fileNamePattern = regexp.MustCompile(`^[A-Za-z0-9_-][A-Za-z0-9_.-]*$`)
)

// ValidRunID reports whether id can name a run directory.
func ValidRunID(id string) bool {
	return runIDPattern.MatchString(id)
}

// ValidFileName reports whether name can name an artifact inside a run
// directory. Hidden files, such as in-progress writes, are rejected.
func ValidFileName(name string) bool {
	return fileNamePattern.MatchString(name)
}

// RunDir is the directory the artifacts of runID are written to.
func RunDir(app *middleware.App, runID string) string {
	return filepath.Join(app.OutputDir, runID)
}

// NewRunExporter returns an exporter writing into the run's directory and,
// with an uploader configured, uploading below <prefix>/<runID>.
func NewRunExporter(app *middleware.App, runID string, baseName string) *export.Exporter {
	if baseName == "" {
		baseName = app.BaseName
	}
	return export.NewExporter(export.Params{
		OutputDir:    RunDir(app, runID),
		BaseName:     baseName,
		Uploader:     app.Uploader,
		UploadPrefix: path.Join(app.UploadPrefix, runID),
	})
}
