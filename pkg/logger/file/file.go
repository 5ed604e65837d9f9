package file

import (
	"github.com/charmbracelet/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// FileLogger implements LoggerInstance by writing JSON lines to a
// size-rotated log file.
type FileLogger struct {
	logger *log.Logger
	out    *lumberjack.Logger
}

// FileLoggerParams contains configuration for creating a FileLogger.
//
// MaxSizeMB, MaxBackups and MaxAgeDays control rotation; zero values fall
// back to 50 MB, 3 backups and 28 days.
type FileLoggerParams struct {
	Path       string
	Debug      bool
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// NewFileLogger creates a logger writing to params.Path.
func NewFileLogger(params FileLoggerParams) *FileLogger {
	maxSize := params.MaxSizeMB
	if maxSize <= 0 {
		maxSize = 50
	}
	maxBackups := params.MaxBackups
	if maxBackups <= 0 {
		maxBackups = 3
	}
	maxAge := params.MaxAgeDays
	if maxAge <= 0 {
		maxAge = 28
	}

	out := &lumberjack.Logger{
		Filename:   params.Path,
		MaxSize:    maxSize,
		MaxBackups: maxBackups,
		MaxAge:     maxAge,
		Compress:   true,
	}

	level := log.InfoLevel
	if params.Debug {
		level = log.DebugLevel
	}
	logger := log.NewWithOptions(out, log.Options{
		ReportTimestamp: true,
		Level:           level,
		Formatter:       log.JSONFormatter,
	})

	return &FileLogger{logger: logger, out: out}
}

// Close flushes and closes the underlying file.
func (f *FileLogger) Close() error {
	return f.out.Close()
}

func (f *FileLogger) Log(message string, keyvals ...any) {
	f.logger.Print(message, keyvals...)
}

func (f *FileLogger) Info(message string, keyvals ...any) {
	f.logger.Info(message, keyvals...)
}

func (f *FileLogger) Warn(message string, keyvals ...any) {
	f.logger.Warn(message, keyvals...)
}

func (f *FileLogger) Error(message string, keyvals ...any) {
	f.logger.Error(message, keyvals...)
}

func (f *FileLogger) Debug(message string, keyvals ...any) {
	f.logger.Debug(message, keyvals...)
}

// Fatal writes a message at FATAL level and terminates the program.
func (f *FileLogger) Fatal(message string, keyvals ...any) {
	f.logger.Fatal(message, keyvals...)
}
