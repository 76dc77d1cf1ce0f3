// Package logging sets up the file logger. The terminal belongs to the UI, so
// every diagnostic goes to a file.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/sirupsen/logrus"

	"github.com/llehouerou/undertow/internal/config"
)

const appName = "undertow"

// Setup returns a logger writing to cfg.File, or to a dated file in the XDG
// state directory when cfg.File is empty. Unknown levels fall back to info.
// The returned closer releases the log file.
func Setup(cfg config.LogConfig) (*logrus.Logger, io.Closer, error) {
	path := cfg.File
	if path == "" {
		var err error
		path, err = DefaultPath(time.Now())
		if err != nil {
			return nil, nil, err
		}
	} else if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}

	return New(f, cfg), f, nil
}

// New returns a logger writing to w with the formatter and level of cfg.
func New(w io.Writer, cfg config.LogConfig) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(w)

	if cfg.JSON {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{DisableColors: true, FullTimestamp: true})
	}

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	return logger
}

// DefaultPath returns the log file for day under the XDG state directory,
// creating parent directories.
func DefaultPath(day time.Time) (string, error) {
	return xdg.StateFile(filepath.Join(appName, day.Format("2006-01-02")+".log"))
}
