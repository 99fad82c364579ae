package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Rotation defaults for the client log.
const (
	MaxSizeMB  = 10
	MaxBackups = 3
	MaxAgeDays = 28
)

// Setup routes the standard logger to a size-rotated file at path so the
// terminal stays free for the UI. The returned closer restores the previous
// output and closes the file.
func Setup(path string) (io.Closer, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("log file path required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}

	writer := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    MaxSizeMB,
		MaxBackups: MaxBackups,
		MaxAge:     MaxAgeDays,
		Compress:   true,
	}
	prev := log.Writer()
	prevFlags := log.Flags()
	log.SetOutput(writer)
	log.SetFlags(log.LstdFlags)
	return &restorer{writer: writer, prev: prev, prevFlags: prevFlags}, nil
}

type restorer struct {
	writer    *lumberjack.Logger
	prev      io.Writer
	prevFlags int
}

func (r *restorer) Close() error {
	log.SetOutput(r.prev)
	log.SetFlags(r.prevFlags)
	return r.writer.Close()
}
