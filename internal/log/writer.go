package log

import (
	"io"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Writer is the sink a configured Logger writes lines to.
type Writer = io.Writer

// FileOptions controls the rotating log file a harness run writes to.
type FileOptions struct {
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// NewRotatingFile returns a lumberjack-backed Writer that rotates by size
// and age.
func NewRotatingFile(opts FileOptions) Writer {
	return &lumberjack.Logger{
		Filename:   opts.Path,
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
		MaxAge:     opts.MaxAgeDays,
		Compress:   opts.Compress,
	}
}

// NewMultiWriter fans log lines out to stdout and, if file is non-nil, a
// rotating file as well.
func NewMultiWriter(file Writer) Writer {
	if file == nil {
		return os.Stdout
	}
	return io.MultiWriter(os.Stdout, file)
}
