// Package logging builds the process-wide logger.
package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Options selects where and how much the logger writes.
type Options struct {
	Level    string
	Format   string
	FilePath string
}

// New returns a logger writing to FilePath, or stderr when it is blank.
// The returned close func releases the log file and must be called once
// the logger is no longer used.
func New(opts Options) (*logrus.Logger, func() error, error) {
	logLvl, err := logrus.ParseLevel(opts.Level)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse log level: %w", err)
	}

	var formatter logrus.Formatter
	switch opts.Format {
	case "", "text":
		formatter = &logrus.TextFormatter{
			TimestampFormat: "2006-01-02 15:04:05",
			FullTimestamp:   true,
			DisableSorting:  true,
		}
	case "json":
		formatter = &logrus.JSONFormatter{TimestampFormat: "2006-01-02 15:04:05"}
	default:
		return nil, nil, fmt.Errorf("unknown log format %q", opts.Format)
	}

	var w io.Writer = os.Stderr
	closeFn := func() error { return nil }
	if opts.FilePath != "" {
		f, err := os.OpenFile(opts.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o666)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file %s: %w", opts.FilePath, err)
		}
		w = f
		closeFn = f.Close
	}

	return &logrus.Logger{
		Out:       w,
		Formatter: formatter,
		Hooks:     make(logrus.LevelHooks),
		Level:     logLvl,
	}, closeFn, nil
}
