// Package logging builds the process logger. The terminal belongs to the
// UI, so log output goes to a file unless a writer is supplied.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-hclog"
)

type Options struct {
	Level  string
	File   string
	JSON   bool
	Output io.Writer
}

// New returns the root logger and a closer for its file, if any.
func New(opts Options) (hclog.Logger, io.Closer, error) {
	level := hclog.LevelFromString(strings.TrimSpace(opts.Level))
	if level == hclog.NoLevel {
		return nil, nil, fmt.Errorf("logging: unknown level %q", opts.Level)
	}

	out := opts.Output
	var closer io.Closer = nopCloser{}
	if out == nil {
		if opts.File == "" {
			return nil, nil, fmt.Errorf("logging: output file is required")
		}
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o750); err != nil {
			return nil, nil, fmt.Errorf("create log dir: %w", err)
		}
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		out = f
		closer = f
	}

	logger := hclog.New(&hclog.LoggerOptions{
		Name:       "hydrate",
		Level:      level,
		Output:     out,
		JSONFormat: opts.JSON,
	})
	return logger, closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
