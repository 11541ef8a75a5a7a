package logging

import (
	"io"
	"os"
	"path/filepath"

	"github.com/manolisziCy/sports/pkg/sdk"
	"github.com/pterm/pterm"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options selects where CLI logs go.
type Options struct {
	// File enables JSON logs in a rotating file.
	File string
	// Debug lowers the level to debug and mirrors logs to Stderr.
	Debug bool
	// Stderr defaults to os.Stderr.
	Stderr io.Writer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// New builds the CLI logger. The returned closer flushes the log file.
func New(opts Options) (*pterm.Logger, io.Closer, error) {
	stderr := opts.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}

	if opts.File == "" {
		if !opts.Debug {
			return sdk.DefaultLogger().WithWriter(stderr), nopCloser{}, nil
		}
		return pterm.DefaultLogger.WithLevel(pterm.LogLevelDebug).WithWriter(stderr), nopCloser{}, nil
	}

	if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
		return nil, nil, err
	}
	file := &lumberjack.Logger{
		Filename:   opts.File,
		MaxSize:    10,
		MaxBackups: 3,
		MaxAge:     28,
		Compress:   true,
	}

	logger := pterm.DefaultLogger.
		WithFormatter(pterm.LogFormatterJSON).
		WithTime(true).
		WithLevel(pterm.LogLevelInfo).
		WithWriter(file)
	if opts.Debug {
		logger = logger.WithLevel(pterm.LogLevelDebug).WithWriter(io.MultiWriter(file, stderr))
	}
	return logger, file, nil
}
