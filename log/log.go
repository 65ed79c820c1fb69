// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package log is the logging surface shared by the ledger packages.
// It sits on top of the go-ethereum structured logger.
package log

import (
	"io"
	"log/slog"
	"os"

	ethlog "github.com/ethereum/go-ethereum/log"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
)

// Logger is a structured leveled logger.
type Logger = ethlog.Logger

// Verbosity levels, same numbering as the go-ethereum legacy levels.
const (
	LvlCrit  = 0
	LvlError = 1
	LvlWarn  = 2
	LvlInfo  = 3
	LvlDebug = 4
	LvlTrace = 5
)

// Supported output formats.
const (
	FormatTerminal = "terminal"
	FormatJSON     = "json"
	FormatLogfmt   = "logfmt"
)

// Options configures the root logger.
type Options struct {
	Format    string
	Verbosity int
	Color     bool
	Output    io.Writer
}

// DefaultOptions logs info and above to stderr in terminal format,
// colored when stderr is a terminal.
func DefaultOptions() Options {
	fd := os.Stderr.Fd()
	return Options{
		Format:    FormatTerminal,
		Verbosity: LvlInfo,
		Color:     isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd),
		Output:    os.Stderr,
	}
}

// WithContext returns a logger carrying the given key/value context.
func WithContext(ctx ...any) Logger {
	return ethlog.New(ctx...)
}

// Root returns the root logger.
func Root() Logger {
	return ethlog.Root()
}

// SetDefault replaces the root logger.
func SetDefault(l Logger) {
	ethlog.SetDefault(l)
}

// NewHandler builds a handler from options.
func NewHandler(opts Options) (slog.Handler, error) {
	if opts.Output == nil {
		opts.Output = os.Stderr
	}
	if opts.Verbosity < LvlCrit || opts.Verbosity > LvlTrace {
		return nil, errors.Errorf("invalid verbosity %d", opts.Verbosity)
	}

	var inner slog.Handler
	switch opts.Format {
	case "", FormatTerminal:
		inner = ethlog.NewTerminalHandler(opts.Output, opts.Color)
	case FormatJSON:
		inner = ethlog.JSONHandler(opts.Output)
	case FormatLogfmt:
		inner = ethlog.LogfmtHandler(opts.Output)
	default:
		return nil, errors.Errorf("unknown log format %q", opts.Format)
	}

	glog := ethlog.NewGlogHandler(inner)
	glog.Verbosity(ethlog.FromLegacyLevel(opts.Verbosity))
	return glog, nil
}

// Init installs a root logger built from opts.
func Init(opts Options) error {
	h, err := NewHandler(opts)
	if err != nil {
		return err
	}
	SetDefault(ethlog.NewLogger(h))
	return nil
}

// Discard silences the root logger and returns a function restoring the previous one.
func Discard() (restore func()) {
	old := Root()
	SetDefault(ethlog.NewLogger(ethlog.DiscardHandler()))
	return func() { SetDefault(old) }
}
