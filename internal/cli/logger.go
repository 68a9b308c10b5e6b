package cli

import (
	"io"
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/zmkbuild/zmkbuild/internal"
)

// Shared by every logger created here so the level can change after
// flag parsing.
var level slog.LevelVar

// Creates the process logger seeded from build-time linker flags.
//
// The logger is reconfigured after flag parsing via [Execute].
func NewLogger() *slog.Logger {
	level.Set(logLevel(internal.IsDebug(), internal.IsQuiet()))
	return newLogger(os.Stderr, isTerminal(os.Stderr), internal.IsVerbose())
}

// Configures the global logger based on CLI flags.
func configureLogger() {
	debug := RootCmd.Debug || internal.IsDebug()
	quiet := RootCmd.Quiet || internal.IsQuiet()
	verbose := RootCmd.Verbose || internal.IsVerbose()

	internal.SetDebug(debug)
	internal.SetQuiet(quiet)
	internal.SetVerbose(verbose)

	level.Set(logLevel(debug, quiet))
	slog.SetDefault(newLogger(os.Stderr, isTerminal(os.Stderr), verbose))
}

// Text output for terminals, JSON otherwise. Verbose output adds the
// source location of each record.
func newLogger(w io.Writer, pretty, verbose bool) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level:     &level,
		AddSource: verbose,
	}
	if pretty {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

func logLevel(debug, quiet bool) slog.Level {
	if debug {
		return slog.LevelDebug
	}
	if quiet {
		return slog.LevelWarn
	}
	return slog.LevelInfo
}

// Whether the given file is an interactive terminal.
func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
