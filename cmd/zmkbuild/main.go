package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/zmkbuild/zmkbuild/internal"
	"github.com/zmkbuild/zmkbuild/internal/cli"
	"github.com/zmkbuild/zmkbuild/internal/fault"
)

// The entry point for zmkbuild.
//
// Initializes logging, displays startup information, and executes the root
// command. If any error occurs during execution, it exits with a non-zero code.
func main() {
	slog.SetDefault(cli.NewLogger())

	slog.Debug("build", "version", internal.VersionString())

	slog.Debug("zmkbuild is running",
		"pid", os.Getpid(),
		"cwd", cwd(),
		"args", os.Args,
	)

	if err := cli.Execute(); err != nil {
		slog.Error(err.Error())
		if internal.IsDebug() {
			fmt.Fprintln(os.Stderr, fault.Format(err, true))
		}
		os.Exit(1)
	}
}

// Returns the current working directory or "(unknown)".
func cwd() string {
	cwd, err := os.Getwd()
	if err != nil {
		return "(unknown)"
	}
	return cwd
}
