package internal

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
)

const undefined = "(undefined)"

var (
	version   = "" // Release version, e.g. "1.4.0". Set via ldflags.
	gitCommit = "" // Commit hash. Set via ldflags.
)

// Returns the release version without a leading "v".
//
// Falls back to the module version recorded by the Go toolchain when the
// binary was installed with "go install", and to "(undefined)" otherwise.
func Version() string {
	v := strings.TrimSpace(version)
	if v == "" {
		v = moduleVersion()
	}
	if v == "" {
		return undefined
	}
	return strings.TrimPrefix(strings.ToLower(v), "v")
}

// Returns the commit hash the binary was built from, or "(undefined)".
func GitCommit() string {
	if c := strings.TrimSpace(gitCommit); c != "" {
		return c
	}
	if c := vcsRevision(); c != "" {
		return c
	}
	return undefined
}

// Returns a one-line version string: "<version> <commit> [<os>/<arch>]".
func VersionString() string {
	return fmt.Sprintf("%s %s [%s/%s]", Version(), GitCommit(), runtime.GOOS, runtime.GOARCH)
}

func moduleVersion() string {
	info, ok := debug.ReadBuildInfo()
	if !ok || info.Main.Version == "(devel)" {
		return ""
	}
	return info.Main.Version
}

func vcsRevision() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, s := range info.Settings {
		if s.Key == "vcs.revision" {
			return s.Value
		}
	}
	return ""
}
