package build

import (
	"strings"

	"github.com/zmkbuild/zmkbuild/internal/fault"
	"github.com/zmkbuild/zmkbuild/internal/manifest"
	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/syntax"
)

// Inputs to a west build invocation.
type westBuildParams struct {
	App      string          // ZMK application source directory.
	Config   string          // ZMK config directory.
	Outdir   string          // Build directory for the target.
	Target   manifest.Target // Board, shield, snippet and extra CMake arguments.
	Pristine bool            // Force a pristine build.
}

// Returns the argv for building a target:
//
//	west build [-p] -s APP -b BOARD -d OUTDIR [-S SNIPPET] -- -DSHIELD=SHIELD -DZMK_CONFIG=CONFIG [CMAKE_ARGS...]
func westBuild(west string, p westBuildParams) ([]string, error) {
	extra, err := splitArgs(p.Target.CMakeArgs)
	if err != nil {
		return nil, err
	}

	args := []string{west, "build"}
	if p.Pristine {
		args = append(args, "-p")
	}
	args = append(args, "-s", p.App, "-b", p.Target.Board, "-d", p.Outdir)
	if p.Target.Snippet != "" {
		args = append(args, "-S", p.Target.Snippet)
	}
	args = append(args, "--", "-DSHIELD="+p.Target.Shield, "-DZMK_CONFIG="+p.Config)

	return append(args, extra...), nil
}

// Splits a cmake-args value into arguments.
//
// Quoting and escaping follow shell rules. Expansions ($VAR, $(cmd), and
// the like) are rejected; globs are passed through literally.
func splitArgs(s string) ([]string, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}

	var words []*syntax.Word
	var unsupported syntax.Node

	err := syntax.NewParser().Words(strings.NewReader(s), func(w *syntax.Word) bool {
		syntax.Walk(w, func(node syntax.Node) bool {
			switch node.(type) {
			case *syntax.ParamExp, *syntax.CmdSubst, *syntax.ArithmExp, *syntax.ProcSubst, *syntax.ExtGlob:
				if unsupported == nil {
					unsupported = node
				}
				return false
			}
			return true
		})
		words = append(words, w)
		return true
	})
	if err != nil {
		return nil, fault.Wrapf(ErrCMakeArgs, "%q: %w", s, err)
	}
	if unsupported != nil {
		return nil, fault.Wrapf(ErrCMakeArgs, "%q: expansion at column %d", s, unsupported.Pos().Col())
	}

	fields, err := expand.Fields(&expand.Config{Env: expand.ListEnviron()}, words...)
	if err != nil {
		return nil, fault.Wrapf(ErrCMakeArgs, "%q: %w", s, err)
	}
	return fields, nil
}
