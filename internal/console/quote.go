package console

import (
	"strconv"
	"strings"

	"mvdan.cc/sh/v3/syntax"
)

// Formats args as a shell command line, quoting where needed, for display.
func CommandLine(args []string) string {
	quoted := make([]string, len(args))
	for i, arg := range args {
		q, err := syntax.Quote(arg, syntax.LangBash)
		if err != nil {
			q = strconv.Quote(arg)
		}
		quoted[i] = q
	}
	return strings.Join(quoted, " ")
}
