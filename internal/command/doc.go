// Package command runs host processes with live, line-by-line output.
//
// Standard error is merged into standard output and every line is written to
// the runner's output as soon as it is read, so long-running operations such
// as image pulls can be observed while they progress.
package command
