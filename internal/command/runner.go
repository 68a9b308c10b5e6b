package command

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"os/exec"

	"github.com/zmkbuild/zmkbuild/internal/fault"
)

// Returned when a process cannot be started or its output cannot be read.
var ErrCommand = errors.New("command failed")

// Runs host processes, streaming merged output line by line.
type Runner struct {
	Stdout io.Writer // Destination for output lines. Nil writes to os.Stdout.
}

// Runs name with args and returns its exit code.
//
// The call blocks until the process terminates. A non-zero exit code is not
// an error; the caller decides whether it is fatal. An error is returned
// if the process could not be started, its output could not be read, or ctx
// ended before it exited.
func (r *Runner) Run(ctx context.Context, name string, args ...string) (int, error) {
	out := r.Stdout
	if out == nil {
		out = os.Stdout
	}

	cmd := exec.CommandContext(ctx, name, args...)
	pipe, err := cmd.StdoutPipe()
	if err != nil {
		return -1, fault.Wrap(ErrCommand, err)
	}
	cmd.Stderr = cmd.Stdout // merge stderr into stdout

	slog.Debug("running command", "command", cmd.String())

	if err := cmd.Start(); err != nil {
		return -1, fault.Wrap(ErrCommand, err)
	}

	readErr := forwardLines(pipe, out)
	if readErr != nil {
		// Keep the child from blocking on a full pipe.
		io.Copy(io.Discard, pipe)
	}

	err = cmd.Wait()
	if readErr != nil {
		return -1, fault.Wrap(ErrCommand, readErr)
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return -1, fault.Wrap(ErrCommand, ctxErr)
	}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		return 0, nil
	case errors.As(err, &exitErr):
		return exitErr.ExitCode(), nil
	default:
		return -1, fault.Wrap(ErrCommand, err)
	}
}

// Copies r to out one line at a time, as each line completes. Lines have no
// length limit. A final line without a newline is terminated with one.
func forwardLines(r io.Reader, out io.Writer) error {
	br := bufio.NewReader(r)
	for {
		line, err := br.ReadBytes('\n')
		if len(line) > 0 {
			if line[len(line)-1] != '\n' {
				line = append(line, '\n')
			}
			if _, werr := out.Write(line); werr != nil {
				slog.Warn("failed to forward command output", "error", werr)
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}
