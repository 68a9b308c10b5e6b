package runtime

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync/atomic"

	containerd "github.com/containerd/containerd/v2/client"
	"github.com/containerd/containerd/v2/pkg/cio"
	specs "github.com/opencontainers/runtime-spec/specs-go"
	"github.com/zmkbuild/zmkbuild/internal/fault"
)

// Sequence counter for generating unique exec process identifiers.
var execSeq uint64

// Returns a unique exec process identifier.
func nextExecID() string {
	return fmt.Sprintf("exec-%d", atomic.AddUint64(&execSeq, 1))
}

// A command to run inside a container.
type Process struct {
	Args []string // Command and arguments, run without a shell.
	Dir  string   // Working directory. Empty keeps the container's.
	Env  []string // Environment overrides, "KEY=value".
}

// Runs a process inside the named container and returns its exit code.
//
// Standard output and standard error are both written to out as the
// process produces them. The call blocks until the process exits. A non-zero
// exit code is not treated as an error; the caller decides.
func (rt *Runtime) Exec(ctx context.Context, name string, p Process, out io.Writer) (int, error) {
	ctr, err := rt.client.LoadContainer(ctx, name)
	if err != nil {
		return 0, fault.Wrap(ErrRuntime, err)
	}

	pspec, err := buildProcessSpec(ctx, ctr, p)
	if err != nil {
		return 0, fault.Wrap(ErrRuntime, err)
	}

	task, err := ctr.Task(ctx, nil)
	if err != nil {
		return 0, fault.Wrap(ErrRuntime, err)
	}

	if out == nil {
		out = io.Discard
	}

	slog.Debug("exec", "name", name, "dir", p.Dir, "args", p.Args)

	process, err := task.Exec(ctx, nextExecID(), pspec, cio.NewCreator(
		cio.WithStreams(nil, out, out),
	))
	if err != nil {
		return 0, fault.Wrap(ErrRuntime, err)
	}

	return awaitProcess(ctx, process)
}

// Builds an OCI process spec for running p inside the container.
//
// The base values are copied from the container's own OCI spec, then the
// arguments, environment and working directory of p are applied.
func buildProcessSpec(ctx context.Context, ctr containerd.Container, p Process) (*specs.Process, error) {
	spec, err := ctr.Spec(ctx)
	if err != nil {
		return nil, err
	}

	pspec := *spec.Process
	pspec.Terminal = false
	pspec.Args = p.Args

	if len(p.Env) > 0 {
		pspec.Env = mergeEnv(pspec.Env, p.Env)
	}
	if p.Dir != "" {
		pspec.Cwd = p.Dir
	}

	return &pspec, nil
}

// Merges override env vars on top of a base env slice.
func mergeEnv(base, overrides []string) []string {
	merged := make(map[string]string, len(base)+len(overrides))
	for _, entry := range base {
		if k, v, ok := strings.Cut(entry, "="); ok {
			merged[k] = v
		}
	}
	for _, entry := range overrides {
		if k, v, ok := strings.Cut(entry, "="); ok {
			merged[k] = v
		}
	}

	result := make([]string, 0, len(merged))
	for k, v := range merged {
		result = append(result, k+"="+v)
	}
	return result
}

// Waits for an exec process to exit and returns the exit code.
//
// The wait channel is registered before the process is started so that a
// fast exit is not missed. The process is always deleted before returning.
func awaitProcess(ctx context.Context, process containerd.Process) (int, error) {
	statusC, err := process.Wait(ctx)
	if err != nil {
		process.Delete(ctx)
		return 0, fault.Wrap(ErrRuntime, err)
	}

	if err := process.Start(ctx); err != nil {
		process.Delete(ctx)
		return 0, fault.Wrap(ErrRuntime, err)
	}

	var exitStatus containerd.ExitStatus
	select {
	case exitStatus = <-statusC:
	case <-ctx.Done():
		process.Delete(context.WithoutCancel(ctx), containerd.WithProcessKill)
		return 0, fault.Wrap(ErrRuntime, ctx.Err())
	}
	process.Delete(ctx)

	code, _, err := exitStatus.Result()
	if err != nil {
		return 0, fault.Wrap(ErrRuntime, err)
	}

	return int(code), nil
}
