package container

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/zmkbuild/zmkbuild/internal/console"
	"github.com/zmkbuild/zmkbuild/internal/fault"
	"github.com/zmkbuild/zmkbuild/internal/runtime"
)

const (

	// Default bound on waiting for a container to report running.
	DefaultStartTimeout = 60 * time.Second

	// Default interval between state checks while waiting.
	DefaultPollInterval = time.Second
)

// Controls how [Ensure] provisions a container.
type Options struct {
	Name         string        // Container name, unique per project.
	Mount        string        // Host directory mounted at the same path inside the container.
	Image        string        // Toolchain image reference.
	ForceNew     bool          // Destroy any existing container before provisioning.
	Env          []string      // Environment for created containers and every exec.
	StartTimeout time.Duration // Bound on waiting for the running state. Zero uses [DefaultStartTimeout].
	PollInterval time.Duration // Interval between state checks. Zero uses [DefaultPollInterval].
	Stdout       io.Writer     // Destination for exec output. Nil writes to os.Stdout.
}

// A running project container.
type Handle struct {
	engine Engine
	name   string
	env    []string
	out    io.Writer
}

// Ensures the container described by opts exists and is running.
//
// With ForceNew set, an existing container is stopped and removed first. An
// existing container created with a different mount or image is replaced the
// same way.
// The image is pulled when it is not stored locally; a failed pull is
// returned as [ErrPull]. An absent container is created and an exited one is
// started. The state is then polled until the container runs; if it does not
// within the start timeout a [*StartError] is returned.
//
// Calling Ensure repeatedly without ForceNew reuses the same container.
func Ensure(ctx context.Context, engine Engine, puller Puller, opts Options) (*Handle, error) {
	info, err := engine.Inspect(ctx, opts.Name)
	if err != nil {
		return nil, fault.Wrap(ErrContainer, err)
	}
	state := info.State

	forceNew := opts.ForceNew
	if !forceNew && state != runtime.StateAbsent && !matches(info, opts) {
		slog.Warn("container does not match project, recreating",
			"name", opts.Name,
			"mount", info.Mount,
			"want_mount", opts.Mount,
			"image", info.Image,
			"want_image", opts.Image,
		)
		forceNew = true
	}

	if forceNew && state != runtime.StateAbsent {
		slog.Info("removing existing container", "name", opts.Name, "state", state)
		if err := destroy(ctx, engine, opts.Name, state); err != nil {
			return nil, err
		}
		state = runtime.StateAbsent
	}

	if err := ensureImage(ctx, engine, puller, opts.Image); err != nil {
		return nil, err
	}

	switch state {
	case runtime.StateAbsent:
		slog.Info("creating container", "name", opts.Name, "image", opts.Image)
		err = engine.Create(ctx, runtime.ContainerSpec{
			Name:  opts.Name,
			Image: opts.Image,
			Mount: opts.Mount,
			Env:   opts.Env,
		})
	case runtime.StateExited:
		slog.Info("starting container", "name", opts.Name)
		err = engine.Start(ctx, opts.Name)
	default:
		slog.Info("reusing running container", "name", opts.Name)
	}
	if err != nil {
		return nil, fault.Wrap(ErrContainer, err)
	}

	if err := waitRunning(ctx, engine, opts); err != nil {
		return nil, err
	}

	out := opts.Stdout
	if out == nil {
		out = os.Stdout
	}

	return &Handle{
		engine: engine,
		name:   opts.Name,
		env:    opts.Env,
		out:    out,
	}, nil
}

// Whether an existing container was created for the mount and image in opts.
func matches(info runtime.ContainerInfo, opts Options) bool {
	return info.Mount == opts.Mount && info.Image == opts.Image
}

// Stops and removes the named container if it exists.
func Destroy(ctx context.Context, engine Engine, name string) error {
	state, err := engine.State(ctx, name)
	if err != nil {
		return fault.Wrap(ErrContainer, err)
	}
	if state == runtime.StateAbsent {
		return nil
	}
	return destroy(ctx, engine, name, state)
}

// Transitions a container in the given state to absent.
func destroy(ctx context.Context, engine Engine, name string, state runtime.State) error {
	if state == runtime.StateRunning {
		if err := engine.Stop(ctx, name); err != nil {
			return fault.Wrap(ErrContainer, err)
		}
	}
	if err := engine.Remove(ctx, name); err != nil {
		return fault.Wrap(ErrContainer, err)
	}
	return nil
}

// Pulls the image unless it is already stored locally.
func ensureImage(ctx context.Context, engine Engine, puller Puller, image string) error {
	present, err := engine.HasImage(ctx, image)
	if err != nil {
		return fault.Wrap(ErrContainer, err)
	}
	if present {
		return nil
	}

	slog.Info("pulling image", "image", image)
	if err := puller.Pull(ctx, image); err != nil {
		return fault.Wrap(ErrPull, err)
	}
	return nil
}

// Polls the container state until it is running.
func waitRunning(ctx context.Context, engine Engine, opts Options) error {
	timeout := opts.StartTimeout
	if timeout <= 0 {
		timeout = DefaultStartTimeout
	}
	interval := opts.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		state, err := engine.State(ctx, opts.Name)
		if err != nil {
			return fault.Wrap(ErrContainer, err)
		}
		if state == runtime.StateRunning {
			return nil
		}

		slog.Debug("waiting for container", "name", opts.Name, "state", state)

		select {
		case <-ticker.C:
		case <-deadline.C:
			return &StartError{Name: opts.Name, State: state, Timeout: timeout}
		case <-ctx.Done():
			return fault.Wrap(ErrContainer, ctx.Err())
		}
	}
}

// Returns the container name.
func (h *Handle) Name() string {
	return h.name
}

// Runs args inside the container with dir as working directory.
//
// Output is streamed to the handle's writer line by line as it arrives.
// Returns the exit code; a non-zero code is not an error.
func (h *Handle) Exec(ctx context.Context, dir string, args ...string) (int, error) {
	slog.Info("executing", "dir", dir, "command", console.CommandLine(args))

	lw := console.NewLineWriter(h.out)
	code, err := h.engine.Exec(ctx, h.name, runtime.Process{
		Args: args,
		Dir:  dir,
		Env:  h.env,
	}, lw)
	lw.Flush()

	if err != nil {
		return code, fault.Wrap(ErrContainer, err)
	}
	if code != 0 {
		slog.Debug("command exited with non-zero code", "code", code, "command", console.CommandLine(args))
	}
	return code, nil
}

// Recursively opens up permissions on dir from inside the container.
//
// Files written by the container belong to the container user; relaxing
// them lets the host user read and delete build outputs.
func (h *Handle) Relax(ctx context.Context, dir string) error {
	code, err := h.Exec(ctx, dir, "chmod", "-R", "777", ".")
	if err != nil {
		return err
	}
	if code != 0 {
		slog.Warn("failed to relax permissions", "dir", dir, "code", code)
	}
	return nil
}

// Reports the state of the named container.
func Inspect(ctx context.Context, engine Engine, name string) (runtime.State, error) {
	state, err := engine.State(ctx, name)
	if err != nil {
		return runtime.StateAbsent, fault.Wrap(ErrContainer, err)
	}
	return state, nil
}
