package runtime

import (
	"context"
	"log/slog"
	"syscall"

	containerd "github.com/containerd/containerd/v2/client"
	"github.com/containerd/containerd/v2/pkg/cio"
	"github.com/containerd/containerd/v2/pkg/oci"
	"github.com/containerd/errdefs"
	specs "github.com/opencontainers/runtime-spec/specs-go"
	"github.com/zmkbuild/zmkbuild/internal/fault"
)

// Lifecycle state of a named container.
type State string

const (
	StateAbsent  State = "absent"  // No container with the name exists.
	StateExited  State = "exited"  // The container exists but its task is not running.
	StateRunning State = "running" // The container's long-running task is active.
)

// Labels recorded on created containers.
const (
	labelMount = "io.zmkbuild.mount"
	labelImage = "io.zmkbuild.image"
)

// Describes a persistent build container.
type ContainerSpec struct {
	Name  string   // Containerd container ID.
	Image string   // Image reference the container is created from.
	Mount string   // Host directory bind-mounted at the same path and used as working directory.
	Env   []string // Additional environment, "KEY=value".
}

// Identity and state of a named container.
type ContainerInfo struct {
	State State  // Lifecycle state.
	Mount string // Host directory recorded at creation. Empty if unknown.
	Image string // Image reference recorded at creation. Empty if unknown.
}

// Queries the state of the named container.
func (rt *Runtime) State(ctx context.Context, name string) (State, error) {
	info, err := rt.Inspect(ctx, name)
	return info.State, err
}

// Queries the state of the named container and the mount and image it was
// created with.
func (rt *Runtime) Inspect(ctx context.Context, name string) (ContainerInfo, error) {
	ctr, err := rt.client.LoadContainer(ctx, name)
	if err != nil {
		if errdefs.IsNotFound(err) {
			return ContainerInfo{State: StateAbsent}, nil
		}
		return ContainerInfo{}, fault.Wrap(ErrRuntime, err)
	}

	labels, err := ctr.Labels(ctx)
	if err != nil {
		return ContainerInfo{}, fault.Wrap(ErrRuntime, err)
	}

	info := infoFromLabels(labels)

	task, err := ctr.Task(ctx, nil)
	if err != nil {
		if errdefs.IsNotFound(err) {
			info.State = StateExited
			return info, nil
		}
		return ContainerInfo{}, fault.Wrap(ErrRuntime, err)
	}

	status, err := task.Status(ctx)
	if err != nil {
		return ContainerInfo{}, fault.Wrap(ErrRuntime, err)
	}

	info.State = stateOf(status.Status)
	return info, nil
}

// Recovers the creation mount and image from container labels.
func infoFromLabels(labels map[string]string) ContainerInfo {
	return ContainerInfo{
		Mount: labels[labelMount],
		Image: labels[labelImage],
	}
}

// Returns the labels recorded on containers created from spec.
func specLabels(spec ContainerSpec) map[string]string {
	return map[string]string{
		labelMount: spec.Mount,
		labelImage: spec.Image,
	}
}

// Maps a containerd task status onto a container [State].
//
// Created and paused tasks are not usable for exec and count as exited.
func stateOf(status containerd.ProcessStatus) State {
	if status == containerd.Running {
		return StateRunning
	}
	return StateExited
}

// Creates the container described by spec and starts its long-running task.
//
// The image must already be stored locally. Its layers are unpacked into
// the snapshotter on first use. The mount directory is bind-mounted
// read-write at the same path and set as the process working directory, so
// paths are identical on the host and inside the container.
func (rt *Runtime) Create(ctx context.Context, spec ContainerSpec) error {
	image, err := rt.resolveImage(ctx, spec.Image)
	if err != nil {
		return fault.Wrap(ErrRuntime, err)
	}

	if err := rt.ensureUnpacked(ctx, image); err != nil {
		return fault.Wrap(ErrRuntime, err)
	}

	ctr, err := rt.client.NewContainer(ctx, spec.Name,
		containerd.WithImage(image),
		containerd.WithSnapshotter(rt.snapshotter),
		containerd.WithNewSnapshot(spec.Name, image),
		containerd.WithRuntime(ociRuntime, nil),
		containerd.WithContainerLabels(specLabels(spec)),
		containerd.WithNewSpec(
			oci.WithDefaultSpecForPlatform(rt.platform),
			oci.WithImageConfig(image),
			oci.WithHostNamespace(specs.NetworkNamespace),
			oci.WithHostResolvconf,
			oci.WithMounts(bindMounts(spec.Mount)),
			oci.WithProcessCwd(spec.Mount),
			oci.WithEnv(spec.Env),
			oci.WithProcessArgs("sleep", "infinity"),
		),
	)
	if err != nil {
		return fault.Wrap(ErrRuntime, err)
	}

	if err := startTask(ctx, ctr); err != nil {
		ctr.Delete(ctx, containerd.WithSnapshotCleanup)
		return fault.Wrap(ErrRuntime, err)
	}

	slog.Debug("container created", "name", spec.Name, "image", spec.Image, "mount", spec.Mount)
	return nil
}

// Starts the long-running task of an existing container.
//
// A leftover stopped task is deleted first; containerd allows only one task
// per container.
func (rt *Runtime) Start(ctx context.Context, name string) error {
	ctr, err := rt.client.LoadContainer(ctx, name)
	if err != nil {
		return fault.Wrap(ErrRuntime, err)
	}

	task, err := ctr.Task(ctx, nil)
	switch {
	case err == nil:
		if _, err := task.Delete(ctx, containerd.WithProcessKill); err != nil && !errdefs.IsNotFound(err) {
			return fault.Wrap(ErrRuntime, err)
		}
	case !errdefs.IsNotFound(err):
		return fault.Wrap(ErrRuntime, err)
	}

	if err := startTask(ctx, ctr); err != nil {
		return fault.Wrap(ErrRuntime, err)
	}

	slog.Debug("container started", "name", name)
	return nil
}

// Stops the container's task.
//
// The running task is killed and deleted. The container and its snapshot
// are preserved. Stopping an absent or already-stopped container is not an
// error.
func (rt *Runtime) Stop(ctx context.Context, name string) error {
	ctr, err := rt.client.LoadContainer(ctx, name)
	if err != nil {
		if errdefs.IsNotFound(err) {
			return nil
		}
		return fault.Wrap(ErrRuntime, err)
	}

	task, err := ctr.Task(ctx, nil)
	if err != nil {
		if errdefs.IsNotFound(err) {
			return nil
		}
		return fault.Wrap(ErrRuntime, err)
	}

	task.Kill(ctx, syscall.SIGKILL)
	if _, err := task.Delete(ctx, containerd.WithProcessKill); err != nil && !errdefs.IsNotFound(err) {
		return fault.Wrap(ErrRuntime, err)
	}

	slog.Debug("container stopped", "name", name)
	return nil
}

// Removes the container and its snapshot.
//
// Any remaining task is killed first. Removing an absent container is not
// an error.
func (rt *Runtime) Remove(ctx context.Context, name string) error {
	ctr, err := rt.client.LoadContainer(ctx, name)
	if err != nil {
		if errdefs.IsNotFound(err) {
			return nil
		}
		return fault.Wrap(ErrRuntime, err)
	}

	if task, err := ctr.Task(ctx, nil); err == nil {
		task.Kill(ctx, syscall.SIGKILL)
		task.Delete(ctx, containerd.WithProcessKill)
	}

	if err := ctr.Delete(ctx, containerd.WithSnapshotCleanup); err != nil && !errdefs.IsNotFound(err) {
		return fault.Wrap(ErrRuntime, err)
	}

	slog.Debug("container removed", "name", name)
	return nil
}

// Returns the bind mount that exposes dir at the same path in the container.
func bindMounts(dir string) []specs.Mount {
	return []specs.Mount{{
		Destination: dir,
		Source:      dir,
		Type:        "bind",
		Options:     []string{"rbind", "rw"},
	}}
}

// Starts the container's long-running task with no attached IO.
func startTask(ctx context.Context, ctr containerd.Container) error {
	task, err := ctr.NewTask(ctx, cio.NullIO)
	if err != nil {
		return err
	}
	if err := task.Start(ctx); err != nil {
		task.Delete(ctx)
		return err
	}
	return nil
}
