package container

import (
	"context"
	"io"

	"github.com/zmkbuild/zmkbuild/internal/runtime"
)

// Container runtime primitives used by the lifecycle state machine.
//
// Implemented by runtime.Runtime.
type Engine interface {
	HasImage(ctx context.Context, ref string) (bool, error)
	State(ctx context.Context, name string) (runtime.State, error)
	Inspect(ctx context.Context, name string) (runtime.ContainerInfo, error)
	Create(ctx context.Context, spec runtime.ContainerSpec) error
	Start(ctx context.Context, name string) error
	Stop(ctx context.Context, name string) error
	Remove(ctx context.Context, name string) error
	Exec(ctx context.Context, name string, p runtime.Process, out io.Writer) (int, error)
}

// Fetches images that are not stored locally.
//
// Implemented by runtime.CommandPuller.
type Puller interface {
	Pull(ctx context.Context, ref string) error
}
