package container

import (
	"errors"
	"fmt"
	"time"

	"github.com/zmkbuild/zmkbuild/internal/runtime"
)

var (
	ErrContainer    = errors.New("container error")
	ErrPull         = errors.New("toolchain image unavailable")
	ErrStartTimeout = errors.New("container failed to start")
)

// Returned when a container does not reach the running state in time.
//
// Matches [ErrStartTimeout] under errors.Is.
type StartError struct {
	Name    string        // Container name.
	State   runtime.State // Last observed state.
	Timeout time.Duration // How long the container was polled.
}

func (e *StartError) Error() string {
	return fmt.Sprintf("container %s still %s after %s", e.Name, e.State, e.Timeout)
}

// Reports whether target is [ErrStartTimeout].
func (e *StartError) Is(target error) bool {
	return target == ErrStartTimeout
}
