// Package containertest provides an in-memory container engine for tests.
package containertest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/zmkbuild/zmkbuild/internal/runtime"
)

// Returned by [Engine] operations on unknown containers.
var ErrNotFound = errors.New("container not found")

// Handles a simulated exec. The returned value is the exit code.
type ExecFunc func(name string, p runtime.Process, out io.Writer) int

// A simulated container.
type Container struct {
	Spec  runtime.ContainerSpec
	State runtime.State
}

// An in-memory [container.Engine].
//
// Every call is recorded as "<op> <name>" (or "<op> <ref>" for images) in
// Calls. Exec calls are recorded in Execs and delegated to OnExec when set;
// without OnExec every exec exits with code 0.
type Engine struct {
	mu sync.Mutex

	Images     map[string]bool       // Locally stored images.
	Containers map[string]*Container // Existing containers by name.
	Calls      []string              // Operation log.
	Execs      []runtime.Process     // Processes run through Exec, in order.
	OnExec     ExecFunc              // Simulates command execution.
	NeverRuns  bool                  // Created and started containers stay exited.
}

// Creates an empty engine that already stores the given images.
func NewEngine(images ...string) *Engine {
	e := &Engine{
		Images:     make(map[string]bool),
		Containers: make(map[string]*Container),
	}
	for _, ref := range images {
		e.Images[ref] = true
	}
	return e
}

// Adds a container created from spec in the given state.
func (e *Engine) Add(spec runtime.ContainerSpec, state runtime.State) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Containers[spec.Name] = &Container{Spec: spec, State: state}
}

// Returns how many times op was called.
func (e *Engine) Count(op string) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	n := 0
	for _, c := range e.Calls {
		if strings.HasPrefix(c, op+" ") {
			n++
		}
	}
	return n
}

func (e *Engine) record(op, subject string) {
	e.Calls = append(e.Calls, op+" "+subject)
}

func (e *Engine) HasImage(ctx context.Context, ref string) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.record("has-image", ref)
	return e.Images[ref], nil
}

func (e *Engine) State(ctx context.Context, name string) (runtime.State, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.record("state", name)
	if c, ok := e.Containers[name]; ok {
		return c.State, nil
	}
	return runtime.StateAbsent, nil
}

func (e *Engine) Inspect(ctx context.Context, name string) (runtime.ContainerInfo, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.record("inspect", name)
	c, ok := e.Containers[name]
	if !ok {
		return runtime.ContainerInfo{State: runtime.StateAbsent}, nil
	}
	return runtime.ContainerInfo{State: c.State, Mount: c.Spec.Mount, Image: c.Spec.Image}, nil
}

func (e *Engine) Create(ctx context.Context, spec runtime.ContainerSpec) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.record("create", spec.Name)
	if _, ok := e.Containers[spec.Name]; ok {
		return fmt.Errorf("container %s already exists", spec.Name)
	}
	if !e.Images[spec.Image] {
		return fmt.Errorf("image %s not found", spec.Image)
	}
	e.Containers[spec.Name] = &Container{Spec: spec, State: e.startedState()}
	return nil
}

func (e *Engine) Start(ctx context.Context, name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.record("start", name)
	c, ok := e.Containers[name]
	if !ok {
		return ErrNotFound
	}
	c.State = e.startedState()
	return nil
}

func (e *Engine) Stop(ctx context.Context, name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.record("stop", name)
	if c, ok := e.Containers[name]; ok {
		c.State = runtime.StateExited
	}
	return nil
}

func (e *Engine) Remove(ctx context.Context, name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.record("remove", name)
	delete(e.Containers, name)
	return nil
}

func (e *Engine) Exec(ctx context.Context, name string, p runtime.Process, out io.Writer) (int, error) {
	e.mu.Lock()
	e.record("exec", name)
	c, ok := e.Containers[name]
	if !ok || c.State != runtime.StateRunning {
		e.mu.Unlock()
		return 0, fmt.Errorf("container %s is not running", name)
	}
	e.Execs = append(e.Execs, p)
	fn := e.OnExec
	e.mu.Unlock()

	if fn == nil {
		return 0, nil
	}
	return fn(name, p, out), nil
}

func (e *Engine) startedState() runtime.State {
	if e.NeverRuns {
		return runtime.StateExited
	}
	return runtime.StateRunning
}

// A [container.Puller] that stores images in an [Engine].
type Puller struct {
	Engine *Engine
	Err    error    // Returned by Pull instead of storing the image.
	Pulls  []string // Pulled references, in order.
}

func (p *Puller) Pull(ctx context.Context, ref string) error {
	p.Pulls = append(p.Pulls, ref)
	if p.Err != nil {
		return p.Err
	}
	p.Engine.mu.Lock()
	defer p.Engine.mu.Unlock()
	p.Engine.Images[ref] = true
	return nil
}
