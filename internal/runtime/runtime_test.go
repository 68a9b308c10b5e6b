package runtime

import (
	"context"
	"errors"
	"strings"
	"testing"

	containerd "github.com/containerd/containerd/v2/client"
)

func TestDefaultPlatform(t *testing.T) {
	p := defaultPlatform()
	if !strings.HasPrefix(p, "linux/") {
		t.Fatalf("defaultPlatform = %q, want linux/<arch>", p)
	}
	parts := strings.Split(p, "/")
	if len(parts) != 2 || parts[1] == "" {
		t.Fatalf("defaultPlatform = %q, want linux/<arch>", p)
	}
}

func TestStateOf(t *testing.T) {
	tests := []struct {
		status containerd.ProcessStatus
		want   State
	}{
		{containerd.Running, StateRunning},
		{containerd.Created, StateExited},
		{containerd.Stopped, StateExited},
		{containerd.Paused, StateExited},
		{containerd.Unknown, StateExited},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			if got := stateOf(tt.status); got != tt.want {
				t.Fatalf("stateOf(%q) = %q, want %q", tt.status, got, tt.want)
			}
		})
	}
}

func TestBindMounts(t *testing.T) {
	mounts := bindMounts("/home/me/kb/zmk_work")
	if len(mounts) != 1 {
		t.Fatalf("len(mounts) = %d, want 1", len(mounts))
	}

	m := mounts[0]
	if m.Source != "/home/me/kb/zmk_work" || m.Destination != m.Source {
		t.Fatalf("mount = %s -> %s, want identical host and container paths", m.Source, m.Destination)
	}
	if m.Type != "bind" {
		t.Fatalf("mount type = %q, want bind", m.Type)
	}
}

type fakeRunner struct {
	code int
	err  error
	name string
	args []string
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) (int, error) {
	f.name = name
	f.args = args
	return f.code, f.err
}

func TestCommandPullerArgs(t *testing.T) {
	runner := &fakeRunner{}
	p := &CommandPuller{
		Runner:    runner,
		Address:   "/run/containerd/containerd.sock",
		Namespace: "zmkbuild",
		Platform:  "linux/arm64",
	}

	if err := p.Pull(context.Background(), "docker.io/zmkfirmware/zmk-dev-arm:3.5"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if runner.name != DefaultCtr {
		t.Fatalf("binary = %q, want %q", runner.name, DefaultCtr)
	}
	want := "--address /run/containerd/containerd.sock --namespace zmkbuild images pull " +
		"--snapshotter overlayfs --platform linux/arm64 docker.io/zmkfirmware/zmk-dev-arm:3.5"
	if got := strings.Join(runner.args, " "); got != want {
		t.Fatalf("args = %q\nwant   %q", got, want)
	}
}

func TestCommandPullerFailure(t *testing.T) {
	tests := []struct {
		name   string
		runner *fakeRunner
	}{
		{"non-zero exit", &fakeRunner{code: 1}},
		{"runner error", &fakeRunner{code: -1, err: errors.New("exec: not found")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &CommandPuller{Runner: tt.runner, Ctr: "/usr/local/bin/ctr"}
			err := p.Pull(context.Background(), "example/image:1")
			if !errors.Is(err, ErrPull) {
				t.Fatalf("err = %v, want ErrPull", err)
			}
			if tt.runner.name != "/usr/local/bin/ctr" {
				t.Fatalf("binary = %q, want /usr/local/bin/ctr", tt.runner.name)
			}
		})
	}
}

func TestContainerLabelsRoundTrip(t *testing.T) {
	spec := ContainerSpec{
		Name:  "zmk-config-corne",
		Image: "docker.io/zmkfirmware/zmk-dev-arm:3.5",
		Mount: "/home/me/zmk-config-corne/zmk_work",
	}

	info := infoFromLabels(specLabels(spec))
	if info.Mount != spec.Mount || info.Image != spec.Image {
		t.Fatalf("infoFromLabels = %+v, want mount %q image %q", info, spec.Mount, spec.Image)
	}

	if info := infoFromLabels(map[string]string{"other": "x"}); info.Mount != "" || info.Image != "" {
		t.Fatalf("unlabelled container reported %+v", info)
	}
}
