package runtime

import (
	"context"

	"github.com/zmkbuild/zmkbuild/internal/fault"
)

// Default ctr binary used to pull images.
const DefaultCtr = "ctr"

// Runs a host command and returns its exit code.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) (int, error)
}

// Pulls images by running "ctr images pull" through a [CommandRunner].
//
// Shelling out keeps the pull observable: ctr prints layer progress, which
// the runner streams to the console line by line. The image is unpacked into
// the configured snapshotter as part of the pull.
type CommandPuller struct {
	Runner      CommandRunner // Runner used to execute ctr.
	Ctr         string        // Path or name of the ctr binary. Empty uses [DefaultCtr].
	Address     string        // Containerd socket address.
	Namespace   string        // Containerd namespace.
	Snapshotter string        // Snapshotter to unpack into. Empty uses [DefaultSnapshotter].
	Platform    string        // Platform to pull. Empty uses the host platform.
}

// Pulls ref. A non-zero ctr exit code is returned as [ErrPull].
func (p *CommandPuller) Pull(ctx context.Context, ref string) error {
	ctr := p.Ctr
	if ctr == "" {
		ctr = DefaultCtr
	}

	code, err := p.Runner.Run(ctx, ctr, p.args(ref)...)
	if err != nil {
		return fault.Wrap(ErrPull, err)
	}
	if code != 0 {
		return fault.Wrapf(ErrPull, "%s exited with code %d pulling %s", ctr, code, ref)
	}
	return nil
}

// Returns the ctr arguments that pull ref.
func (p *CommandPuller) args(ref string) []string {
	snapshotter := p.Snapshotter
	if snapshotter == "" {
		snapshotter = DefaultSnapshotter
	}
	platform := p.Platform
	if platform == "" {
		platform = defaultPlatform()
	}

	return []string{
		"--address", p.Address,
		"--namespace", p.Namespace,
		"images", "pull",
		"--snapshotter", snapshotter,
		"--platform", platform,
		ref,
	}
}
