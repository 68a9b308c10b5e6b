package cli

import (
	"context"
	"log/slog"

	"github.com/zmkbuild/zmkbuild/internal/build"
	"github.com/zmkbuild/zmkbuild/internal/container"
)

// Represents the 'zmkbuild destroy' command.
type DestroyCmd struct {
	Manifests []string `arg:"" name:"manifest" type:"existingfile" help:"Build manifest (build.yaml)."`
}

// Executes the destroy command.
//
// The workspace is left in place; only the container is removed.
func (c *DestroyCmd) Run(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	rt, puller, err := openRuntime(cfg)
	if err != nil {
		return err
	}
	defer rt.Close()

	opts := buildOptions(cfg, rt, puller)
	for _, m := range c.Manifests {
		p, err := build.Open(m, opts)
		if err != nil {
			return err
		}
		if err := container.Destroy(ctx, rt, p.Name()); err != nil {
			return err
		}
		slog.Info("container removed", "name", p.Name())
	}
	return nil
}
