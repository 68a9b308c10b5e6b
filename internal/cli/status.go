package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/zmkbuild/zmkbuild/internal/build"
	"github.com/zmkbuild/zmkbuild/internal/container"
)

// Represents the 'zmkbuild status' command.
type StatusCmd struct {
	Manifests []string `arg:"" name:"manifest" type:"existingfile" help:"Build manifest (build.yaml)."`
}

// Executes the status command.
func (c *StatusCmd) Run(ctx context.Context) error {
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
		if err := printStatus(ctx, os.Stdout, rt, p); err != nil {
			return err
		}
	}
	return nil
}

// Writes the container state and collected artifacts of a project:
//
//	zmk-config-corne: running
//	  /home/me/zmk-config-corne/zmk_work/corne_left.uf2
func printStatus(ctx context.Context, w io.Writer, engine container.Engine, p *build.Project) error {
	state, err := container.Inspect(ctx, engine, p.Name())
	if err != nil {
		return err
	}

	artifacts, err := p.Artifacts()
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "%s: %s\n", p.Name(), state)
	for _, a := range artifacts {
		fmt.Fprintf(w, "  %s\n", a)
	}
	return nil
}
