package cli

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/zmkbuild/zmkbuild/internal"
	"github.com/zmkbuild/zmkbuild/internal/build"
	"github.com/zmkbuild/zmkbuild/internal/config"
	"github.com/zmkbuild/zmkbuild/internal/container"
)

// Represents the 'zmkbuild build' command.
type BuildCmd struct {
	Manifests []string `arg:"" name:"manifest" type:"existingfile" help:"Build manifest (build.yaml)."`
	Init      bool     `help:"Recreate the container and the west workspace. Implies --update."`
	Update    bool     `help:"Run west update before building."`
	Pristine  bool     `short:"p" name:"prinstine" aliases:"pristine" help:"Always do a pristine build."`
}

// Executes the build command.
func (c *BuildCmd) Run(ctx context.Context) error {
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
	opts.Init = c.Init
	opts.Update = c.Update
	opts.Pristine = c.Pristine

	result, err := build.Run(ctx, c.Manifests, opts)
	if err != nil {
		return err
	}

	for _, a := range result.Artifacts {
		slog.Info("firmware", "path", a)
	}
	return nil
}

// Maps settings onto build options.
func buildOptions(cfg config.Config, engine container.Engine, puller container.Puller) build.Options {
	return build.Options{
		Engine:       engine,
		Puller:       puller,
		Image:        cfg.Image,
		Env:          cfg.Env,
		West:         cfg.West,
		WorkDir:      cfg.WorkDir,
		ArtifactPath: cfg.ArtifactPath,
		StartTimeout: cfg.StartTimeout,
		PollInterval: cfg.PollInterval,
		Stdout:       os.Stdout,
		Progress:     progressWriter(),
	}
}

// Progress bars go to stderr when it is a terminal and output is not quiet.
func progressWriter() io.Writer {
	if internal.IsQuiet() || !isTerminal(os.Stderr) {
		return nil
	}
	return os.Stderr
}
