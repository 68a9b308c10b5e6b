package build

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/zmkbuild/zmkbuild/internal/console"
	"github.com/zmkbuild/zmkbuild/internal/container"
	"github.com/zmkbuild/zmkbuild/internal/fault"
	"github.com/zmkbuild/zmkbuild/internal/manifest"
	"github.com/zmkbuild/zmkbuild/internal/paths"
)

// Recreates the container and the west workspace.
//
// Files in an existing checkout belong to the container user, so their
// permissions are relaxed from inside the container before removal.
func (p *Project) init(ctx context.Context) error {
	slog.Info("initializing workspace", "dir", p.work)

	h, err := p.ensure(ctx, true)
	if err != nil {
		return err
	}

	if exists(p.work) {
		if err := h.Relax(ctx, p.work); err != nil {
			return err
		}
		if err := os.RemoveAll(p.work); err != nil {
			return fault.Wrap(ErrFileSystemOperation, err)
		}
	}

	if err := os.MkdirAll(p.work, paths.DefaultDirMode); err != nil {
		return fault.Wrap(ErrFileSystemOperation, err)
	}

	if err := p.sync("config", p.config, p.wconfig); err != nil {
		return err
	}

	return p.west(ctx, h, "init", "-l", p.wconfig)
}

// Fetches the firmware sources listed in the west manifest.
func (p *Project) update(ctx context.Context) error {
	slog.Info("updating workspace", "dir", p.work)

	h, err := p.ensure(ctx, false)
	if err != nil {
		return err
	}

	if err := p.sync("config", p.config, p.wconfig); err != nil {
		return err
	}

	return p.west(ctx, h, "update")
}

// Builds every manifest target in order.
//
// The first target whose build fails or leaves no artifact aborts the run;
// later targets are not attempted.
func (p *Project) build(ctx context.Context) (*Result, error) {
	h, err := p.ensure(ctx, false)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(p.wbuild, paths.DefaultDirMode); err != nil {
		return nil, fault.Wrap(ErrFileSystemOperation, err)
	}

	if err := p.west(ctx, h, "zephyr-export"); err != nil {
		return nil, err
	}

	if err := p.sync("boards", p.boards, p.wboards); err != nil {
		return nil, err
	}

	targets, err := manifest.Load(p.manifest)
	if err != nil {
		return nil, err
	}
	slog.Info("build list", "targets", len(targets))

	result := &Result{}
	for _, t := range targets {
		artifact, err := p.buildTarget(ctx, h, t)
		if err != nil {
			return nil, fault.Wrapf(ErrBuild, "%s: %w", t, err)
		}
		result.Artifacts = append(result.Artifacts, artifact)
	}

	return result, nil
}

// Builds one target and collects its artifact.
func (p *Project) buildTarget(ctx context.Context, h *container.Handle, t manifest.Target) (string, error) {
	attrs := []any{"board", t.Board, "shield", t.Shield}
	if t.Snippet != "" {
		attrs = append(attrs, "snippet", t.Snippet)
	}
	if t.CMakeArgs != "" {
		attrs = append(attrs, "cmake_args", t.CMakeArgs)
	}
	slog.Info("building target", attrs...)

	outdir := filepath.Join(p.wbuild, t.Shield)
	args, err := westBuild(p.opts.West, westBuildParams{
		App:      p.app,
		Config:   p.wconfig,
		Outdir:   outdir,
		Target:   t,
		Pristine: p.opts.Pristine,
	})
	if err != nil {
		return "", err
	}

	src := filepath.Join(outdir, filepath.FromSlash(p.opts.ArtifactPath))
	dst := filepath.Join(p.top, t.Shield+".uf2")

	// Artifacts left by an earlier run must not pass for this build's output.
	for _, stale := range []string{src, dst} {
		if err := os.Remove(stale); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return "", fault.Wrap(ErrFileSystemOperation, err)
		}
	}

	code, err := h.Exec(ctx, p.work, args...)
	if err != nil {
		return "", err
	}

	if exists(outdir) {
		if err := h.Relax(ctx, outdir); err != nil {
			return "", err
		}
	}

	if code != 0 {
		return "", fault.Wrapf(ErrToolchain, "%s exited with code %d", console.CommandLine(args), code)
	}

	if err := copyFile(src, dst); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			slog.Error("uf2 not found", "path", src)
			return "", fault.Wrapf(ErrArtifactMissing, "%s", src)
		}
		return "", fault.Wrap(ErrFileSystemOperation, err)
	}

	slog.Info("collected artifact", "path", dst)
	return dst, nil
}

// Runs west in the workspace. A non-zero exit code is an [ErrToolchain].
func (p *Project) west(ctx context.Context, h *container.Handle, args ...string) error {
	argv := append([]string{p.opts.West}, args...)

	code, err := h.Exec(ctx, p.work, argv...)
	if err != nil {
		return err
	}
	if code != 0 {
		return fault.Wrapf(ErrToolchain, "%s exited with code %d", console.CommandLine(argv), code)
	}
	return nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
