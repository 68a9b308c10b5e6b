package build

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/zmkbuild/zmkbuild/internal/container"
	"github.com/zmkbuild/zmkbuild/internal/fault"
	"github.com/zmkbuild/zmkbuild/internal/paths"
)

const (

	// Default workspace directory name, relative to the project.
	DefaultWorkDir = "zmk_work"

	// Default artifact path, relative to a shield's build directory.
	DefaultArtifactPath = "zephyr/zmk.uf2"

	// Default west binary inside the container.
	DefaultWest = "west"

	// Container name used when the project directory name has no usable characters.
	fallbackName = "zmkbuild"
)

// Controls a build run.
type Options struct {
	Engine       container.Engine // Container runtime.
	Puller       container.Puller // Fetches the toolchain image when missing.
	Image        string           // Toolchain image reference.
	Env          []string         // Extra container environment, "KEY=value".
	West         string           // west binary. Empty uses [DefaultWest].
	WorkDir      string           // Workspace directory name. Empty uses [DefaultWorkDir].
	ArtifactPath string           // Artifact path in a build directory. Empty uses [DefaultArtifactPath].
	StartTimeout time.Duration    // Bound on waiting for the container to run.
	PollInterval time.Duration    // Interval between container state checks.
	Init         bool             // Recreate the container and the west workspace.
	Update       bool             // Run west update.
	Pristine     bool             // Pass -p to west build.
	Stdout       io.Writer        // Toolchain output. Nil writes to os.Stdout.
	Progress     io.Writer        // Sync progress bars. Nil hides them.
}

// Returned after a successful run.
type Result struct {
	Artifacts []string // Collected .uf2 files, in build order.
}

// A ZMK config project and its workspace layout.
type Project struct {
	opts     Options
	manifest string // Absolute path to the build manifest.
	root     string // Project directory, parent of the manifest.
	config   string // <root>/config
	boards   string // <root>/boards
	top      string // Workspace top, mounted into the container.
	work     string // West workspace.
	wconfig  string // Synchronized config directory.
	wboards  string // Synchronized boards directory.
	wbuild   string // Parent of per-shield build directories.
	app      string // ZMK application source directory.
	name     string // Container name.
}

// Resolves the workspace layout of the project owning the manifest at
// manifestPath without touching the file system.
func Open(manifestPath string, opts Options) (*Project, error) {
	opts = withDefaults(opts)

	manifest, err := filepath.Abs(manifestPath)
	if err != nil {
		return nil, fault.Wrap(ErrFileSystemOperation, err)
	}

	root := filepath.Dir(manifest)
	top := filepath.Join(root, opts.WorkDir)
	work := filepath.Join(top, "zmk")
	wconfig := filepath.Join(work, "config")

	return &Project{
		opts:     opts,
		manifest: manifest,
		root:     root,
		config:   filepath.Join(root, "config"),
		boards:   filepath.Join(root, "boards"),
		top:      top,
		work:     work,
		wconfig:  wconfig,
		wboards:  filepath.Join(wconfig, "boards"),
		wbuild:   filepath.Join(work, "build"),
		app:      filepath.Join(work, "zmk", "app"),
		name:     ContainerName(filepath.Base(root)),
	}, nil
}

// Prepares the project owning the manifest at manifestPath for a run.
//
// The project's config/ and boards/ directories must exist; otherwise
// [ErrMissingDirectory] is returned. The workspace directory is added to
// the project's .gitignore and created if missing.
func New(manifestPath string, opts Options) (*Project, error) {
	p, err := Open(manifestPath, opts)
	if err != nil {
		return nil, err
	}

	for _, dir := range []string{p.boards, p.config} {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			return nil, fault.Wrapf(ErrMissingDirectory, "%s", dir)
		}
	}

	if err := addGitignore(filepath.Join(p.root, ".gitignore"), p.opts.WorkDir); err != nil {
		return nil, fault.Wrap(ErrFileSystemOperation, err)
	}

	if err := os.MkdirAll(p.top, paths.DefaultDirMode); err != nil {
		return nil, fault.Wrap(ErrFileSystemOperation, err)
	}

	return p, nil
}

// Returns the container name.
func (p *Project) Name() string {
	return p.name
}

// Returns the workspace top directory.
func (p *Project) Workspace() string {
	return p.top
}

// Returns the paths of .uf2 files collected in the workspace.
func (p *Project) Artifacts() ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(p.top, "*.uf2"))
	if err != nil {
		return nil, fault.Wrap(ErrFileSystemOperation, err)
	}
	return matches, nil
}

// Runs the requested phases: init, then update, then build.
func (p *Project) Run(ctx context.Context) (*Result, error) {
	slog.Info("building project", "manifest", p.manifest, "container", p.name)

	if p.opts.Init {
		if err := p.init(ctx); err != nil {
			return nil, err
		}
	}

	if p.opts.Update || p.opts.Init {
		if err := p.update(ctx); err != nil {
			return nil, err
		}
	}

	return p.build(ctx)
}

// Runs every manifest in order, stopping at the first error.
func Run(ctx context.Context, manifests []string, opts Options) (*Result, error) {
	result := &Result{}
	for _, m := range manifests {
		p, err := New(m, opts)
		if err != nil {
			return nil, err
		}

		r, err := p.Run(ctx)
		if err != nil {
			return nil, fault.Wrapf(ErrBuild, "%s: %w", m, err)
		}
		result.Artifacts = append(result.Artifacts, r.Artifacts...)
	}
	return result, nil
}

// Provisions the project container.
func (p *Project) ensure(ctx context.Context, forceNew bool) (*container.Handle, error) {
	return container.Ensure(ctx, p.opts.Engine, p.opts.Puller, container.Options{
		Name:         p.name,
		Mount:        p.top,
		Image:        p.opts.Image,
		ForceNew:     forceNew,
		Env:          p.opts.Env,
		StartTimeout: p.opts.StartTimeout,
		PollInterval: p.opts.PollInterval,
		Stdout:       p.opts.Stdout,
	})
}

// Derives a container name from a project directory name.
//
// Each run of characters other than ASCII letters and digits becomes a
// single dash, and leading or trailing runs are dropped. The result is a
// valid containerd identifier.
func ContainerName(dir string) string {
	var b strings.Builder
	sep := false
	for _, r := range dir {
		switch {
		case r < 0x80 && (r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9'):
			if sep && b.Len() > 0 {
				b.WriteByte('-')
			}
			sep = false
			b.WriteRune(r)
		default:
			sep = true
		}
	}
	if b.Len() == 0 {
		return fallbackName
	}
	return b.String()
}

func withDefaults(opts Options) Options {
	if opts.West == "" {
		opts.West = DefaultWest
	}
	if opts.WorkDir == "" {
		opts.WorkDir = DefaultWorkDir
	}
	if opts.ArtifactPath == "" {
		opts.ArtifactPath = DefaultArtifactPath
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	return opts
}
