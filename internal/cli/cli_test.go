package cli

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zmkbuild/zmkbuild/internal/build"
	"github.com/zmkbuild/zmkbuild/internal/config"
	"github.com/zmkbuild/zmkbuild/internal/container/containertest"
	"github.com/zmkbuild/zmkbuild/internal/runtime"
)

// Parses args into a fresh RootCmd.
func parse(t *testing.T, args ...string) *kong.Context {
	t.Helper()

	saved := RootCmd
	t.Cleanup(func() { RootCmd = saved })

	parser, err := kong.New(&RootCmd,
		kong.Name("zmkbuild"),
		kong.Vars{"version": "test", "config_file": "config.yaml"},
	)
	require.NoError(t, err)

	kctx, err := parser.Parse(args)
	require.NoError(t, err)
	return kctx
}

func manifestFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "build.yaml")
	require.NoError(t, os.WriteFile(path, []byte("include: []\n"), 0644))
	return path
}

func TestBuildIsDefaultCommand(t *testing.T) {
	m := manifestFile(t)

	kctx := parse(t, m, "--update", "-p")
	assert.Equal(t, "build <manifest>", kctx.Command())
	assert.Equal(t, []string{m}, RootCmd.Build.Manifests)
	assert.True(t, RootCmd.Build.Update)
	assert.True(t, RootCmd.Build.Pristine)
	assert.False(t, RootCmd.Build.Init)
}

func TestBuildFlags(t *testing.T) {
	m := manifestFile(t)

	parse(t, "build", m, m, "--init", "--prinstine")
	assert.Equal(t, []string{m, m}, RootCmd.Build.Manifests)
	assert.True(t, RootCmd.Build.Init)
	assert.True(t, RootCmd.Build.Pristine)

	parse(t, "build", m, "--pristine")
	assert.True(t, RootCmd.Build.Pristine)
}

func TestGlobalFlags(t *testing.T) {
	m := manifestFile(t)

	parse(t, "-d", "--image", "example.com/zmk:dev", "--namespace", "kb", "status", m)
	assert.True(t, RootCmd.Debug)
	assert.Equal(t, "example.com/zmk:dev", RootCmd.Image)
	assert.Equal(t, "kb", RootCmd.Namespace)
	assert.Equal(t, []string{m}, RootCmd.Status.Manifests)
}

func TestBuildRequiresExistingManifest(t *testing.T) {
	saved := RootCmd
	t.Cleanup(func() { RootCmd = saved })

	parser, err := kong.New(&RootCmd, kong.Vars{"version": "test", "config_file": "config.yaml"})
	require.NoError(t, err)

	_, err = parser.Parse([]string{"build", filepath.Join(t.TempDir(), "absent.yaml")})
	assert.Error(t, err)
}

func TestLoadConfigAppliesOverrides(t *testing.T) {
	saved := RootCmd
	t.Cleanup(func() { RootCmd = saved })
	t.Chdir(t.TempDir())

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("image: example.com/zmk:file\n"), 0644))

	RootCmd.Config = path
	RootCmd.Address = "/tmp/containerd.sock"

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "example.com/zmk:file", cfg.Image)
	assert.Equal(t, "/tmp/containerd.sock", cfg.Containerd.Address)

	RootCmd.Image = "example.com/zmk:flag"
	cfg, err = loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "example.com/zmk:flag", cfg.Image)
}

func TestBuildOptions(t *testing.T) {
	cfg := config.Defaults()
	cfg.Env = []string{"A=1"}
	engine := containertest.NewEngine()
	puller := &containertest.Puller{Engine: engine}

	opts := buildOptions(cfg, engine, puller)
	assert.Equal(t, cfg.Image, opts.Image)
	assert.Equal(t, cfg.WorkDir, opts.WorkDir)
	assert.Equal(t, cfg.StartTimeout, opts.StartTimeout)
	assert.Equal(t, []string{"A=1"}, opts.Env)
	assert.Same(t, engine, opts.Engine)
}

func TestPrintStatus(t *testing.T) {
	root := filepath.Join(t.TempDir(), "zmk-config-corne")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "zmk_work"), 0755))
	uf2 := filepath.Join(root, "zmk_work", "corne_left.uf2")
	require.NoError(t, os.WriteFile(uf2, []byte("uf2"), 0644))

	p, err := build.Open(filepath.Join(root, "build.yaml"), build.Options{})
	require.NoError(t, err)

	engine := containertest.NewEngine()
	engine.Add(runtime.ContainerSpec{Name: "zmk-config-corne"}, runtime.StateExited)

	var buf bytes.Buffer
	require.NoError(t, printStatus(context.Background(), &buf, engine, p))
	assert.Equal(t, "zmk-config-corne: exited\n  "+uf2+"\n", buf.String())
}

func TestLogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, logLevel(true, true))
	assert.Equal(t, slog.LevelWarn, logLevel(false, true))
	assert.Equal(t, slog.LevelInfo, logLevel(false, false))
}

func TestNewLoggerFollowsLevel(t *testing.T) {
	saved := level.Level()
	t.Cleanup(func() { level.Set(saved) })

	var buf bytes.Buffer
	logger := newLogger(&buf, true, false)

	level.Set(slog.LevelWarn)
	logger.Info("hidden")
	assert.Empty(t, buf.String())

	level.Set(slog.LevelInfo)
	logger.Info("shown", "key", "value")
	assert.Contains(t, buf.String(), "msg=shown key=value")
}

func TestVersionShortFlag(t *testing.T) {
	parse(t, "version", "--short")
	assert.True(t, RootCmd.Version.Short)
}
