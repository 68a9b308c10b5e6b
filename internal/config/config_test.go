package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zmkbuild/zmkbuild/internal/build"
	"github.com/zmkbuild/zmkbuild/internal/container"
	"github.com/zmkbuild/zmkbuild/internal/runtime"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefaultsAreValid(t *testing.T) {
	cfg := Defaults()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, DefaultImage, cfg.Image)
	assert.Equal(t, DefaultWorkDir, cfg.WorkDir)
	assert.Equal(t, DefaultStartTimeout, cfg.StartTimeout)
}

func TestDefaultsFollowOwningPackages(t *testing.T) {
	cfg := Defaults()
	assert.Equal(t, runtime.DefaultSnapshotter, cfg.Containerd.Snapshotter)
	assert.Equal(t, runtime.DefaultCtr, cfg.Ctr)
	assert.Equal(t, build.DefaultWest, cfg.West)
	assert.Equal(t, build.DefaultWorkDir, cfg.WorkDir)
	assert.Equal(t, build.DefaultArtifactPath, cfg.ArtifactPath)
	assert.Equal(t, container.DefaultStartTimeout, cfg.StartTimeout)
	assert.Equal(t, container.DefaultPollInterval, cfg.PollInterval)
}

func TestMergeFileOverlaysDefaults(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.yaml", `
image: example.com/zmk:latest
containerd:
  namespace: keyboards
start_timeout: 2m
env:
  - CCACHE_DIR=/ccache
`)

	cfg := Defaults()
	require.NoError(t, mergeFile(&cfg, path, true))

	assert.Equal(t, "example.com/zmk:latest", cfg.Image)
	assert.Equal(t, "keyboards", cfg.Containerd.Namespace)
	assert.Equal(t, DefaultSnapshotter, cfg.Containerd.Snapshotter)
	assert.Equal(t, 2*time.Minute, cfg.StartTimeout)
	assert.Equal(t, DefaultPollInterval, cfg.PollInterval)
	assert.Equal(t, []string{"CCACHE_DIR=/ccache"}, cfg.Env)
}

func TestMergeFileMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.yaml")

	cfg := Defaults()
	require.NoError(t, mergeFile(&cfg, path, false))
	assert.Equal(t, Defaults(), cfg)

	err := mergeFile(&cfg, path, true)
	assert.ErrorIs(t, err, ErrConfig)
}

func TestMergeFileMalformed(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.yaml", "image: [unclosed\n")

	cfg := Defaults()
	err := mergeFile(&cfg, path, true)
	assert.ErrorIs(t, err, ErrConfig)
	assert.Contains(t, err.Error(), path)
}

func TestMergeEnv(t *testing.T) {
	vars := map[string]string{
		"ZMKBUILD_IMAGE":                "example.com/zmk:env",
		"ZMKBUILD_CONTAINERD_NAMESPACE": "envns",
		"ZMKBUILD_START_TIMEOUT":        "90s",
		"ZMKBUILD_POLL_INTERVAL":        "soon",
		"ZMKBUILD_ENV":                  "A=1 B=2",
		"ZMKBUILD_WEST":                 "",
	}
	lookup := func(key string) (string, bool) {
		v, ok := vars[key]
		return v, ok
	}

	cfg := Defaults()
	mergeEnv(&cfg, lookup)

	assert.Equal(t, "example.com/zmk:env", cfg.Image)
	assert.Equal(t, "envns", cfg.Containerd.Namespace)
	assert.Equal(t, 90*time.Second, cfg.StartTimeout)
	assert.Equal(t, DefaultPollInterval, cfg.PollInterval, "invalid duration is ignored")
	assert.Equal(t, []string{"A=1", "B=2"}, cfg.Env)
	assert.Equal(t, DefaultWest, cfg.West, "empty value is ignored")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"empty image", func(c *Config) { c.Image = "" }},
		{"blank namespace", func(c *Config) { c.Containerd.Namespace = "  " }},
		{"empty west", func(c *Config) { c.West = "" }},
		{"nested work dir", func(c *Config) { c.WorkDir = "a/b" }},
		{"parent work dir", func(c *Config) { c.WorkDir = ".." }},
		{"zero start timeout", func(c *Config) { c.StartTimeout = 0 }},
		{"negative poll interval", func(c *Config) { c.PollInterval = -time.Second }},
		{"env without separator", func(c *Config) { c.Env = []string{"NOVALUE"} }},
		{"env without key", func(c *Config) { c.Env = []string{"=x"} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.modify(&cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrConfig)
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	path := writeFile(t, dir, "zmkbuild.yaml", "image: example.com/zmk:file\nwest: /opt/west\n")
	writeFile(t, dir, ".env", "ZMKBUILD_WEST=/usr/local/bin/west\n")

	// Registers cleanup that unsets the variable loaded from .env.
	t.Setenv("ZMKBUILD_WEST", "")
	require.NoError(t, os.Unsetenv("ZMKBUILD_WEST"))
	t.Setenv("ZMKBUILD_IMAGE", "example.com/zmk:env")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "example.com/zmk:env", cfg.Image)
	assert.Equal(t, "/usr/local/bin/west", cfg.West)
}

func TestLoadExplicitMissing(t *testing.T) {
	t.Chdir(t.TempDir())

	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.ErrorIs(t, err, ErrConfig)
}

func TestLoadInvalid(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := writeFile(t, dir, "config.yaml", "start_timeout: -1s\n")

	_, err := Load(path)
	assert.ErrorIs(t, err, ErrConfig)
}
