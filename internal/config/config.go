package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/zmkbuild/zmkbuild/internal/build"
	"github.com/zmkbuild/zmkbuild/internal/container"
	"github.com/zmkbuild/zmkbuild/internal/fault"
	"github.com/zmkbuild/zmkbuild/internal/paths"
	"github.com/zmkbuild/zmkbuild/internal/runtime"
	"gopkg.in/yaml.v3"
)

// Returned for unreadable, malformed or invalid configuration.
var ErrConfig = errors.New("invalid configuration")

// Prefix of environment variables that override settings.
const envPrefix = "ZMKBUILD_"

// Defaults.
const (
	DefaultImage        = "docker.io/zmkfirmware/zmk-dev-arm:3.5"
	DefaultNamespace    = "zmkbuild"
	DefaultSnapshotter  = runtime.DefaultSnapshotter
	DefaultCtr          = runtime.DefaultCtr
	DefaultWest         = build.DefaultWest
	DefaultWorkDir      = build.DefaultWorkDir
	DefaultArtifactPath = build.DefaultArtifactPath
	DefaultStartTimeout = container.DefaultStartTimeout
	DefaultPollInterval = container.DefaultPollInterval
)

// All zmkbuild settings.
type Config struct {
	Image        string        `yaml:"image"`         // Toolchain image reference.
	Containerd   Containerd    `yaml:"containerd"`    // Container runtime connection.
	Ctr          string        `yaml:"ctr"`           // ctr binary used for image pulls.
	West         string        `yaml:"west"`          // west binary inside the container.
	WorkDir      string        `yaml:"work_dir"`      // Workspace directory name, relative to the project.
	ArtifactPath string        `yaml:"artifact_path"` // Artifact path relative to a shield's build directory.
	StartTimeout time.Duration `yaml:"start_timeout"` // Bound on waiting for the container to run.
	PollInterval time.Duration `yaml:"poll_interval"` // Interval between container state checks.
	Env          []string      `yaml:"env"`           // Extra container environment, "KEY=value".
}

// Containerd connection settings.
type Containerd struct {
	Address     string `yaml:"address"`     // Socket address.
	Namespace   string `yaml:"namespace"`   // Namespace for images and containers.
	Snapshotter string `yaml:"snapshotter"` // Snapshotter for container filesystems.
	Platform    string `yaml:"platform"`    // OCI platform; empty selects the host platform.
}

// Returns the built-in defaults.
func Defaults() Config {
	return Config{
		Image: DefaultImage,
		Containerd: Containerd{
			Address:     paths.ContainerdSocket(),
			Namespace:   DefaultNamespace,
			Snapshotter: DefaultSnapshotter,
		},
		Ctr:          DefaultCtr,
		West:         DefaultWest,
		WorkDir:      DefaultWorkDir,
		ArtifactPath: DefaultArtifactPath,
		StartTimeout: DefaultStartTimeout,
		PollInterval: DefaultPollInterval,
	}
}

// Loads settings from defaults, the config file, .env and the environment.
//
// An empty path selects the default config file, which may be absent. An
// explicitly given path must exist. The result is validated.
func Load(path string) (Config, error) {
	cfg := Defaults()

	explicit := path != ""
	if !explicit {
		path = paths.ConfigFile()
	}

	if err := mergeFile(&cfg, path, explicit); err != nil {
		return Config{}, err
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("failed to load .env file", "error", err)
	}

	mergeEnv(&cfg, os.LookupEnv)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Overlays the YAML file at path onto cfg. Fields absent from the file keep
// their current values. A missing file is an error only when required.
func mergeFile(cfg *Config, path string, required bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !required {
			return nil
		}
		return fault.Wrap(ErrConfig, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fault.Wrapf(ErrConfig, "%s: %w", path, err)
	}

	slog.Debug("loaded config file", "path", path)
	return nil
}

// Overlays ZMKBUILD_* variables onto cfg. Unparseable durations are logged
// and ignored.
func mergeEnv(cfg *Config, lookup func(string) (string, bool)) {
	str := func(key string, dst *string) {
		if v, ok := lookup(envPrefix + key); ok && v != "" {
			*dst = v
		}
	}
	dur := func(key string, dst *time.Duration) {
		v, ok := lookup(envPrefix + key)
		if !ok || v == "" {
			return
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			slog.Warn("ignoring invalid duration", "variable", envPrefix+key, "value", v)
			return
		}
		*dst = d
	}

	str("IMAGE", &cfg.Image)
	str("CONTAINERD_ADDRESS", &cfg.Containerd.Address)
	str("CONTAINERD_NAMESPACE", &cfg.Containerd.Namespace)
	str("SNAPSHOTTER", &cfg.Containerd.Snapshotter)
	str("PLATFORM", &cfg.Containerd.Platform)
	str("CTR", &cfg.Ctr)
	str("WEST", &cfg.West)
	str("WORK_DIR", &cfg.WorkDir)
	str("ARTIFACT_PATH", &cfg.ArtifactPath)
	dur("START_TIMEOUT", &cfg.StartTimeout)
	dur("POLL_INTERVAL", &cfg.PollInterval)

	if v, ok := lookup(envPrefix + "ENV"); ok && v != "" {
		cfg.Env = strings.Fields(v)
	}
}

// Checks that required settings are present and well-formed.
func (c Config) Validate() error {
	required := map[string]string{
		"image":                c.Image,
		"containerd.address":   c.Containerd.Address,
		"containerd.namespace": c.Containerd.Namespace,
		"ctr":                  c.Ctr,
		"west":                 c.West,
		"work_dir":             c.WorkDir,
		"artifact_path":        c.ArtifactPath,
	}
	for name, v := range required {
		if strings.TrimSpace(v) == "" {
			return fault.Wrapf(ErrConfig, "%s must not be empty", name)
		}
	}

	if strings.ContainsAny(c.WorkDir, `/\`) || c.WorkDir == "." || c.WorkDir == ".." {
		return fault.Wrapf(ErrConfig, "work_dir %q must be a plain directory name", c.WorkDir)
	}
	if c.StartTimeout <= 0 {
		return fault.Wrapf(ErrConfig, "start_timeout must be positive, got %s", c.StartTimeout)
	}
	if c.PollInterval <= 0 {
		return fault.Wrapf(ErrConfig, "poll_interval must be positive, got %s", c.PollInterval)
	}
	for _, kv := range c.Env {
		if k, _, ok := strings.Cut(kv, "="); !ok || k == "" {
			return fault.Wrapf(ErrConfig, "env entry %q is not KEY=value", kv)
		}
	}
	return nil
}
