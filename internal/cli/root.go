package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/zmkbuild/zmkbuild/internal"
	"github.com/zmkbuild/zmkbuild/internal/command"
	"github.com/zmkbuild/zmkbuild/internal/config"
	"github.com/zmkbuild/zmkbuild/internal/paths"
	"github.com/zmkbuild/zmkbuild/internal/runtime"
)

// Represents the root command for zmkbuild.
var RootCmd struct {
	Quiet     bool       `short:"q" help:"Suppress informational output."`
	Verbose   bool       `short:"v" help:"Enable verbose output."`
	Debug     bool       `short:"d" help:"Enable debug output."`
	Config    string     `type:"path" help:"Config file (default: ${config_file})." placeholder:"PATH"`
	Image     string     `help:"Override the toolchain image." placeholder:"REF"`
	Address   string     `help:"Override the containerd socket address." placeholder:"PATH"`
	Namespace string     `help:"Override the containerd namespace." placeholder:"NAME"`
	Build     BuildCmd   `cmd:"" default:"withargs" help:"Build firmware for each manifest."`
	Destroy   DestroyCmd `cmd:"" help:"Stop and remove project containers."`
	Status    StatusCmd  `cmd:"" help:"Show container state and collected firmware."`
	Version   VersionCmd `cmd:"" help:"Show version information."`
}

// Parses arguments, configures logging, and runs the selected subcommand.
func Execute() error {

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	kongCtx := kong.Parse(&RootCmd,
		kong.Name(internal.Name),
		kong.Description("Builds ZMK keyboard firmware in a containerized toolchain.\n\nReads build.yaml manifests and runs west once per board and shield."),
		kong.UsageOnError(),
		kong.Vars{
			"version":     internal.VersionString(),
			"config_file": paths.ConfigFile(),
		},
		kong.BindTo(ctx, (*context.Context)(nil)),
	)

	configureLogger()

	return kongCtx.Run()
}

// Loads settings and applies global flag overrides.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(RootCmd.Config)
	if err != nil {
		return config.Config{}, err
	}

	if RootCmd.Image != "" {
		cfg.Image = RootCmd.Image
	}
	if RootCmd.Address != "" {
		cfg.Containerd.Address = RootCmd.Address
	}
	if RootCmd.Namespace != "" {
		cfg.Containerd.Namespace = RootCmd.Namespace
	}

	return cfg, cfg.Validate()
}

// Connects to containerd and returns the runtime with its image puller.
func openRuntime(cfg config.Config) (*runtime.Runtime, *runtime.CommandPuller, error) {
	rt, err := runtime.New(runtime.Config{
		Address:     cfg.Containerd.Address,
		Namespace:   cfg.Containerd.Namespace,
		Snapshotter: cfg.Containerd.Snapshotter,
		Platform:    cfg.Containerd.Platform,
	})
	if err != nil {
		return nil, nil, err
	}

	puller := &runtime.CommandPuller{
		Runner:      &command.Runner{Stdout: os.Stdout},
		Ctr:         cfg.Ctr,
		Address:     cfg.Containerd.Address,
		Namespace:   cfg.Containerd.Namespace,
		Snapshotter: cfg.Containerd.Snapshotter,
		Platform:    cfg.Containerd.Platform,
	}

	return rt, puller, nil
}
