// Package config loads zmkbuild settings.
//
// Settings are layered, later sources overriding earlier ones:
//
//  1. built-in defaults ([Defaults]);
//  2. the YAML config file, by default $XDG_CONFIG_HOME/zmkbuild/config.yaml;
//  3. a .env file in the working directory, if present;
//  4. ZMKBUILD_* environment variables.
//
// Command-line flags are applied on top by the cli package.
//
// Example config.yaml:
//
//	image: docker.io/zmkfirmware/zmk-dev-arm:3.5
//	containerd:
//	  address: /run/containerd/containerd.sock
//	  namespace: zmkbuild
//	start_timeout: 2m
//	env:
//	  - CCACHE_DIR=/work/.ccache
package config
