package paths

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

const (

	// Name used for directory and file naming.
	toolName = "zmkbuild"

	// Default permission mode for directories.
	DefaultDirMode os.FileMode = 0755

	// Default permission mode for files.
	DefaultFileMode os.FileMode = 0644
)

// Path to the user configuration directory.
//
//	Linux:   $XDG_CONFIG_HOME/zmkbuild or ~/.config/zmkbuild
//	macOS:   ~/Library/Application Support/zmkbuild
func ConfigDir() string {
	return filepath.Join(xdg.ConfigHome, toolName)
}

// Default path to the user configuration file.
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// Default containerd socket address.
//
// A rootless containerd listens under the user's runtime directory; when
// that socket exists it is preferred over the system-wide socket.
//
//	rootless: $XDG_RUNTIME_DIR/containerd/containerd.sock
//	system:   /run/containerd/containerd.sock
func ContainerdSocket() string {
	if xdg.RuntimeDir != "" {
		rootless := filepath.Join(xdg.RuntimeDir, "containerd", "containerd.sock")
		if _, err := os.Stat(rootless); err == nil {
			return rootless
		}
	}
	return "/run/containerd/containerd.sock"
}
