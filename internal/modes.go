package internal

import (
	"strconv"
	"sync/atomic"
)

// Name of the executable, used for the logging group, the config directory
// and kong usage output.
const Name = "zmkbuild"

var (
	rawQuiet   = "false" // Linker default for quiet mode.
	rawDebug   = "false" // Linker default for debug mode.
	rawVerbose = "false" // Linker default for verbose output.
)

var (
	quietMode   atomic.Bool
	debugMode   atomic.Bool
	verboseMode atomic.Bool
)

// Seeds the output modes from linker flags. Unparseable values are ignored
// and leave the mode disabled.
func init() {
	seed(&quietMode, rawQuiet)
	seed(&debugMode, rawDebug)
	seed(&verboseMode, rawVerbose)
}

func seed(mode *atomic.Bool, raw string) {
	if v, err := strconv.ParseBool(raw); err == nil {
		mode.Store(v)
	}
}

// Enables or disables quiet mode.
func SetQuiet(enabled bool) { quietMode.Store(enabled) }

// Returns true if quiet mode is enabled.
func IsQuiet() bool { return quietMode.Load() }

// Enables or disables debug mode.
func SetDebug(enabled bool) { debugMode.Store(enabled) }

// Returns true if debug mode is enabled.
func IsDebug() bool { return debugMode.Load() }

// Enables or disables verbose output.
func SetVerbose(enabled bool) { verboseMode.Store(enabled) }

// Returns true if verbose output is enabled.
func IsVerbose() bool { return verboseMode.Load() }
