// Parses flags and configures logging for the zmkbuild command.
//
// Global flags:
//
//	-q, --quiet         Suppress informational output.
//	-v, --verbose       Enable verbose output.
//	-d, --debug         Enable debug output.
//	    --config        Config file path.
//	    --image         Toolchain image reference.
//	    --address       Containerd socket address.
//	    --namespace     Containerd namespace.
//
// Flags override build-time defaults set via linker flags and the values
// loaded by the config package. After parsing, the global logger is
// reconfigured to reflect the final level and verbosity before the selected
// command runs. The build command is the default:
//
//	zmkbuild keyboards/corne/build.yaml --update -p
package cli
