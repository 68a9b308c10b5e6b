// Provides platform-appropriate paths for zmkbuild.
//
// Paths follow XDG conventions on Linux and platform-native conventions on
// macOS. The tool name "zmkbuild" is used as the subdirectory under each base
// path.
package paths
