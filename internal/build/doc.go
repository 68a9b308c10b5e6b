// Package build orchestrates firmware builds for a ZMK config project.
//
// A project is the directory holding a build manifest (build.yaml) next to
// its config/ and boards/ directories. The orchestrator keeps a workspace
// under the project, bind-mounted into a long-lived toolchain container:
//
//	<project>/zmk_work/               workspace top, container mount
//	<project>/zmk_work/zmk/           west workspace (firmware checkout)
//	<project>/zmk_work/zmk/config/    overlay of <project>/config
//	<project>/zmk_work/zmk/config/boards/  overlay of <project>/boards
//	<project>/zmk_work/zmk/build/<shield>/ per-shield build output
//	<project>/zmk_work/<shield>.uf2   collected artifacts
//
// A run executes up to three phases in fixed order. Init recreates the
// container and the west workspace, update fetches the firmware sources,
// and build compiles every target listed in the manifest. Init and update
// only run when requested; init implies update.
//
// Example usage:
//
//	result, err := build.Run(ctx, []string{"build.yaml"}, build.Options{
//	    Engine: rt,
//	    Puller: puller,
//	    Image:  "docker.io/zmkfirmware/zmk-dev-arm:3.5",
//	})
//	if err != nil {
//	    return err
//	}
package build
