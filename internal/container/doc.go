// Package container keeps one persistent build container per project.
//
// [Ensure] drives a small state machine over the container's lifecycle:
//
//	absent  --create-->  running
//	exited  --start--->  running
//	running ------------ (reused)
//	any     --force----> absent   (stop if running, then remove)
//
// The toolchain image is pulled when missing, and the container is polled
// until it reports running, bounded by a start timeout. The returned
// [Handle] executes commands inside the container with output streamed to
// the console line by line.
//
// The container runtime is reached through the [Engine] interface, which
// runtime.Runtime implements against containerd. Package containertest
// provides an in-memory engine for tests.
//
// Example usage:
//
//	h, err := container.Ensure(ctx, rt, puller, container.Options{
//	    Name:  "zmk-config",
//	    Mount: "/home/me/zmk-config/zmk_work",
//	    Image: "docker.io/zmkfirmware/zmk-dev-arm:3.5",
//	})
//	if err != nil {
//	    return err
//	}
//
//	code, err := h.Exec(ctx, "/home/me/zmk-config/zmk_work/zmk", "west", "update")
package container
