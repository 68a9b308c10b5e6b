// Package runtime manages persistent build containers backed by containerd.
//
// A [Runtime] connects to a containerd daemon and implements the container
// primitives the build needs: querying a container's [State] by name,
// creating a detached container with the workspace bind-mounted at the same
// path, starting, stopping and removing it, and executing commands inside it
// with output streamed to a writer. Images are fetched by a [CommandPuller],
// which shells out to ctr so that pull progress is visible on the console.
//
// Containers are long-lived: their primary task runs "sleep infinity" so that
// every build command is attached as an additional exec process.
//
// Example usage:
//
//	rt, err := runtime.New(runtime.Config{
//	    Address:   "/run/containerd/containerd.sock",
//	    Namespace: "zmkbuild",
//	})
//	if err != nil {
//	    return err
//	}
//	defer rt.Close()
//
//	err = rt.Create(ctx, runtime.ContainerSpec{
//	    Name:  "zmk-config",
//	    Image: "docker.io/zmkfirmware/zmk-dev-arm:3.5",
//	    Mount: "/home/me/zmk-config/zmk_work",
//	})
//	if err != nil {
//	    return err
//	}
//
//	code, err := rt.Exec(ctx, "zmk-config", runtime.Process{
//	    Args: []string{"west", "update"},
//	    Dir:  "/home/me/zmk-config/zmk_work/zmk",
//	}, os.Stdout)
package runtime
