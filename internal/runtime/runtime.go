package runtime

import (
	"context"
	goruntime "runtime"

	containerd "github.com/containerd/containerd/v2/client"
	"github.com/containerd/errdefs"
	"github.com/containerd/platforms"
	"github.com/zmkbuild/zmkbuild/internal/fault"
)

const (

	// Snapshotter used when none is configured.
	DefaultSnapshotter = "overlayfs"

	// OCI runtime shim for running containers.
	ociRuntime = "io.containerd.runc.v2"
)

// Connection and image settings for a [Runtime].
type Config struct {
	Address     string // Containerd socket address.
	Namespace   string // Containerd namespace scoping images and containers.
	Snapshotter string // Snapshotter for container filesystems. Empty uses [DefaultSnapshotter].
	Platform    string // OCI platform, e.g. "linux/amd64". Empty uses the host platform.
}

// Manages the containerd client and provides image and container operations.
type Runtime struct {
	client      *containerd.Client // Containerd client for managing containers and images.
	snapshotter string             // Snapshotter for container filesystems.
	platform    string             // OCI platform for image selection and container specs.
}

// Creates a runtime connected to the containerd socket in cfg.
//
// The runtime must be closed when no longer needed.
func New(cfg Config) (*Runtime, error) {
	client, err := containerd.New(cfg.Address, containerd.WithDefaultNamespace(cfg.Namespace))
	if err != nil {
		return nil, fault.Wrap(ErrRuntime, err)
	}

	rt := &Runtime{
		client:      client,
		snapshotter: cfg.Snapshotter,
		platform:    cfg.Platform,
	}
	if rt.snapshotter == "" {
		rt.snapshotter = DefaultSnapshotter
	}
	if rt.platform == "" {
		rt.platform = defaultPlatform()
	}
	return rt, nil
}

// Closes the containerd client connection.
func (rt *Runtime) Close() error {
	return rt.client.Close()
}

// Reports whether an image with the given reference is stored locally.
func (rt *Runtime) HasImage(ctx context.Context, ref string) (bool, error) {
	if _, err := rt.client.ImageService().Get(ctx, ref); err != nil {
		if errdefs.IsNotFound(err) {
			return false, nil
		}
		return false, fault.Wrap(ErrRuntime, err)
	}
	return true, nil
}

// Looks up a stored image and selects the manifest for the runtime's
// platform.
func (rt *Runtime) resolveImage(ctx context.Context, ref string) (containerd.Image, error) {
	p, err := platforms.Parse(rt.platform)
	if err != nil {
		return nil, err
	}

	img, err := rt.client.ImageService().Get(ctx, ref)
	if err != nil {
		return nil, err
	}

	return containerd.NewImageWithPlatform(rt.client, img, platforms.Only(p)), nil
}

// Unpacks the image layers into the snapshotter unless already present.
//
// Images pulled with a different snapshotter are not usable until unpacked
// for this one.
func (rt *Runtime) ensureUnpacked(ctx context.Context, image containerd.Image) error {
	unpacked, err := image.IsUnpacked(ctx, rt.snapshotter)
	if err != nil {
		return err
	}
	if unpacked {
		return nil
	}
	return image.Unpack(ctx, rt.snapshotter)
}

// Returns the default OCI platform for the host architecture.
func defaultPlatform() string {
	return "linux/" + goruntime.GOARCH
}
