package interfaces

import (
	"context"
	"io"

	"github.com/moby/moby/api/types/container"
	"github.com/moby/moby/api/types/network"
)

// ContainerSpec carries everything the engine needs to create one container.
type ContainerSpec struct {
	Name       string
	Config     *container.Config
	HostConfig *container.HostConfig
	Networking *network.NetworkingConfig
}

// Runtime is the slice of the container-engine API the orchestrator drives.
// The production implementation wraps the Docker Engine client; tests
// substitute in-memory fakes.
type Runtime interface {
	// ContainerExists reports whether any container, running or stopped,
	// carries the given name.
	ContainerExists(ctx context.Context, name string) (bool, error)
	ContainerCreate(ctx context.Context, spec ContainerSpec) (id string, err error)
	ContainerStart(ctx context.Context, id string) error
	ContainerStop(ctx context.Context, name string) error
	ContainerRemove(ctx context.Context, name string, force bool) error
	// ContainerLogs opens a follow-mode multiplexed log stream; the reader
	// closes when the container stops.
	ContainerLogs(ctx context.Context, id string) (io.ReadCloser, error)

	NetworkExists(ctx context.Context, name string) (bool, error)
	NetworkCreate(ctx context.Context, name string, labels map[string]string) error
	// NetworkConnected reports whether the container identified by id (full
	// or short form) is already an endpoint of the named network.
	NetworkConnected(ctx context.Context, name, containerID string) (bool, error)
	NetworkConnect(ctx context.Context, name, containerID string) error

	// ImageRepoTags lists every repository:tag reference cached locally.
	ImageRepoTags(ctx context.Context) ([]string, error)
	// ImagePull starts a pull and returns the provider's progress stream.
	ImagePull(ctx context.Context, ref string) (io.ReadCloser, error)
}
