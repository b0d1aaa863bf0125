package docker

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/containerd/errdefs"
	"github.com/moby/moby/client"

	"github.com/harborline/warden/interfaces"
)

// engineRuntime adapts the Docker Engine client to the narrow Runtime surface
// the orchestrator uses.
type engineRuntime struct {
	client *client.Client
}

// NewEngineRuntime connects to the engine at host. An empty host falls back
// to the client's own environment discovery (DOCKER_HOST et al).
func NewEngineRuntime(host string) (interfaces.Runtime, error) {
	opts := []client.Opt{client.FromEnv}
	if host != "" {
		opts = append(opts, client.WithHost(host))
	}
	c, err := client.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("engine client: %w", err)
	}
	return &engineRuntime{client: c}, nil
}

func (e *engineRuntime) ContainerExists(ctx context.Context, name string) (bool, error) {
	_, err := e.client.ContainerInspect(ctx, name, client.ContainerInspectOptions{})
	if err == nil {
		return true, nil
	}
	if errdefs.IsNotFound(err) {
		return false, nil
	}
	return false, err
}

func (e *engineRuntime) ContainerCreate(ctx context.Context, spec interfaces.ContainerSpec) (string, error) {
	created, err := e.client.ContainerCreate(ctx, client.ContainerCreateOptions{
		Config:           spec.Config,
		HostConfig:       spec.HostConfig,
		NetworkingConfig: spec.Networking,
		Name:             spec.Name,
		Image:            spec.Config.Image,
	})
	if err != nil {
		// Race-safe: if something else created it, inspect and proceed.
		inspected, ie := e.client.ContainerInspect(ctx, spec.Name, client.ContainerInspectOptions{})
		if ie != nil {
			return "", err
		}
		return inspected.Container.ID, nil
	}
	return created.ID, nil
}

func (e *engineRuntime) ContainerStart(ctx context.Context, id string) error {
	_, err := e.client.ContainerStart(ctx, id, client.ContainerStartOptions{})
	return err
}

func (e *engineRuntime) ContainerStop(ctx context.Context, name string) error {
	_, err := e.client.ContainerStop(ctx, name, client.ContainerStopOptions{})
	return err
}

func (e *engineRuntime) ContainerRemove(ctx context.Context, name string, force bool) error {
	_, err := e.client.ContainerRemove(ctx, name, client.ContainerRemoveOptions{
		Force:         force,
		RemoveVolumes: false,
	})
	return err
}

func (e *engineRuntime) ContainerLogs(ctx context.Context, id string) (io.ReadCloser, error) {
	rc, err := e.client.ContainerLogs(ctx, id, client.ContainerLogsOptions{
		ShowStdout: true,
		ShowStderr: true,
		Follow:     true,
		Timestamps: false,
		Since:      "0",
	})
	if err != nil {
		return nil, err
	}
	return rc, nil
}

func (e *engineRuntime) NetworkExists(ctx context.Context, name string) (bool, error) {
	_, err := e.client.NetworkInspect(ctx, name, client.NetworkInspectOptions{})
	if err == nil {
		return true, nil
	}
	if errdefs.IsNotFound(err) {
		return false, nil
	}
	return false, err
}

func (e *engineRuntime) NetworkCreate(ctx context.Context, name string, labels map[string]string) error {
	_, err := e.client.NetworkCreate(ctx, name, client.NetworkCreateOptions{
		Labels: labels,
	})
	if err != nil {
		// If it was created concurrently, re-inspect rather than pattern
		// match the conflict error.
		if _, ie := e.client.NetworkInspect(ctx, name, client.NetworkInspectOptions{}); ie == nil {
			return nil
		}
	}
	return err
}

func (e *engineRuntime) NetworkConnected(ctx context.Context, name, containerID string) (bool, error) {
	res, err := e.client.NetworkInspect(ctx, name, client.NetworkInspectOptions{})
	if err != nil {
		return false, err
	}
	// Endpoint keys are full container IDs; the runtime-provided hostname is
	// the short form.
	for id := range res.Network.Containers {
		if strings.HasPrefix(id, containerID) {
			return true, nil
		}
	}
	return false, nil
}

func (e *engineRuntime) NetworkConnect(ctx context.Context, name, containerID string) error {
	_, err := e.client.NetworkConnect(ctx, name, client.NetworkConnectOptions{
		Container: containerID,
	})
	return err
}

func (e *engineRuntime) ImageRepoTags(ctx context.Context) ([]string, error) {
	images, err := e.client.ImageList(ctx, client.ImageListOptions{})
	if err != nil {
		return nil, err
	}
	var tags []string
	for _, img := range images.Items {
		tags = append(tags, img.RepoTags...)
	}
	return tags, nil
}

func (e *engineRuntime) ImagePull(ctx context.Context, ref string) (io.ReadCloser, error) {
	rc, err := e.client.ImagePull(ctx, ref, client.ImagePullOptions{})
	if err != nil {
		return nil, err
	}
	return rc, nil
}
