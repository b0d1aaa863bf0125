package docker

import (
	"context"
	"fmt"
	"net/netip"
	"os"
	"strconv"
	"strings"

	"github.com/docker/docker/pkg/stdcopy"
	"github.com/moby/moby/api/types/container"
	"github.com/moby/moby/api/types/mount"
	"github.com/moby/moby/api/types/network"

	"github.com/harborline/warden/interfaces"
	"github.com/harborline/warden/models"
	"github.com/harborline/warden/services/telemetry"
)

// Exists reports whether any container, running or stopped, carries name.
func (o *Orchestrator) Exists(ctx context.Context, name string) (bool, error) {
	return o.runtime.ContainerExists(ctx, name)
}

// Start idempotently creates and starts the container described by desc on
// networkName. A same-named container from an earlier run is left untouched;
// boot never removes or recreates implicitly.
func (o *Orchestrator) Start(ctx context.Context, desc models.ServiceDescriptor, networkName string) error {
	exists, err := o.Exists(ctx, desc.Name)
	if err != nil {
		return fmt.Errorf("inspect container %q: %w", desc.Name, err)
	}
	if exists {
		o.log.Info().Str("container", desc.Name).Msg("container already present, leaving as is")
		return nil
	}

	env := mergeServiceNameEnv(desc.Env, desc.Name)

	exposed := network.PortSet{}
	portMap := network.PortMap{}
	if desc.Published() {
		port, ok := network.PortFrom(uint16(desc.InternalPort), "tcp")
		if !ok {
			return fmt.Errorf("service %q: invalid port %d", desc.Name, desc.InternalPort)
		}
		exposed[port] = struct{}{}
		portMap[port] = append(portMap[port], network.PortBinding{
			HostIP:   netip.IPv4Unspecified(),
			HostPort: strconv.Itoa(desc.HostPort),
		})
	}

	mounts := make([]mount.Mount, 0, len(desc.Volumes))
	for _, v := range desc.Volumes {
		mounts = append(mounts, mount.Mount{
			Type:   mount.TypeBind,
			Source: v.HostPath,
			Target: v.ContainerPath,
		})
	}

	spec := interfaces.ContainerSpec{
		Name: desc.Name,
		Config: &container.Config{
			Image:        desc.Image,
			Env:          env,
			Labels:       o.labels(desc.Name),
			ExposedPorts: exposed,
		},
		HostConfig: &container.HostConfig{
			Mounts:       mounts,
			PortBindings: portMap,
			RestartPolicy: container.RestartPolicy{
				Name: container.RestartPolicyUnlessStopped,
			},
		},
		Networking: &network.NetworkingConfig{
			EndpointsConfig: map[string]*network.EndpointSettings{
				networkName: {Aliases: []string{desc.Name}},
			},
		},
	}

	id, err := o.runtime.ContainerCreate(ctx, spec)
	if err != nil {
		return fmt.Errorf("create container %q: %w", desc.Name, err)
	}

	// Tracked before start so a crash mid-start still leaves the container
	// known to the next shutdown attempt.
	o.track(desc.Name)

	if err := o.runtime.ContainerStart(ctx, id); err != nil {
		return fmt.Errorf("start container %q: %w", desc.Name, err)
	}

	telemetry.ContainersStarted.Inc()
	o.log.Info().Str("container", desc.Name).Str("image", desc.Image).Msg("container started")

	if o.settings.Debug && (!desc.MuteLogs || o.settings.Unmuted(desc.Name)) {
		o.streamLogs(ctx, id, desc.Name)
	}
	return nil
}

// mergeServiceNameEnv appends SERVICE_NAME only when the descriptor does not
// set it already, so a merge never produces a duplicate key.
func mergeServiceNameEnv(env []string, name string) []string {
	for _, kv := range env {
		if strings.HasPrefix(kv, "SERVICE_NAME=") {
			return env
		}
	}
	merged := make([]string, 0, len(env)+1)
	merged = append(merged, env...)
	return append(merged, "SERVICE_NAME="+name)
}

// streamLogs follows the container's multiplexed output on a background
// goroutine. The stream ends when the container stops or ctx is cancelled.
func (o *Orchestrator) streamLogs(ctx context.Context, id, name string) {
	rc, err := o.runtime.ContainerLogs(ctx, id)
	if err != nil {
		o.log.Warn().Err(err).Str("container", name).Msg("could not open log stream")
		return
	}
	go func() {
		defer rc.Close()
		if _, err := stdcopy.StdCopy(os.Stdout, os.Stderr, rc); err != nil {
			o.log.Debug().Err(err).Str("container", name).Msg("log stream closed")
		}
	}()
}
