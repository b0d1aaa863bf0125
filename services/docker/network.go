package docker

import (
	"context"
	"fmt"
	"os"
)

// EnsureNetwork creates the shared virtual network if it does not exist yet.
// Safe to call on every boot.
func (o *Orchestrator) EnsureNetwork(ctx context.Context, name string) error {
	exists, err := o.runtime.NetworkExists(ctx, name)
	if err != nil {
		return fmt.Errorf("inspect network %q: %w", name, err)
	}
	if exists {
		o.log.Info().Str("network", name).Msg("network already exists")
		return nil
	}

	labels := map[string]string{"warden.run": o.run.String()}
	if err := o.runtime.NetworkCreate(ctx, name, labels); err != nil {
		return fmt.Errorf("create network %q: %w", name, err)
	}
	o.log.Info().Str("network", name).Msg("network created")
	return nil
}

// AttachSelf connects the supervising process's own container to the network
// if it is not already a member. The container identity comes from the
// runtime-provided hostname, which inside a container is the short container
// ID.
func (o *Orchestrator) AttachSelf(ctx context.Context, name string) error {
	self, err := os.Hostname()
	if err != nil {
		return fmt.Errorf("resolve own hostname: %w", err)
	}

	connected, err := o.runtime.NetworkConnected(ctx, name, self)
	if err != nil {
		return fmt.Errorf("inspect network %q: %w", name, err)
	}
	if connected {
		o.log.Info().Str("network", name).Msg("already attached to network")
		return nil
	}

	if err := o.runtime.NetworkConnect(ctx, name, self); err != nil {
		return fmt.Errorf("attach %q to network %q: %w", self, name, err)
	}
	o.log.Info().Str("network", name).Str("container", self).Msg("attached self to network")
	return nil
}
