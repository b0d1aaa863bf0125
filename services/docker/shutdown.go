package docker

import (
	"context"

	"github.com/containerd/errdefs"

	"github.com/harborline/warden/services/telemetry"
)

// StopAll stops and removes every container this run created, most recent
// first. Teardown is best-effort: an individual failure is logged as a
// warning and never blocks cleanup of the remaining containers.
func (o *Orchestrator) StopAll(ctx context.Context) {
	names := o.Tracked()
	for i := len(names) - 1; i >= 0; i-- {
		name := names[i]

		if err := o.runtime.ContainerStop(ctx, name); err != nil && !errdefs.IsNotFound(err) {
			telemetry.ShutdownFailures.Inc()
			o.log.Warn().Err(err).Str("container", name).Msg("stop failed")
		}

		// Forced remove still works on a container that refused to stop.
		if err := o.runtime.ContainerRemove(ctx, name, true); err != nil && !errdefs.IsNotFound(err) {
			telemetry.ShutdownFailures.Inc()
			o.log.Warn().Err(err).Str("container", name).Msg("remove failed")
			continue
		}

		o.untrack(name)
		o.log.Info().Str("container", name).Msg("container removed")
	}
}
