package docker

import (
	"context"
	"fmt"
	"io"
	"slices"

	"github.com/docker/docker/pkg/jsonmessage"

	"github.com/harborline/warden/services/telemetry"
)

// EnsureImage makes ref locally available, pulling it when absent. The pull's
// provider-reported progress is decoded onto progress; the call returns only
// once the pull stream completes.
func (o *Orchestrator) EnsureImage(ctx context.Context, ref string, progress io.Writer) error {
	tags, err := o.runtime.ImageRepoTags(ctx)
	if err != nil {
		return fmt.Errorf("list images: %w", err)
	}
	if slices.Contains(tags, ref) {
		o.log.Debug().Str("image", ref).Msg("image already present")
		return nil
	}

	o.log.Info().Str("image", ref).Msg("pulling image")
	rc, err := o.runtime.ImagePull(ctx, ref)
	if err != nil {
		return fmt.Errorf("pull image %q: %w", ref, err)
	}
	defer rc.Close()

	if progress == nil {
		progress = io.Discard
	}
	if err := jsonmessage.DisplayJSONMessagesStream(rc, progress, 0, false, nil); err != nil {
		return fmt.Errorf("pull image %q: %w", ref, err)
	}

	telemetry.ImagesPulled.Inc()
	o.log.Info().Str("image", ref).Msg("image pulled")
	return nil
}
