package boot

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/harborline/warden/models"
)

// Source resolves the ordered descriptor list for a boot mode.
type Source interface {
	Group(mode models.BootMode) []models.ServiceDescriptor
}

// Lifecycle is the slice of the orchestrator the sequencer drives per
// descriptor.
type Lifecycle interface {
	EnsureImage(ctx context.Context, ref string, progress io.Writer) error
	Start(ctx context.Context, desc models.ServiceDescriptor, networkName string) error
}

// Gate blocks until a started service answers its health endpoint.
type Gate interface {
	Wait(ctx context.Context, name, url string) error
}

// Sequencer walks the registry in dependency order and drives image
// resolution, container start and health gating per entry. Processing is
// strictly sequential: a later service never starts before an earlier one has
// passed its gate, since later descriptors may depend on earlier ones being
// network-reachable.
type Sequencer struct {
	Source    Source
	Lifecycle Lifecycle
	Gate      Gate
	Network   string
	Progress  io.Writer
	Log       zerolog.Logger
}

// Boot drives every descriptor of mode, in order. The first failure aborts
// the whole sequence.
func (s *Sequencer) Boot(ctx context.Context, mode models.BootMode) error {
	descs := s.Source.Group(mode)
	if len(descs) == 0 {
		s.Log.Info().Str("mode", string(mode)).Msg("nothing to boot")
		return nil
	}

	s.Log.Info().Str("mode", string(mode)).Int("services", len(descs)).Msg("boot sequence starting")

	for _, d := range descs {
		s.Log.Info().Str("service", d.Name).Msg("booting service")

		if err := s.Lifecycle.EnsureImage(ctx, d.Image, s.Progress); err != nil {
			return fmt.Errorf("ensure image for %q: %w", d.Name, err)
		}
		if err := s.Lifecycle.Start(ctx, d, s.Network); err != nil {
			return err
		}

		if d.HealthURL == "" {
			// No endpoint declared: healthy on successful start.
			s.Log.Debug().Str("service", d.Name).Msg("no health endpoint, considered healthy")
			continue
		}
		if err := s.Gate.Wait(ctx, d.Name, d.HealthURL); err != nil {
			return err
		}
	}

	s.Log.Info().Str("mode", string(mode)).Msg("boot sequence complete")
	return nil
}
