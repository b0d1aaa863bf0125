package boot

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/harborline/warden/services/telemetry"
)

// HealthGate blocks boot progress until a service answers its health
// endpoint. Exhausting the attempt budget is a fatal boot error: a dependent
// starting against an unready dependency is worse than a stalled, loud boot.
type HealthGate struct {
	Client      *http.Client
	Log         zerolog.Logger
	MaxAttempts int
	Delay       time.Duration
}

// Wait polls url with a GET until it answers in the 2xx/3xx range. Each
// failed attempt sleeps Delay before retrying; after exactly MaxAttempts
// failures the gate gives up.
func (g *HealthGate) Wait(ctx context.Context, name, url string) error {
	client := g.Client
	if client == nil {
		client = http.DefaultClient
	}

	for attempt := 1; attempt <= g.MaxAttempts; attempt++ {
		telemetry.HealthCheckAttempts.Inc()

		if g.probe(ctx, client, url) {
			g.Log.Info().Str("service", name).Int("attempt", attempt).Msg("service healthy")
			return nil
		}
		g.Log.Debug().Str("service", name).Int("attempt", attempt).Int("max", g.MaxAttempts).Msg("not healthy yet")

		if attempt == g.MaxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(g.Delay):
		}
	}

	return fmt.Errorf("service %q did not become healthy after %d attempts", name, g.MaxAttempts)
}

func (g *HealthGate) probe(ctx context.Context, client *http.Client, url string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false
	}
	resp, err := client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusBadRequest
}
