package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/harborline/warden/models"
	"github.com/harborline/warden/services/boot"
	"github.com/harborline/warden/services/creds"
	"github.com/harborline/warden/services/docker"
	"github.com/harborline/warden/services/registry"
	"github.com/harborline/warden/services/sockets"
	"github.com/harborline/warden/services/telemetry"
)

const (
	healthAttempts  = 10
	healthDelay     = 2 * time.Second
	heartbeatEvery  = time.Minute
	shutdownTimeout = 60 * time.Second
)

var (
	fullStack bool
	debug     bool
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	root := &cobra.Command{
		Use:          "warden",
		Short:        "Warden provisions and supervises the harborline service fleet",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context())
		},
	}
	root.Flags().BoolVar(&fullStack, "full", false, "boot the full stack instead of the minimal set")
	root.Flags().BoolVar(&debug, "debug", false, "stream container logs and log at debug level")

	if err := root.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	settings := models.SettingsFromEnv()
	if debug {
		settings.Debug = true
		settings.LogLevel = "debug"
	}

	log := telemetry.NewLogger(settings.LogLevel)
	telemetry.Serve(telemetry.Component(log, "metrics"), settings.MetricsAddr)

	endpoint, err := sockets.Discover()
	if err != nil {
		log.Warn().Err(err).Msg("no engine socket found, relying on client defaults")
	} else {
		log.Debug().Str("endpoint", endpoint).Msg("engine endpoint resolved")
	}

	rt, err := docker.NewEngineRuntime(endpoint)
	if err != nil {
		return fmt.Errorf("connect engine: %w", err)
	}

	orch := docker.NewOrchestrator(rt, telemetry.Component(log, "docker"), settings)
	log.Info().Str("run", orch.Run().String()).Msg("warden starting")

	if err := orch.EnsureNetwork(ctx, settings.NetworkName); err != nil {
		return err
	}
	// Self-attachment only works when warden itself runs in a container; on
	// a bare host the fleet stays reachable through published ports.
	if err := orch.AttachSelf(ctx, settings.NetworkName); err != nil {
		log.Warn().Err(err).Msg("could not attach self to network")
	}

	tokens := creds.NewProvisioner().BuildRegistry(registry.ServiceNames())

	reg, err := registry.New(settings, tokens)
	if err != nil {
		return err
	}

	mode := models.BootModeMinimal
	if fullStack {
		mode = models.BootModeFull
	}

	seq := &boot.Sequencer{
		Source:    reg,
		Lifecycle: orch,
		Gate: &boot.HealthGate{
			Client:      &http.Client{Timeout: 5 * time.Second},
			Log:         telemetry.Component(log, "health"),
			MaxAttempts: healthAttempts,
			Delay:       healthDelay,
		},
		Network:  settings.NetworkName,
		Progress: os.Stdout,
		Log:      telemetry.Component(log, "boot"),
	}
	if err := seq.Boot(ctx, mode); err != nil {
		return err
	}

	for _, d := range reg.Group(mode) {
		if url := reg.HostServiceURL(d); url != "" {
			log.Info().Str("service", d.Name).Str("url", url).Msg("service available")
		}
	}

	idle(ctx, log, orch)
	return nil
}

// idle holds the process between boot and shutdown, emitting a heartbeat
// until a termination signal triggers teardown.
func idle(ctx context.Context, log zerolog.Logger, orch *docker.Orchestrator) {
	started := time.Now()
	ticker := time.NewTicker(heartbeatEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			// The signal already cancelled ctx; teardown gets its own
			// deadline.
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			log.Info().Msg("shutting down")
			orch.StopAll(shutdownCtx)
			log.Info().Msg("shutdown complete")
			return
		case <-ticker.C:
			log.Info().
				Dur("uptime", time.Since(started).Round(time.Second)).
				Int("containers", len(orch.Tracked())).
				Msg("heartbeat")
		}
	}
}
