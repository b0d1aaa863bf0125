package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

var (
	ContainersStarted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "warden",
		Name:      "containers_started_total",
		Help:      "Containers created and started by this run.",
	})
	ImagesPulled = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "warden",
		Name:      "images_pulled_total",
		Help:      "Images pulled because they were missing locally.",
	})
	HealthCheckAttempts = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "warden",
		Name:      "health_check_attempts_total",
		Help:      "Health gate HTTP attempts, successful or not.",
	})
	ShutdownFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "warden",
		Name:      "shutdown_failures_total",
		Help:      "Stop or remove failures during best-effort teardown.",
	})
)

func init() {
	prometheus.MustRegister(
		ContainersStarted,
		ImagesPulled,
		HealthCheckAttempts,
		ShutdownFailures,
	)
}

// Serve exposes the metrics registry on addr. An empty addr disables the
// listener entirely.
func Serve(log zerolog.Logger, addr string) {
	if addr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.Warn().Err(err).Str("addr", addr).Msg("metrics listener stopped")
		}
	}()
}
