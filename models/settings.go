package models

import (
	"os"
	"strconv"
	"strings"
)

// Settings is the environment-derived configuration surface of the
// supervising process.
type Settings struct {
	// HostURL is the host-facing URL prefix used for published service URLs
	// and host-side health checks, without a trailing port.
	HostURL string

	// Debug enables container log streaming and verbose logging.
	Debug bool

	// NetworkName is the shared virtual network every service attaches to.
	NetworkName string

	LogLevel string

	// MetricsAddr, when set, exposes the prometheus registry on that address.
	MetricsAddr string

	// Unmute lists service names whose log streams are forced on even when
	// the descriptor marks them as muted.
	Unmute []string

	// Ports maps service names to host-port overrides collected from
	// WARDEN_PORT_<NAME> variables.
	Ports map[string]int
}

// SettingsFromEnv reads the WARDEN_* environment surface, applying defaults
// for anything unset.
func SettingsFromEnv() Settings {
	return Settings{
		HostURL:     envOr("WARDEN_HOST_URL", "http://localhost"),
		Debug:       envBool("WARDEN_DEBUG"),
		NetworkName: envOr("WARDEN_NETWORK", "warden-net"),
		LogLevel:    envOr("WARDEN_LOG_LEVEL", "info"),
		MetricsAddr: os.Getenv("WARDEN_METRICS_ADDR"),
		Unmute:      splitList(os.Getenv("WARDEN_UNMUTE")),
		Ports:       portOverrides(os.Environ()),
	}
}

const portPrefix = "WARDEN_PORT_"

// portOverrides collects every WARDEN_PORT_<NAME> assignment into a
// service-name keyed table. Unparsable or out-of-range values are dropped.
func portOverrides(environ []string) map[string]int {
	out := make(map[string]int)
	for _, kv := range environ {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(key, portPrefix) {
			continue
		}
		name := strings.ToLower(strings.ReplaceAll(strings.TrimPrefix(key, portPrefix), "_", "-"))
		if name == "" {
			continue
		}
		port, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil || port < 1 || port > 65535 {
			continue
		}
		out[name] = port
	}
	return out
}

// Port returns the host port for a service, preferring an explicit override
// from the environment over the registry's default.
func (s Settings) Port(service string, fallback int) int {
	if port, ok := s.Ports[service]; ok {
		return port
	}
	return fallback
}

// Unmuted reports whether the service's log stream was forced on.
func (s Settings) Unmuted(service string) bool {
	for _, name := range s.Unmute {
		if name == service {
			return true
		}
	}
	return false
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envBool(key string) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(key)))
	return err == nil && v
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if name := strings.TrimSpace(part); name != "" {
			out = append(out, name)
		}
	}
	return out
}
