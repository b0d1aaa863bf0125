// Package sockets locates the container-engine API endpoint at startup.
// Resolution order: explicit environment overrides, the standard DOCKER_HOST
// variable, well-known platform socket paths, and finally a scan of the usual
// runtime directories for socket-like files.
package sockets

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// overrideKeys are consulted first, in order.
var overrideKeys = []string{"WARDEN_DOCKER_SOCKET", "CONTAINER_HOST"}

// socketPatterns match engine socket file names during the directory scan.
var socketPatterns = []string{"docker", "podman"}

var errNoEndpoint = errors.New("no container engine endpoint found")

type hooks struct {
	goos       string
	getenv     func(string) string
	socketAt   func(string) bool
	home       func() (string, error)
	dirEntries func(string) []string
}

// Discover resolves the engine endpoint for the current platform.
func Discover() (string, error) {
	return discover(hooks{
		goos:       runtime.GOOS,
		getenv:     os.Getenv,
		socketAt:   socketAt,
		home:       os.UserHomeDir,
		dirEntries: dirEntries,
	})
}

func discover(h hooks) (string, error) {
	for _, key := range overrideKeys {
		if v := strings.TrimSpace(h.getenv(key)); v != "" {
			return Normalize(v), nil
		}
	}

	if v := strings.TrimSpace(h.getenv("DOCKER_HOST")); v != "" {
		return Normalize(v), nil
	}

	if h.goos == "windows" {
		return "npipe://" + NormalizeNamedPipe("//./pipe/docker_engine"), nil
	}

	candidates := []string{
		"/var/run/docker.sock",
		"/run/docker.sock",
		"/run/podman/podman.sock",
	}
	if home, err := h.home(); err == nil && home != "" {
		candidates = append(candidates, filepath.Join(home, ".docker", "run", "docker.sock"))
	}
	for _, path := range candidates {
		if h.socketAt(path) {
			return "unix://" + path, nil
		}
	}

	for _, dir := range []string{"/var/run", "/run"} {
		for _, name := range h.dirEntries(dir) {
			if !strings.HasSuffix(name, ".sock") {
				continue
			}
			for _, pattern := range socketPatterns {
				if strings.Contains(name, pattern) {
					path := filepath.Join(dir, name)
					if h.socketAt(path) {
						return "unix://" + path, nil
					}
				}
			}
		}
	}

	return "", errNoEndpoint
}

// Normalize turns any accepted endpoint spelling into a scheme-qualified form
// the engine client accepts. Named-pipe spellings collapse to the canonical
// npipe form; bare absolute paths become unix endpoints.
func Normalize(endpoint string) string {
	s := strings.TrimSpace(endpoint)
	if isNamedPipe(s) {
		return "npipe://" + NormalizeNamedPipe(s)
	}
	if strings.Contains(s, "://") {
		return s
	}
	if strings.HasPrefix(s, "/") {
		return "unix://" + s
	}
	return s
}

// NormalizeNamedPipe reduces every Windows named-pipe spelling (npipe://
// prefixed, backslash form, or already canonical) to a single
// "//./pipe/<name>" form.
func NormalizeNamedPipe(p string) string {
	s := strings.TrimSpace(p)
	s = strings.TrimPrefix(s, "npipe://")
	s = strings.ReplaceAll(s, `\`, "/")
	s = strings.TrimLeft(s, "/")
	s = strings.TrimPrefix(s, "./")
	return "//./" + s
}

func isNamedPipe(s string) bool {
	return strings.HasPrefix(s, "npipe://") ||
		strings.HasPrefix(s, `\\.\pipe\`) ||
		strings.HasPrefix(s, "//./pipe/")
}

// socketAt reports whether path exists and is a unix socket.
func socketAt(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode()&fs.ModeSocket != 0
}

func dirEntries(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}
