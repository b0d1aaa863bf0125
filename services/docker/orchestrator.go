package docker

import (
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/harborline/warden/interfaces"
	"github.com/harborline/warden/models"
)

// Orchestrator drives the engine for one supervising run. It owns the set of
// containers this run created and the run identity stamped into labels, so a
// shutdown only ever touches its own containers.
type Orchestrator struct {
	runtime  interfaces.Runtime
	run      uuid.UUID
	log      zerolog.Logger
	settings models.Settings

	mu      sync.Mutex
	tracked []string // container names, in creation order
}

func NewOrchestrator(rt interfaces.Runtime, log zerolog.Logger, settings models.Settings) *Orchestrator {
	return &Orchestrator{
		runtime:  rt,
		run:      uuid.New(),
		log:      log,
		settings: settings,
	}
}

// Run returns this process run's identity.
func (o *Orchestrator) Run() uuid.UUID {
	return o.run
}

func (o *Orchestrator) labels(service string) map[string]string {
	return map[string]string{
		"warden.run":     o.run.String(),
		"warden.service": service,
	}
}

// track registers a container name as owned by this run. Registration happens
// before the start call so a crash mid-start still leaves the container
// discoverable for cleanup.
func (o *Orchestrator) track(name string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, n := range o.tracked {
		if n == name {
			return
		}
	}
	o.tracked = append(o.tracked, name)
}

func (o *Orchestrator) untrack(name string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for i, n := range o.tracked {
		if n == name {
			o.tracked = append(o.tracked[:i], o.tracked[i+1:]...)
			return
		}
	}
}

// Tracked returns a snapshot of owned container names in creation order.
func (o *Orchestrator) Tracked() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]string, len(o.tracked))
	copy(out, o.tracked)
	return out
}
