// Package registry holds the declarative description of every manageable
// workload. Descriptors are derived once from the static service table plus
// the environment surface; nothing here touches the engine.
package registry

import (
	"fmt"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/harborline/warden/models"
	"github.com/harborline/warden/services/creds"
)

// Port defaults per service; the host side can be overridden through
// WARDEN_PORT_<NAME>.
const (
	cachePort   = 6379
	gatewayPort = 8210
	webPort     = 3010
	apiPort     = 8220
	scannerPort = 8230
	botPort     = 8240
)

const healthPath = "/v1/system/health"

// serviceNames lists the fleet in boot order: the minimal set first, then the
// full-only remainder. Later services may depend on earlier ones being
// network-reachable, so this order is a contract.
var serviceNames = []string{"cache", "gateway", "web", "api", "scanner", "bot"}

// ServiceNames returns every registered service name in boot order.
func ServiceNames() []string {
	out := make([]string, len(serviceNames))
	copy(out, serviceNames)
	return out
}

// Registry resolves ordered descriptor slices per boot mode.
type Registry struct {
	settings    models.Settings
	descriptors []models.ServiceDescriptor
}

// New builds and validates the full descriptor set. tokens is the resolved
// credential map. Everything service-specific (a peer's gateway token, the
// serialized token map for the gateway itself) is attached to the descriptor
// here, so lifecycle code never branches on service names.
func New(settings models.Settings, tokens map[string]string) (*Registry, error) {
	r := &Registry{settings: settings}
	r.descriptors = r.build(tokens)

	if err := validate(r.descriptors); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Registry) build(tokens map[string]string) []models.ServiceDescriptor {
	cacheURL := "redis://cache:" + strconv.Itoa(cachePort)
	gatewayURL := fmt.Sprintf("http://gateway:%d", gatewayPort)

	// Env each gateway client needs: where the gateway is, and the token the
	// gateway will accept from this peer. A missing token means the peer runs
	// unauthenticated.
	clientEnv := func(name string) []string {
		env := []string{"GATEWAY_URL=" + gatewayURL}
		if token, ok := tokens[name]; ok && token != "" {
			env = append(env, "GATEWAY_TOKEN="+token)
		}
		return env
	}

	descs := []models.ServiceDescriptor{
		{
			Name:         "cache",
			Image:        "redis:7-alpine",
			InternalPort: cachePort,
			HostPort:     r.settings.Port("cache", cachePort),
			Group:        models.GroupMinimal,
			MuteLogs:     true,
		},
		{
			Name:         "gateway",
			Image:        "harborline/gateway:latest",
			InternalPort: gatewayPort,
			HostPort:     r.settings.Port("gateway", gatewayPort),
			Env: []string{
				"CACHE_URL=" + cacheURL,
				"SERVICE_TOKENS=" + creds.StringifyTokenMap(tokens),
			},
			HealthURL: r.healthURL(r.settings.Port("gateway", gatewayPort)),
			Group:     models.GroupMinimal,
		},
		{
			Name:         "web",
			Image:        "harborline/web:latest",
			InternalPort: webPort,
			HostPort:     r.settings.Port("web", webPort),
			Env:          clientEnv("web"),
			Group:        models.GroupMinimal,
		},
		{
			Name:         "api",
			Image:        "harborline/api:latest",
			InternalPort: apiPort,
			HostPort:     r.settings.Port("api", apiPort),
			Env:          append(clientEnv("api"), "CACHE_URL="+cacheURL),
			HealthURL:    r.healthURL(r.settings.Port("api", apiPort)),
			Group:        models.GroupFull,
		},
		{
			Name:         "scanner",
			Image:        "harborline/scanner:latest",
			InternalPort: scannerPort,
			HostPort:     r.settings.Port("scanner", scannerPort),
			Env:          append(clientEnv("scanner"), "CACHE_URL="+cacheURL),
			HealthURL:    r.healthURL(r.settings.Port("scanner", scannerPort)),
			Group:        models.GroupFull,
		},
		{
			Name:  "bot",
			Image: "harborline/bot:latest",
			Env:   clientEnv("bot"),
			Group: models.GroupFull,
		},
	}

	for i := range descs {
		if r.settings.Unmuted(descs[i].Name) {
			descs[i].MuteLogs = false
		}
	}
	return descs
}

// Group returns the ordered descriptors for a boot mode. Minimal selects the
// minimal subset; full returns everything with the minimal subset first. An
// unknown mode yields an empty slice: nothing to do, not an error.
func (r *Registry) Group(mode models.BootMode) []models.ServiceDescriptor {
	switch mode {
	case models.BootModeMinimal:
		var out []models.ServiceDescriptor
		for _, d := range r.descriptors {
			if d.Group == models.GroupMinimal {
				out = append(out, d)
			}
		}
		return out
	case models.BootModeFull:
		out := make([]models.ServiceDescriptor, len(r.descriptors))
		copy(out, r.descriptors)
		return out
	default:
		return nil
	}
}

// All returns every descriptor in boot order.
func (r *Registry) All() []models.ServiceDescriptor {
	return r.Group(models.BootModeFull)
}

// HostServiceURL formats the host-facing URL for a published service, or ""
// when the service publishes nothing.
func (r *Registry) HostServiceURL(d models.ServiceDescriptor) string {
	if !d.Published() {
		return ""
	}
	return fmt.Sprintf("%s:%d", r.settings.HostURL, d.HostPort)
}

func (r *Registry) healthURL(port int) string {
	return fmt.Sprintf("%s:%d%s", r.settings.HostURL, port, healthPath)
}

func validate(descs []models.ServiceDescriptor) error {
	v := validator.New()
	seen := make(map[string]struct{}, len(descs))
	for _, d := range descs {
		if _, dup := seen[d.Name]; dup {
			return fmt.Errorf("duplicate service name %q", d.Name)
		}
		seen[d.Name] = struct{}{}

		if err := v.Struct(d); err != nil {
			return fmt.Errorf("invalid descriptor %q: %w", d.Name, err)
		}
	}
	return nil
}
