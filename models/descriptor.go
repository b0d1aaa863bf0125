package models

// BootMode selects which slice of the registry a supervising run boots.
type BootMode string

const (
	BootModeMinimal BootMode = "minimal" // cache, gateway and web only
	BootModeFull    BootMode = "full"    // everything, minimal set first
)

// ServiceGroup tags a descriptor with the boot subset it belongs to.
type ServiceGroup string

const (
	GroupMinimal ServiceGroup = "minimal"
	GroupFull    ServiceGroup = "full"
)

// ServiceDescriptor is the launch contract for one supervised workload. Name
// doubles as the container name and the network alias, so it must be unique
// across the registry.
type ServiceDescriptor struct {
	Name  string `validate:"required,hostname_rfc1123"`
	Image string `validate:"required"`

	// Zero ports mean the service publishes nothing on the host.
	InternalPort int `validate:"min=0,max=65535"`
	HostPort     int `validate:"min=0,max=65535"`

	// Env holds KEY=value assignments in injection order.
	Env []string

	Volumes []VolumeBind

	// HealthURL is polled after start; empty means the service counts as
	// healthy as soon as its container is running.
	HealthURL string `validate:"omitempty,url"`

	Group ServiceGroup `validate:"required,oneof=minimal full"`

	// MuteLogs keeps a chatty workload out of the debug log stream.
	MuteLogs bool
}

// Published reports whether the descriptor maps a container port onto the host.
func (d ServiceDescriptor) Published() bool {
	return d.HostPort > 0 && d.InternalPort > 0
}

// VolumeBind is one host-to-container bind mount.
type VolumeBind struct {
	HostPath      string `validate:"required"`
	ContainerPath string `validate:"required,startswith=/"`
}

func (v VolumeBind) String() string {
	return v.HostPath + ":" + v.ContainerPath
}
