package stack

import (
	"fmt"
	"sort"
	"strings"
)

// ServiceID identifies a deployable unit of the network
type ServiceID = string

const (
	ServiceValidator        ServiceID = "afro-validator"
	ServiceDB               ServiceID = "afro-db"
	ServiceExplorer         ServiceID = "afro-explorer"
	ServiceTestnetValidator ServiceID = "afro-testnet-validator"
	ServiceTestnetDB        ServiceID = "afro-testnet-db"
	ServiceTestnetExplorer  ServiceID = "afro-testnet-explorer"
	ServiceWeb              ServiceID = "afro-web"
	ServiceCEO              ServiceID = "ceo"
)

// serviceAliases maps alternative spellings onto the canonical ServiceID
var serviceAliases = map[string]ServiceID{
	"afro-ceo": ServiceCEO,
}

// containerNames maps a ServiceID to its container name when they differ
var containerNames = map[ServiceID]string{
	ServiceCEO: "afro-ceo",
}

// KnownServices lists every ServiceID in display order
func KnownServices() []ServiceID {
	return []ServiceID{
		ServiceValidator,
		ServiceDB,
		ServiceExplorer,
		ServiceTestnetValidator,
		ServiceTestnetDB,
		ServiceTestnetExplorer,
		ServiceWeb,
		ServiceCEO,
	}
}

// NormalizeService returns the canonical ServiceID for s and whether it is known
func NormalizeService(s string) (ServiceID, bool) {
	s = strings.TrimSpace(s)
	if alias, ok := serviceAliases[s]; ok {
		return alias, true
	}
	for _, known := range KnownServices() {
		if s == known {
			return s, true
		}
	}
	return s, false
}

// IsKnownService reports whether s is a ServiceID or an alias of one
func IsKnownService(s string) bool {
	_, ok := NormalizeService(s)
	return ok
}

// ContainerName returns the container name a service runs as
func ContainerName(service ServiceID) string {
	if name, ok := containerNames[service]; ok {
		return name
	}
	return service
}

// OperationMode is a named deployment profile
type OperationMode struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Services    []ServiceID `json:"services"`
}

// Includes reports whether the mode contains service
func (m OperationMode) Includes(service ServiceID) bool {
	for _, s := range m.Services {
		if s == service {
			return true
		}
	}
	return false
}

func (m OperationMode) clone() OperationMode {
	m.Services = append([]ServiceID(nil), m.Services...)
	return m
}

// DefaultModes is the compiled-in mode table
func DefaultModes() []OperationMode {
	return []OperationMode{
		{
			ID:          "production",
			Name:        "Production",
			Description: "Full mainnet with explorer and website",
			Services:    []ServiceID{ServiceValidator, ServiceDB, ServiceExplorer, ServiceWeb, ServiceCEO},
		},
		{
			ID:          "testnet",
			Name:        "Testnet Only",
			Description: "Testnet validator with explorer for development",
			Services:    []ServiceID{ServiceTestnetValidator, ServiceTestnetDB, ServiceTestnetExplorer},
		},
		{
			ID:          "dual",
			Name:        "Dual Network",
			Description: "Both mainnet and testnet running simultaneously",
			Services: []ServiceID{
				ServiceValidator, ServiceDB, ServiceExplorer,
				ServiceTestnetValidator, ServiceTestnetDB, ServiceTestnetExplorer,
			},
		},
		{
			ID:          "website",
			Name:        "Website Only",
			Description: "Static website without blockchain services",
			Services:    []ServiceID{ServiceWeb},
		},
		{
			ID:          "development",
			Name:        "Development",
			Description: "All services for local development",
			Services: []ServiceID{
				ServiceValidator, ServiceDB, ServiceExplorer,
				ServiceTestnetValidator, ServiceTestnetDB, ServiceTestnetExplorer,
				ServiceWeb, ServiceCEO,
			},
		},
	}
}

// Registry is the immutable set of operation modes
type Registry struct {
	order []string
	modes map[string]OperationMode
}

// NewRegistry copies the given modes into a registry. Mode ids must be
// unique and every mode needs at least one known service.
func NewRegistry(modes ...OperationMode) (*Registry, error) {
	if len(modes) == 0 {
		return nil, fmt.Errorf("registry needs at least one mode")
	}

	r := &Registry{modes: make(map[string]OperationMode, len(modes))}
	for _, m := range modes {
		if m.ID == "" {
			return nil, fmt.Errorf("mode id is empty")
		}
		if _, dup := r.modes[m.ID]; dup {
			return nil, fmt.Errorf("duplicate mode %q", m.ID)
		}
		if len(m.Services) == 0 {
			return nil, fmt.Errorf("mode %q has no services", m.ID)
		}

		m = m.clone()
		for i, s := range m.Services {
			canonical, ok := NormalizeService(s)
			if !ok {
				return nil, fmt.Errorf("mode %q: %w: %s", m.ID, ErrUnknownService, s)
			}
			m.Services[i] = canonical
		}

		r.order = append(r.order, m.ID)
		r.modes[m.ID] = m
	}
	return r, nil
}

// MustDefaultRegistry builds the registry of DefaultModes
func MustDefaultRegistry() *Registry {
	r, err := NewRegistry(DefaultModes()...)
	if err != nil {
		panic(err)
	}
	return r
}

// Modes returns copies of every mode in declaration order
func (r *Registry) Modes() []OperationMode {
	out := make([]OperationMode, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.modes[id].clone())
	}
	return out
}

// Resolve returns a copy of the mode with the given id
func (r *Registry) Resolve(id string) (OperationMode, error) {
	m, ok := r.modes[id]
	if !ok {
		return OperationMode{}, &ModeNotFoundError{ID: id}
	}
	return m.clone(), nil
}

// ModesIncluding returns the ids of modes that contain the service, sorted
func (r *Registry) ModesIncluding(service ServiceID) []string {
	var ids []string
	for _, id := range r.order {
		if r.modes[id].Includes(service) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}
