package distributions

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"priorfit/domain/core"
	"priorfit/ports"
)

// Registry maps family names and aliases to families. Lookups are
// case-insensitive and ignore '-' and '_'.
type Registry struct {
	mu       sync.RWMutex
	families map[string]ports.DistributionFamily
	aliases  map[string]string
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		families: make(map[string]ports.DistributionFamily),
		aliases:  make(map[string]string),
	}
}

// Default returns a registry holding every built-in family
func Default() *Registry {
	r := NewRegistry()
	r.Register(Normal{}, "gaussian", "norm")
	r.Register(LogNormal{}, "lognorm")
	r.Register(HalfNormal{}, "halfnorm")
	r.Register(StudentT{}, "t", "students_t", "student")
	r.Register(Exponential{}, "exp", "expon")
	r.Register(Gamma{})
	r.Register(Beta{})
	r.Register(Laplace{}, "double_exponential")
	r.Register(Cauchy{})
	r.Register(Weibull{})
	return r
}

func normalizeName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	return strings.NewReplacer("-", "", "_", "", " ", "").Replace(name)
}

// Register adds a family under its own name and any aliases
func (r *Registry) Register(family ports.DistributionFamily, aliases ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := normalizeName(family.Name())
	r.families[key] = family
	for _, alias := range aliases {
		r.aliases[normalizeName(alias)] = key
	}
}

// Family resolves a family by name or alias
func (r *Registry) Family(name string) (ports.DistributionFamily, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	key := normalizeName(name)
	if canonical, ok := r.aliases[key]; ok {
		key = canonical
	}
	family, ok := r.families[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", core.ErrUnknownFamily, name)
	}
	return family, nil
}

// Names lists the canonical family names, sorted
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.families))
	for _, family := range r.families {
		names = append(names, family.Name())
	}
	sort.Strings(names)
	return names
}

// FamilyInfo describes a registered family for listings
type FamilyInfo struct {
	Name     string            `json:"name"`
	Params   []ports.ParamSpec `json:"params"`
	Analytic bool              `json:"analytic_jacobian"`
	Aliases  []string          `json:"aliases,omitempty"`
}

// Describe lists every family with its parameters and capabilities
func (r *Registry) Describe() []FamilyInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	byKey := make(map[string][]string)
	for alias, key := range r.aliases {
		byKey[key] = append(byKey[key], alias)
	}

	infos := make([]FamilyInfo, 0, len(r.families))
	for key, family := range r.families {
		_, analytic := family.(ports.DualLogCDFer)
		aliases := byKey[key]
		sort.Strings(aliases)
		infos = append(infos, FamilyInfo{
			Name:     family.Name(),
			Params:   family.Params(),
			Analytic: analytic,
			Aliases:  aliases,
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}

var _ ports.FamilyRegistry = (*Registry)(nil)
