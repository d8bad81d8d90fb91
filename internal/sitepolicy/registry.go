package sitepolicy

import (
	"fmt"
)

// Factory builds a policy from the site configuration.
type Factory func(cfg *Config) Policy

// Registry maps policy names to factories, so a site selects its policy by
// a configuration value rather than by loading code.
type Registry struct {
	factories map[string]Factory
}

func NewRegistry() *Registry {
	return &Registry{factories: map[string]Factory{}}
}

func (r *Registry) Register(name string, f Factory) {
	r.factories[name] = f
}

func (r *Registry) Build(name string, cfg *Config) (Policy, error) {
	f, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("site policy not registered: %s", name)
	}
	return f(cfg), nil
}

// DefaultRegistry returns a registry with the built-in policies.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register("gridengine", func(cfg *Config) Policy {
		return NewGridEnginePolicy(cfg.GridEngine, cfg.SchedulerDefaults)
	})
	return r
}
