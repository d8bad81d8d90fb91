package engine

import (
	"fmt"
)

// Registry maps execution plugin names to engines. The same name is also the
// scheduler identifier handed to the site policy, so one flag selects both
// the execution mechanism and the argument dialect.
type Registry struct {
	engines map[string]Engine
}

func NewRegistry() *Registry {
	return &Registry{engines: map[string]Engine{}}
}

func (r *Registry) Register(name string, e Engine) {
	r.engines[name] = e
}

func (r *Registry) Get(name string) (Engine, error) {
	e, ok := r.engines[name]
	if !ok {
		return nil, fmt.Errorf("execution plugin not registered: %s", name)
	}
	return e, nil
}
