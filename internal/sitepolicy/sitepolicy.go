// Package sitepolicy translates generic resource requests into the argument
// syntax of the local site's job scheduler.
package sitepolicy

import (
	"errors"
	"strings"

	"github.com/plumb-dev/plumb/internal/resources"
)

// ErrUnsupportedScheduler is returned when a configured policy cannot
// translate for the requested scheduler. A configured policy is explicit
// about what it supports; it never falls back to an empty string.
var ErrUnsupportedScheduler = errors.New("sitepolicy: scheduler not supported")

// Policy supplies site-specific scheduler argument strings. Implementations
// are chosen by name from the site configuration at process start; there is
// no dynamic code loading.
type Policy interface {
	// DefaultArgs returns the site's default argument string for the
	// scheduler, if one is registered.
	DefaultArgs(schedulerID string) (string, bool)
	// ComputeArgs builds the per-request argument string.
	ComputeArgs(schedulerID string, req resources.Request) (string, error)
}

// Translate maps a (scheduler, request) pair to the literal argument string
// that scheduler expects. Without a policy every installation degrades to
// empty argument strings, which is a fully supported mode. With a policy,
// the registered default comes first, then the computed per-request
// fragment, joined by single spaces with empty fragments dropped.
func Translate(p Policy, schedulerID string, req resources.Request) (string, error) {
	if p == nil {
		return "", nil
	}
	var parts []string
	if def, ok := p.DefaultArgs(schedulerID); ok && def != "" {
		parts = append(parts, def)
	}
	computed, err := p.ComputeArgs(schedulerID, req)
	if err != nil {
		return "", err
	}
	if computed != "" {
		parts = append(parts, computed)
	}
	return strings.Join(parts, " "), nil
}
