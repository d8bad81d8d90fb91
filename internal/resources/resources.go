// Package resources holds the generic resource request for one cluster job.
package resources

import (
	"errors"
	"fmt"

	"github.com/plumb-dev/plumb/pkg/api"
)

// ErrCoreRange is returned when max_cores is below min_cores.
var ErrCoreRange = errors.New("resources: max_cores below min_cores")

// Request describes the time, memory, and core requirements of a single job,
// either pipeline-wide or for one task. It is a plain value: construct it,
// validate it, pass it around. Nil pointer fields mean "not requested".
type Request struct {
	Time     *int64 // wall time limit in seconds
	Mem      *int64 // memory in bytes
	VMem     *int64 // virtual memory ceiling in bytes
	UseMPI   bool
	MinCores int
	MaxCores *int
}

func (r Request) Validate() error {
	if r.MinCores < 1 {
		return fmt.Errorf("resources: min_cores must be at least 1, got %d", r.MinCores)
	}
	if r.MaxCores != nil && *r.MaxCores < r.MinCores {
		return fmt.Errorf("%w: %d < %d", ErrCoreRange, *r.MaxCores, r.MinCores)
	}
	return nil
}

// FromSpec converts the YAML-facing resource block into a validated Request.
// An unset min_cores defaults to 1.
func FromSpec(s api.ResourceSpec) (Request, error) {
	r := Request{
		Time:     s.TimeSeconds,
		Mem:      s.MemBytes,
		VMem:     s.VMemBytes,
		UseMPI:   s.UseMPI,
		MinCores: s.MinCores,
		MaxCores: s.MaxCores,
	}
	if r.MinCores == 0 {
		r.MinCores = 1
	}
	if err := r.Validate(); err != nil {
		return Request{}, err
	}
	return r, nil
}
