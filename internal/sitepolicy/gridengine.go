package sitepolicy

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/plumb-dev/plumb/internal/engine"
	"github.com/plumb-dev/plumb/internal/resources"
)

// GridEnginePolicy builds qsub-style argument strings for SGE-class
// schedulers: resource limits go into a single -l flag as name=value pairs,
// core requests into a -pe flag naming an MPI or SMP parallel environment.
type GridEnginePolicy struct {
	defaults   map[string]string
	mpiEnv     string
	smpEnv     string
	schedulers map[string]bool
}

func NewGridEnginePolicy(cfg GridEngineConfig, defaults map[string]string) *GridEnginePolicy {
	p := &GridEnginePolicy{
		defaults:   defaults,
		mpiEnv:     cfg.MPIEnvironment,
		smpEnv:     cfg.SMPEnvironment,
		schedulers: map[string]bool{},
	}
	if p.mpiEnv == "" {
		p.mpiEnv = "mpi"
	}
	if p.smpEnv == "" {
		p.smpEnv = "smp"
	}
	ids := cfg.Schedulers
	if len(ids) == 0 {
		ids = []string{"gridengine"}
	}
	for _, id := range ids {
		p.schedulers[id] = true
	}
	return p
}

func (p *GridEnginePolicy) DefaultArgs(schedulerID string) (string, bool) {
	v, ok := p.defaults[schedulerID]
	return v, ok
}

func (p *GridEnginePolicy) ComputeArgs(schedulerID string, req resources.Request) (string, error) {
	if engine.NonDistributed[schedulerID] {
		return "", nil
	}
	if !p.schedulers[schedulerID] {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedScheduler, schedulerID)
	}

	var parts []string

	var limits []string
	if req.Time != nil {
		limits = append(limits, fmt.Sprintf("h_rt=%d", *req.Time))
	}
	if req.Mem != nil {
		limits = append(limits, fmt.Sprintf("mf=%d", *req.Mem))
	}
	if req.VMem != nil {
		limits = append(limits, fmt.Sprintf("h_vmem=%d", *req.VMem))
	}
	if len(limits) > 0 {
		parts = append(parts, "-l "+strings.Join(limits, ","))
	}

	if req.MinCores != 1 || req.MaxCores != nil {
		env := p.smpEnv
		if req.UseMPI {
			env = p.mpiEnv
		}
		slots := strconv.Itoa(req.MinCores)
		if req.MaxCores != nil {
			slots = fmt.Sprintf("%d-%d", req.MinCores, *req.MaxCores)
		}
		parts = append(parts, fmt.Sprintf("-pe %s %s", env, slots))
	}

	return strings.Join(parts, " "), nil
}
