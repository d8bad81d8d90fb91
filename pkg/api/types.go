package api

// Public types for pipeline definitions and run records.

// ResourceSpec declares the compute resources a job asks the scheduler for.
// Pointer fields are optional; an absent field is simply not requested.
type ResourceSpec struct {
	TimeSeconds *int64 `json:"time_seconds,omitempty" yaml:"time_seconds,omitempty"`
	MemBytes    *int64 `json:"mem_bytes,omitempty" yaml:"mem_bytes,omitempty"`
	VMemBytes   *int64 `json:"vmem_bytes,omitempty" yaml:"vmem_bytes,omitempty"`
	UseMPI      bool   `json:"use_mpi,omitempty" yaml:"use_mpi,omitempty"`
	MinCores    int    `json:"min_cores,omitempty" yaml:"min_cores,omitempty"`
	MaxCores    *int   `json:"max_cores,omitempty" yaml:"max_cores,omitempty"`
}

type TaskSpec struct {
	Name        string            `json:"name" yaml:"name"`
	Description string            `json:"description,omitempty" yaml:"description,omitempty"`
	Command     string            `json:"command" yaml:"command"`
	Args        []string          `json:"args,omitempty" yaml:"args,omitempty"`
	Env         map[string]string `json:"env,omitempty" yaml:"env,omitempty"`
	Resources   *ResourceSpec     `json:"resources,omitempty" yaml:"resources,omitempty"`
}

type PipelineSpec struct {
	Name string `json:"name" yaml:"name"`
	// Resources is the pipeline-wide request; individual tasks can override
	// it through their own Resources block.
	Resources *ResourceSpec `json:"resources,omitempty" yaml:"resources,omitempty"`
	Tasks     []TaskSpec    `json:"tasks" yaml:"tasks"`
}

type RunStatus string

const (
	RunPending   RunStatus = "pending"
	RunRunning   RunStatus = "running"
	RunSucceeded RunStatus = "succeeded"
	RunFailed    RunStatus = "failed"
)
