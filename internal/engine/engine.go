// Package engine defines the execution side of a pipeline run: the interface
// the session drives, and the engines that implement it.
package engine

import (
	"context"
	"errors"
	"time"
)

// ErrUnknownTask is returned when a per-task resource override names a task
// that is not part of the pipeline.
var ErrUnknownTask = errors.New("engine: no such task")

// NonDistributed lists execution plugins known to run on a single host only.
// Any other plugin may watch job completion across a networked file system,
// whose metadata caching can lag behind the writer; the session raises the
// engine's job wait timeout for those so a slow cache is not mistaken for an
// unfinished job.
var NonDistributed = map[string]bool{
	"local":     true,
	"debug":     true,
	"multiproc": true,
}

// Task is one schedulable unit of the pipeline. The session assigns the
// submission attributes before the run starts.
type Task struct {
	Name       string
	UseMPI     bool   // task must be launched MPI-aware
	SubmitArgs string // per-task scheduler argument string, opaque
}

// Engine runs a pipeline to completion. It owns the working directory once
// assigned: it creates the directory if absent and dispatches tasks to
// whatever execution substrate it fronts.
type Engine interface {
	// SetWorkDir assigns the working directory for this run.
	SetWorkDir(dir string)
	// WriteGraph persists a structural representation of the pipeline.
	WriteGraph() error
	// Task looks up a named task so submission attributes can be assigned.
	Task(name string) (*Task, error)
	// SetJobWaitTimeout raises how long the engine keeps waiting for
	// evidence that a job finished.
	SetJobWaitTimeout(d time.Duration)
	// Run executes the pipeline. schedulerID and submitArgs are handed to
	// the underlying job dispatch; submitArgs is opaque scheduler syntax.
	Run(ctx context.Context, schedulerID, submitArgs string) error
}
