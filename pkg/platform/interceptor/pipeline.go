package interceptor

import (
	"context"
	"fmt"
)

// Interceptor is one before-commit stage. Stages must not perform I/O;
// they run inside commit preparation and a failure aborts the commit.
type Interceptor interface {
	Name() string
	BeforeCommit(ctx context.Context, cs *ChangeSet) error
}

// Pipeline is a statically ordered list of stages. The order is fixed at
// construction so the guarantees stay auditable; there is no registration
// or discovery after the fact.
type Pipeline struct {
	stages []Interceptor
}

// NewPipeline builds the standard pipeline: audit stamping, soft-delete
// rewrite, then domain-event capture into the outbox.
func NewPipeline(capture *CaptureStage) *Pipeline {
	return &Pipeline{stages: []Interceptor{
		auditStage{},
		softDeleteStage{},
		capture,
	}}
}

// NewDispatchPipeline builds the legacy variant that publishes domain
// events in-process before commit instead of writing them to the outbox.
// A crash between dispatch and commit can lose the commit after handlers
// already observed the events; deployments accept that trade-off when they
// choose this mode. The two capture modes are mutually exclusive: a
// pipeline carries one or the other, never both.
func NewDispatchPipeline(dispatch *DispatchStage) *Pipeline {
	return &Pipeline{stages: []Interceptor{
		auditStage{},
		softDeleteStage{},
		dispatch,
	}}
}

// BeforeCommit runs every stage in order and stops at the first failure.
func (p *Pipeline) BeforeCommit(ctx context.Context, cs *ChangeSet) error {
	for _, stage := range p.stages {
		if err := stage.BeforeCommit(ctx, cs); err != nil {
			return fmt.Errorf("interceptor %s: %w", stage.Name(), err)
		}
	}
	return nil
}
