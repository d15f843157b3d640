package interceptor

import (
	"context"
	"fmt"

	"ordercore/pkg/platform/events"
	"ordercore/pkg/platform/outbox"
	"ordercore/pkg/requestcontext"
)

// CaptureStage drains domain events from every created-or-modified
// aggregate in the change set, maps them to integration events, and stages
// one outbox message per integration event. The messages are inserted by
// the execution scope in the same transaction as the business rows.
type CaptureStage struct {
	mapper events.Mapper
}

// NewCaptureStage builds the capture stage around a bounded context's
// domain-to-integration mapper. The mapper must be pure; anything it needs
// has to travel on the events themselves.
func NewCaptureStage(mapper events.Mapper) *CaptureStage {
	return &CaptureStage{mapper: mapper}
}

func (s *CaptureStage) Name() string { return "outbox-capture" }

// BeforeCommit visits every qualifying aggregate. An aggregate whose events
// map to nothing must not stop the sweep; aggregates tracked after it still
// get drained.
func (s *CaptureStage) BeforeCommit(ctx context.Context, cs *ChangeSet) error {
	now := requestcontext.Now(ctx)
	for _, e := range cs.Entries() {
		if e.State != StateAdded && e.State != StateModified {
			continue
		}
		recorder, ok := e.Entity.(events.Recorder)
		if !ok {
			continue
		}
		drained := recorder.DrainEvents()
		if len(drained) == 0 {
			continue
		}
		for _, evt := range s.mapper.Map(drained) {
			msg, err := outbox.NewMessage(evt, now)
			if err != nil {
				return fmt.Errorf("capture %s: %w", evt.Type, err)
			}
			cs.StageOutbox(msg)
		}
	}
	return nil
}
