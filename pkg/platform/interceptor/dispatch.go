package interceptor

import (
	"context"
	"fmt"

	"ordercore/pkg/platform/events"
)

// Notifier receives domain events synchronously, in-process. Handlers run
// before the commit is durable.
type Notifier interface {
	Notify(ctx context.Context, evt events.Event) error
}

// DispatchStage is the legacy alternative to outbox capture: drained domain
// events are handed to an in-process notifier immediately instead of being
// written to the outbox. If the process dies between dispatch and commit,
// handlers have seen events for a commit that never happened. Deployments
// pick this mode only where that is acceptable.
type DispatchStage struct {
	notifier Notifier
}

func NewDispatchStage(notifier Notifier) *DispatchStage {
	return &DispatchStage{notifier: notifier}
}

func (s *DispatchStage) Name() string { return "local-dispatch" }

func (s *DispatchStage) BeforeCommit(ctx context.Context, cs *ChangeSet) error {
	for _, e := range cs.Entries() {
		if e.State != StateAdded && e.State != StateModified {
			continue
		}
		recorder, ok := e.Entity.(events.Recorder)
		if !ok {
			continue
		}
		for _, evt := range recorder.DrainEvents() {
			if err := s.notifier.Notify(ctx, evt); err != nil {
				return fmt.Errorf("dispatch %s: %w", evt.EventName(), err)
			}
		}
	}
	return nil
}
