package interceptor

import (
	"context"

	"ordercore/pkg/requestcontext"
)

// softDeleteStage rewrites physical deletes of SoftDeletable entities into
// flagged updates: the entry becomes a modification with IsDeleted set and
// DeletedAt stamped. Entities without the capability still delete
// physically, so the choice is per-entity, not per-deployment.
//
// Runs after audit stamping so the rewritten entry keeps the UpdatedAt it
// would have had as a plain modification.
type softDeleteStage struct{}

func (softDeleteStage) Name() string { return "soft-delete" }

func (softDeleteStage) BeforeCommit(ctx context.Context, cs *ChangeSet) error {
	now := requestcontext.Now(ctx).UTC()
	for _, e := range cs.Entries() {
		if e.State != StateDeleted {
			continue
		}
		deletable, ok := e.Entity.(SoftDeletable)
		if !ok {
			continue
		}
		e.State = StateModified
		deletable.MarkDeleted(now)
		if auditable, ok := e.Entity.(Auditable); ok {
			auditable.SetAuditUpdatedAt(now)
		}
	}
	return nil
}
