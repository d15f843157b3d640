package interceptor

import (
	"context"

	"ordercore/pkg/requestcontext"
)

// auditStage stamps audit columns on every tracked Auditable entity.
// New entities get CreatedAt unless the caller already set one explicitly;
// created-or-modified entities always get a fresh UpdatedAt. The instant
// comes from requestcontext.Now so one commit carries one timestamp.
type auditStage struct{}

func (auditStage) Name() string { return "audit" }

func (auditStage) BeforeCommit(ctx context.Context, cs *ChangeSet) error {
	now := requestcontext.Now(ctx).UTC()
	for _, e := range cs.Entries() {
		auditable, ok := e.Entity.(Auditable)
		if !ok {
			continue
		}
		switch e.State {
		case StateAdded:
			if auditable.AuditCreatedAt().IsZero() {
				auditable.SetAuditCreatedAt(now)
			}
			auditable.SetAuditUpdatedAt(now)
		case StateModified:
			auditable.SetAuditUpdatedAt(now)
		}
	}
	return nil
}
