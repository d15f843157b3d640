package interceptor

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"ordercore/pkg/platform/events"
	"ordercore/pkg/requestcontext"
)

// widget is a test aggregate with all three capabilities.
type widget struct {
	ID        uuid.UUID
	Name      string
	IsDeleted bool
	DeletedAt *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time

	pending []events.Event
}

func (w *widget) AuditCreatedAt() time.Time     { return w.CreatedAt }
func (w *widget) SetAuditCreatedAt(t time.Time) { w.CreatedAt = t }
func (w *widget) SetAuditUpdatedAt(t time.Time) { w.UpdatedAt = t }

func (w *widget) MarkDeleted(at time.Time) {
	w.IsDeleted = true
	w.DeletedAt = &at
}

func (w *widget) DrainEvents() []events.Event {
	drained := w.pending
	w.pending = nil
	return drained
}

// gadget has no capabilities at all.
type gadget struct {
	ID uuid.UUID
}

type widgetRenamed struct {
	WidgetID uuid.UUID
	At       time.Time
}

func (widgetRenamed) EventName() string       { return "WidgetRenamed" }
func (e widgetRenamed) OccurredAt() time.Time { return e.At }

// silentEvent maps to no integration event.
type silentEvent struct {
	At time.Time
}

func (silentEvent) EventName() string       { return "SilentEvent" }
func (e silentEvent) OccurredAt() time.Time { return e.At }

// recordingPersister records the states entities were flushed with.
type recordingPersister struct {
	inserted []any
	updated  []any
	deleted  []any
}

func (p *recordingPersister) Insert(_ context.Context, e any) error {
	p.inserted = append(p.inserted, e)
	return nil
}

func (p *recordingPersister) Update(_ context.Context, e any) error {
	p.updated = append(p.updated, e)
	return nil
}

func (p *recordingPersister) Delete(_ context.Context, e any) error {
	p.deleted = append(p.deleted, e)
	return nil
}

func testMapper() events.MapperFunc {
	return func(domainEvents []events.Event) []events.Integration {
		var out []events.Integration
		for _, evt := range domainEvents {
			e, ok := evt.(widgetRenamed)
			if !ok {
				continue
			}
			out = append(out, events.Integration{
				ID:            uuid.New(),
				Type:          "widget.renamed",
				OccurredOnUTC: e.At.UTC(),
				Payload:       map[string]string{"widget_id": e.WidgetID.String()},
			})
		}
		return out
	}
}

type PipelineSuite struct {
	suite.Suite
	now   time.Time
	ctx   context.Context
	store *recordingPersister
}

func TestPipelineSuite(t *testing.T) {
	suite.Run(t, new(PipelineSuite))
}

func (s *PipelineSuite) SetupTest() {
	s.now = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
	s.store = &recordingPersister{}
}

func (s *PipelineSuite) SetupSubTest() {
	s.SetupTest()
}

func (s *PipelineSuite) pipeline() *Pipeline {
	return NewPipeline(NewCaptureStage(testMapper()))
}

func (s *PipelineSuite) TestAuditStamping() {
	s.Run("stamps CreatedAt and UpdatedAt on new entities", func() {
		w := &widget{ID: uuid.New()}
		cs := NewChangeSet()
		cs.TrackNew(w, s.store)

		s.Require().NoError(s.pipeline().BeforeCommit(s.ctx, cs))

		s.Equal(s.now, w.CreatedAt)
		s.Equal(s.now, w.UpdatedAt)
	})

	s.Run("keeps an explicitly set CreatedAt", func() {
		imported := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
		w := &widget{ID: uuid.New(), CreatedAt: imported}
		cs := NewChangeSet()
		cs.TrackNew(w, s.store)

		s.Require().NoError(s.pipeline().BeforeCommit(s.ctx, cs))

		s.Equal(imported, w.CreatedAt)
		s.Equal(s.now, w.UpdatedAt)
	})

	s.Run("refreshes only UpdatedAt on modified entities", func() {
		created := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
		w := &widget{ID: uuid.New(), CreatedAt: created, UpdatedAt: created}
		cs := NewChangeSet()
		cs.TrackModified(w, s.store)

		s.Require().NoError(s.pipeline().BeforeCommit(s.ctx, cs))

		s.Equal(created, w.CreatedAt)
		s.Equal(s.now, w.UpdatedAt)
	})

	s.Run("every entity in one commit carries the same instant", func() {
		w1 := &widget{ID: uuid.New()}
		w2 := &widget{ID: uuid.New()}
		cs := NewChangeSet()
		cs.TrackNew(w1, s.store)
		cs.TrackModified(w2, s.store)

		s.Require().NoError(s.pipeline().BeforeCommit(s.ctx, cs))

		s.Equal(w1.UpdatedAt, w2.UpdatedAt)
	})
}

func (s *PipelineSuite) TestSoftDeleteRewrite() {
	s.Run("rewrites deletion of a soft-deletable entity to an update", func() {
		w := &widget{ID: uuid.New()}
		cs := NewChangeSet()
		cs.TrackDeleted(w, s.store)

		s.Require().NoError(s.pipeline().BeforeCommit(s.ctx, cs))
		s.Require().NoError(cs.Flush(s.ctx))

		s.True(w.IsDeleted)
		s.Require().NotNil(w.DeletedAt)
		s.Equal(s.now, *w.DeletedAt)
		s.Equal(s.now, w.UpdatedAt)
		s.Len(s.store.updated, 1)
		s.Empty(s.store.deleted)
	})

	s.Run("deletes entities without the capability physically", func() {
		g := &gadget{ID: uuid.New()}
		cs := NewChangeSet()
		cs.TrackDeleted(g, s.store)

		s.Require().NoError(s.pipeline().BeforeCommit(s.ctx, cs))
		s.Require().NoError(cs.Flush(s.ctx))

		s.Len(s.store.deleted, 1)
		s.Empty(s.store.updated)
	})
}

func (s *PipelineSuite) TestEventCapture() {
	s.Run("stages one outbox message per mapped event", func() {
		w := &widget{ID: uuid.New()}
		w.pending = []events.Event{widgetRenamed{WidgetID: w.ID, At: s.now}}
		cs := NewChangeSet()
		cs.TrackModified(w, s.store)

		s.Require().NoError(s.pipeline().BeforeCommit(s.ctx, cs))

		staged := cs.StagedOutbox()
		s.Require().Len(staged, 1)
		s.Equal("widget.renamed", staged[0].Type)
		s.Equal(s.now, staged[0].OccurredOnUTC)
		s.True(staged[0].Pending())

		var payload map[string]string
		s.Require().NoError(json.Unmarshal(staged[0].Content, &payload))
		s.Equal(w.ID.String(), payload["widget_id"])
	})

	s.Run("drains every aggregate even when an earlier one maps to nothing", func() {
		silent := &widget{ID: uuid.New()}
		silent.pending = []events.Event{silentEvent{At: s.now}}
		loud := &widget{ID: uuid.New()}
		loud.pending = []events.Event{widgetRenamed{WidgetID: loud.ID, At: s.now}}

		cs := NewChangeSet()
		cs.TrackModified(silent, s.store)
		cs.TrackModified(loud, s.store)

		s.Require().NoError(s.pipeline().BeforeCommit(s.ctx, cs))

		staged := cs.StagedOutbox()
		s.Require().Len(staged, 1)
		s.Equal("widget.renamed", staged[0].Type)
		s.Empty(silent.pending)
		s.Empty(loud.pending)
	})

	s.Run("ignores events on deleted entities that stayed deleted", func() {
		g := &gadget{ID: uuid.New()}
		cs := NewChangeSet()
		cs.TrackDeleted(g, s.store)

		s.Require().NoError(s.pipeline().BeforeCommit(s.ctx, cs))
		s.Empty(cs.StagedOutbox())
	})

	s.Run("second drain within the same commit yields nothing", func() {
		w := &widget{ID: uuid.New()}
		w.pending = []events.Event{widgetRenamed{WidgetID: w.ID, At: s.now}}
		cs := NewChangeSet()
		cs.TrackModified(w, s.store)

		s.Require().NoError(s.pipeline().BeforeCommit(s.ctx, cs))
		s.Require().NoError(s.pipeline().BeforeCommit(s.ctx, cs))

		s.Len(cs.StagedOutbox(), 1)
	})
}

// notifierFunc adapts a function to the Notifier interface.
type notifierFunc func(ctx context.Context, evt events.Event) error

func (f notifierFunc) Notify(ctx context.Context, evt events.Event) error { return f(ctx, evt) }

func (s *PipelineSuite) TestDispatchPipeline() {
	s.Run("hands events to the notifier instead of the outbox", func() {
		var seen []string
		p := NewDispatchPipeline(NewDispatchStage(notifierFunc(func(_ context.Context, evt events.Event) error {
			seen = append(seen, evt.EventName())
			return nil
		})))

		w := &widget{ID: uuid.New()}
		w.pending = []events.Event{widgetRenamed{WidgetID: w.ID, At: s.now}}
		cs := NewChangeSet()
		cs.TrackModified(w, s.store)

		s.Require().NoError(p.BeforeCommit(s.ctx, cs))

		s.Equal([]string{"WidgetRenamed"}, seen)
		s.Empty(cs.StagedOutbox())
		s.Equal(s.now, w.UpdatedAt, "audit stage still runs in dispatch mode")
	})
}
