package board

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"

	"planflow-api/domain"
)

var lastEventTimestamp int64

// nextEventTimestamp returns a strictly increasing nanosecond timestamp so
// downstream consumers can order events from one instance.
func nextEventTimestamp() int64 {
	for {
		now := time.Now().UnixNano()
		last := atomic.LoadInt64(&lastEventTimestamp)
		if now <= last {
			now = last + 1
		}
		if atomic.CompareAndSwapInt64(&lastEventTimestamp, last, now) {
			return now
		}
	}
}

// eventsFromDiff translates a persisted entity diff into board events.
func eventsFromDiff(d Diff) []domain.Event {
	var out []domain.Event

	task := func(typ string, t domain.Task) {
		data, err := sonic.Marshal(t)
		if err != nil {
			return
		}
		out = append(out, domain.Event{
			ID:         uuid.NewString(),
			EntityType: "task",
			EntityID:   t.ID,
			Type:       typ,
			Data:       data,
			Timestamp:  nextEventTimestamp(),
		})
	}
	category := func(typ string, c domain.Category) {
		data, err := sonic.Marshal(c)
		if err != nil {
			return
		}
		out = append(out, domain.Event{
			ID:         uuid.NewString(),
			EntityType: "category",
			EntityID:   c.ID,
			Type:       typ,
			Data:       data,
			Timestamp:  nextEventTimestamp(),
		})
	}

	for _, c := range d.CategoriesCreated {
		category(domain.EventCategoryCreated, c)
	}
	for _, ch := range d.CategoriesChanged {
		category(domain.EventCategoryUpdated, ch.After)
	}
	for _, c := range d.CategoriesDeleted {
		category(domain.EventCategoryDeleted, c)
	}
	for _, t := range d.TasksCreated {
		task(domain.EventTaskCreated, t)
	}
	for _, ch := range d.TasksChanged {
		task(domain.EventTaskUpdated, ch.After)
	}
	for _, t := range d.TasksDeleted {
		task(domain.EventTaskDeleted, t)
	}
	return out
}

// publishDiff emits events for a persisted diff. Failures are logged and
// never surfaced; the table store already holds the truth.
func (s *Service) publishDiff(ctx context.Context, userID string, d Diff) {
	if s.events == nil || d.Empty() {
		return
	}
	events := eventsFromDiff(d)
	if len(events) == 0 {
		return
	}
	if err := s.events.PublishEvents(ctx, userID, events); err != nil {
		s.logger.WithError(err).Warnf("event publish failed, user: %s, events: %d", userID, len(events))
	}
}
