package dummydb

import (
	"context"
	"sort"
	"strings"

	"github.com/trezcool/tamasha/core/event"
)

var eventPKCount int

type eventRepository struct {
	db *eventTable
}

var _ event.Repository = (*eventRepository)(nil) // interface compliance check

func NewEventRepository(db *DB) event.Repository {
	return &eventRepository{db: db.event}
}

func (repo *eventRepository) query() []event.Event {
	events := make([]event.Event, 0, len(repo.db.table))
	for _, e := range repo.db.table {
		events = append(events, *e)
	}
	sort.Slice(events, func(i, j int) bool { return events[i].ID < events[j].ID })
	return events
}

func (repo *eventRepository) CreateEvent(_ context.Context, evt event.Event) (event.Event, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	eventPKCount++
	evt.ID = eventPKCount
	repo.db.table[evt.ID] = &evt
	return evt, nil
}

func (repo *eventRepository) GetEventByID(_ context.Context, id int) (event.Event, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if evt, ok := repo.db.table[id]; ok {
		return *evt, nil
	}
	return event.Event{}, event.ErrNotFound
}

func (repo *eventRepository) GetEventsByID(_ context.Context, ids ...int) ([]event.Event, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	events := make([]event.Event, 0, len(ids))
	for _, id := range ids {
		evt, ok := repo.db.table[id]
		if !ok {
			return nil, event.ErrNotFound
		}
		events = append(events, *evt)
	}
	return events, nil
}

func (repo *eventRepository) QueryAllEvents(_ context.Context) ([]event.Event, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return repo.query(), nil
}

func (repo *eventRepository) FilterEvents(_ context.Context, filter event.QueryFilter) ([]event.Event, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	events := repo.query()

	if filter.Search != "" {
		var filtered []event.Event
		for _, e := range events {
			if strings.Contains(strings.ToLower(e.Name), strings.ToLower(filter.Search)) ||
				strings.Contains(strings.ToLower(e.Venue), strings.ToLower(filter.Search)) {
				filtered = append(filtered, e)
			}
		}
		events = filtered
	}
	if events != nil && len(filter.Chapters) > 0 {
		var filtered []event.Event
		for _, e := range events {
			for _, ch := range filter.Chapters {
				if strings.EqualFold(string(e.Chapter), ch) {
					filtered = append(filtered, e)
					break
				}
			}
		}
		events = filtered
	}
	if events != nil && filter.Open != nil {
		var filtered []event.Event
		for _, e := range events {
			if e.RegistrationOpen == *filter.Open {
				filtered = append(filtered, e)
			}
		}
		events = filtered
	}
	if events != nil && !filter.DateFrom.IsZero() {
		var filtered []event.Event
		fromUTC := filter.DateFrom.UTC()
		for _, e := range events {
			if e.Date.Equal(fromUTC) || e.Date.After(fromUTC) {
				filtered = append(filtered, e)
			}
		}
		events = filtered
	}
	if events != nil && !filter.DateTo.IsZero() {
		var filtered []event.Event
		toUTC := filter.DateTo.UTC()
		for _, e := range events {
			if e.Date.Before(toUTC) || e.Date.Equal(toUTC) {
				filtered = append(filtered, e)
			}
		}
		events = filtered
	}

	return events, nil
}

func (repo *eventRepository) UpdateEvent(_ context.Context, evt event.Event, registrationOpen *bool) (event.Event, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	origEvt, ok := repo.db.table[evt.ID]
	if !ok {
		return event.Event{}, event.ErrNotFound
	}
	if evt.Name != "" {
		origEvt.Name = evt.Name
	}
	if evt.Description != "" {
		origEvt.Description = evt.Description
	}
	if evt.Venue != "" {
		origEvt.Venue = evt.Venue
	}
	if !evt.Date.IsZero() {
		origEvt.Date = evt.Date
		origEvt.StartsAt = evt.StartsAt
		origEvt.EndsAt = evt.EndsAt
	}
	origEvt.Fee = evt.Fee
	if registrationOpen != nil {
		origEvt.RegistrationOpen = *registrationOpen
	}
	origEvt.UpdatedAt = evt.UpdatedAt

	repo.db.table[evt.ID] = origEvt
	return *origEvt, nil
}

func (repo *eventRepository) DeleteEventsByID(_ context.Context, ids ...int) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	for _, id := range ids {
		delete(repo.db.table, id)
	}
	return nil
}
