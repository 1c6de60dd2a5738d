package event

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

var ErrNotFound = errors.New("event not found")

const (
	dateFormat = "2006-01-02"
	timeFormat = "15:04"
)

type (
	Repository interface {
		CreateEvent(ctx context.Context, evt Event) (Event, error)
		GetEventByID(ctx context.Context, id int) (Event, error)
		// GetEventsByID returns ErrNotFound if any of the ids is unknown.
		GetEventsByID(ctx context.Context, ids ...int) ([]Event, error)
		QueryAllEvents(ctx context.Context) ([]Event, error)
		// FilterEvents applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on Event.Name or Event.Venue.
		FilterEvents(ctx context.Context, filter QueryFilter) ([]Event, error)
		UpdateEvent(ctx context.Context, evt Event, registrationOpen *bool) (Event, error)
		DeleteEventsByID(ctx context.Context, ids ...int) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Create(ctx context.Context, ne NewEvent) (Event, error) {
	date, start, end, err := parseSchedule(ne.Date, ne.StartTime, ne.EndTime)
	if err != nil {
		return Event{}, err
	}

	now := time.Now().UTC()
	evt := Event{
		Name:             ne.Name,
		Chapter:          chapterOf(ne.Chapter),
		Description:      ne.Description,
		Venue:            ne.Venue,
		Date:             date,
		StartsAt:         start,
		EndsAt:           end,
		Fee:              ne.Fee,
		TeamMinSize:      ne.TeamMinSize,
		TeamMaxSize:      ne.TeamMaxSize,
		RegistrationOpen: ne.RegistrationOpen,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	return svc.repo.CreateEvent(ctx, evt)
}

func (svc *Service) QueryAll(ctx context.Context) ([]Event, error) {
	return svc.repo.QueryAllEvents(ctx)
}

// QueryOpen returns the events currently accepting registrations.
func (svc *Service) QueryOpen(ctx context.Context) ([]Event, error) {
	open := true
	return svc.repo.FilterEvents(ctx, QueryFilter{Open: &open})
}

func (svc *Service) GetByID(ctx context.Context, id int) (Event, error) {
	return svc.repo.GetEventByID(ctx, id)
}

func (svc *Service) GetByIDs(ctx context.Context, ids ...int) ([]Event, error) {
	return svc.repo.GetEventsByID(ctx, ids...)
}

func (svc *Service) Filter(ctx context.Context, filter QueryFilter) ([]Event, error) {
	return svc.repo.FilterEvents(ctx, filter)
}

func (svc *Service) Update(ctx context.Context, id int, ue UpdateEvent) (Event, error) {
	orig, err := svc.repo.GetEventByID(ctx, id)
	if err != nil {
		return Event{}, err
	}

	evt := Event{
		ID:          id,
		Name:        ue.Name,
		Description: ue.Description,
		Venue:       ue.Venue,
		Date:        orig.Date,
		StartsAt:    orig.StartsAt,
		EndsAt:      orig.EndsAt,
		Fee:         orig.Fee,
		UpdatedAt:   time.Now().UTC(),
	}
	if ue.Date != "" {
		date, start, end, err := parseSchedule(ue.Date, ue.StartTime, ue.EndTime)
		if err != nil {
			return Event{}, err
		}
		evt.Date, evt.StartsAt, evt.EndsAt = date, start, end
	}
	if ue.Fee != nil {
		evt.Fee = *ue.Fee
	}
	return svc.repo.UpdateEvent(ctx, evt, ue.RegistrationOpen)
}

func (svc *Service) Delete(ctx context.Context, ids ...int) error {
	return svc.repo.DeleteEventsByID(ctx, ids...)
}
