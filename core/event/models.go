package event

import (
	"strings"
	"time"

	"github.com/trezcool/tamasha/core"
)

type Event struct {
	ID               int          `json:"id"`
	Name             string       `json:"name"`
	Chapter          core.Chapter `json:"chapter"`
	Description      string       `json:"description,omitempty"`
	Venue            string       `json:"venue,omitempty"`
	Date             time.Time    `json:"date"`      // midnight UTC
	StartsAt         time.Time    `json:"starts_at"` // on Date
	EndsAt           time.Time    `json:"ends_at"`   // on Date
	Fee              int          `json:"fee"`       // INR
	TeamMinSize      int          `json:"team_min_size,omitempty"`
	TeamMaxSize      int          `json:"team_max_size,omitempty"` // 0: individual event
	RegistrationOpen bool         `json:"registration_open"`
	CreatedAt        time.Time    `json:"created_at"` // UTC
	UpdatedAt        time.Time    `json:"updated_at"` // UTC
}

func (e Event) IsTeamEvent() bool {
	return e.TeamMaxSize > 0
}

func (e Event) SameDate(other Event) bool {
	y1, m1, d1 := e.Date.UTC().Date()
	y2, m2, d2 := other.Date.UTC().Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

// OverlapsWith reports whether both events run on the same date with
// intersecting [start, end] intervals. Boundaries are inclusive: an event
// ending at 10:00 overlaps one starting at 10:00.
func (e Event) OverlapsWith(other Event) bool {
	if !e.SameDate(other) {
		return false
	}
	return !e.StartsAt.After(other.EndsAt) && !e.EndsAt.Before(other.StartsAt)
}

// NewEvent contains information needed to create a new Event.
type NewEvent struct {
	Name             string `json:"name" validate:"required"`
	Chapter          string `json:"chapter" validate:"required,chapter"`
	Description      string `json:"description"`
	Venue            string `json:"venue"`
	Date             string `json:"date" validate:"required"`       // "2006-01-02"
	StartTime        string `json:"start_time" validate:"required"` // "15:04"
	EndTime          string `json:"end_time" validate:"required"`
	Fee              int    `json:"fee" validate:"gte=0"`
	TeamMinSize      int    `json:"team_min_size" validate:"gte=0"`
	TeamMaxSize      int    `json:"team_max_size" validate:"gte=0,gtefield=TeamMinSize"`
	RegistrationOpen bool   `json:"registration_open"`
}

func (ne *NewEvent) Validate() error {
	ne.Name = core.CleanString(ne.Name)
	ne.Chapter = strings.ToUpper(core.CleanString(ne.Chapter))
	ne.Venue = core.CleanString(ne.Venue)

	if err := core.Validate.Struct(ne); err != nil {
		return err
	}
	if _, _, _, err := parseSchedule(ne.Date, ne.StartTime, ne.EndTime); err != nil {
		return err
	}
	return nil
}

// UpdateEvent defines what information may be provided to modify an existing Event.
type UpdateEvent struct {
	Name             string `json:"name"`
	Description      string `json:"description"`
	Venue            string `json:"venue"`
	Date             string `json:"date"`
	StartTime        string `json:"start_time"`
	EndTime          string `json:"end_time"`
	Fee              *int   `json:"fee" validate:"omitempty,gte=0"`
	RegistrationOpen *bool  `json:"registration_open"`
}

func (ue *UpdateEvent) Validate(orig Event) error {
	ue.Name = core.CleanString(ue.Name)
	if ue.Name == "" {
		ue.Name = orig.Name
	}
	ue.Venue = core.CleanString(ue.Venue)
	if ue.Venue == "" {
		ue.Venue = orig.Venue
	}

	if err := core.Validate.Struct(ue); err != nil {
		return err
	}
	if ue.Date != "" || ue.StartTime != "" || ue.EndTime != "" {
		// a partial schedule change must still parse as a whole
		date, start, end := ue.Date, ue.StartTime, ue.EndTime
		if date == "" {
			date = orig.Date.Format(dateFormat)
		}
		if start == "" {
			start = orig.StartsAt.Format(timeFormat)
		}
		if end == "" {
			end = orig.EndsAt.Format(timeFormat)
		}
		if _, _, _, err := parseSchedule(date, start, end); err != nil {
			return err
		}
		ue.Date, ue.StartTime, ue.EndTime = date, start, end
	}
	return nil
}

type QueryFilter struct {
	Search   string    `query:"search"`
	Chapters []string  `query:"chapter"`
	Open     *bool     `query:"open"`
	DateFrom time.Time `query:"date_from"`
	DateTo   time.Time `query:"date_to"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.Chapters == nil && qf.Open == nil && qf.DateFrom.IsZero() && qf.DateTo.IsZero()
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}
