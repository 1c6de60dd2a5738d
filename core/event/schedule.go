package event

import (
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/tamasha/core"
)

// chapterOf maps an already-validated chapter code to its enum value.
func chapterOf(code string) core.Chapter {
	return core.Chapter(code)
}

// parseSchedule parses a "2006-01-02" date plus "15:04" start/end times into
// UTC timestamps anchored on that date. End must not precede start.
func parseSchedule(date, start, end string) (time.Time, time.Time, time.Time, error) {
	var zero time.Time

	d, err := time.ParseInLocation(dateFormat, date, time.UTC)
	if err != nil {
		return zero, zero, zero, core.NewValidationError(
			errors.New("invalid date"), core.FieldError{Field: "date", Error: "expected format " + dateFormat})
	}
	s, err := time.ParseInLocation(timeFormat, start, time.UTC)
	if err != nil {
		return zero, zero, zero, core.NewValidationError(
			errors.New("invalid start time"), core.FieldError{Field: "start_time", Error: "expected format " + timeFormat})
	}
	e, err := time.ParseInLocation(timeFormat, end, time.UTC)
	if err != nil {
		return zero, zero, zero, core.NewValidationError(
			errors.New("invalid end time"), core.FieldError{Field: "end_time", Error: "expected format " + timeFormat})
	}

	startsAt := d.Add(time.Duration(s.Hour())*time.Hour + time.Duration(s.Minute())*time.Minute)
	endsAt := d.Add(time.Duration(e.Hour())*time.Hour + time.Duration(e.Minute())*time.Minute)
	if endsAt.Before(startsAt) {
		return zero, zero, zero, core.NewValidationError(
			errors.New("invalid schedule"), core.FieldError{Field: "end_time", Error: "must not precede start_time"})
	}
	return d, startsAt, endsAt, nil
}
