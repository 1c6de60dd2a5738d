package event

import (
	"errors"
	"testing"
	"time"

	"github.com/trezcool/tamasha/core"
)

func TestParseSchedule(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		date, start, end, err := parseSchedule("2026-03-14", "09:30", "11:00")
		if err != nil {
			t.Fatalf("parseSchedule() failed, %v", err)
		}
		wantDate := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
		if !date.Equal(wantDate) {
			t.Errorf("date = %v, want %v", date, wantDate)
		}
		if want := wantDate.Add(9*time.Hour + 30*time.Minute); !start.Equal(want) {
			t.Errorf("startsAt = %v, want %v", start, want)
		}
		if want := wantDate.Add(11 * time.Hour); !end.Equal(want) {
			t.Errorf("endsAt = %v, want %v", end, want)
		}
	})

	t.Run("start equals end", func(t *testing.T) {
		if _, _, _, err := parseSchedule("2026-03-14", "09:30", "09:30"); err != nil {
			t.Errorf("parseSchedule() failed, %v", err)
		}
	})

	errTests := []struct {
		name             string
		date, start, end string
		wantField        string
	}{
		{name: "bad date", date: "14/03/2026", start: "09:00", end: "10:00", wantField: "date"},
		{name: "bad start time", date: "2026-03-14", start: "9am", end: "10:00", wantField: "start_time"},
		{name: "bad end time", date: "2026-03-14", start: "09:00", end: "25:00", wantField: "end_time"},
		{name: "end precedes start", date: "2026-03-14", start: "10:00", end: "09:00", wantField: "end_time"},
	}
	for _, tt := range errTests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, _, err := parseSchedule(tt.date, tt.start, tt.end)
			var vErr *core.ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("parseSchedule() error = %v, want *core.ValidationError", err)
			}
			if len(vErr.Fields) != 1 || vErr.Fields[0].Field != tt.wantField {
				t.Errorf("ValidationError.Fields = %+v, want field %q", vErr.Fields, tt.wantField)
			}
		})
	}
}

func TestEvent_OverlapsWith(t *testing.T) {
	mk := func(date string, startHour, endHour int) Event {
		d, _ := time.ParseInLocation("2006-01-02", date, time.UTC)
		return Event{
			Date:     d,
			StartsAt: d.Add(time.Duration(startHour) * time.Hour),
			EndsAt:   d.Add(time.Duration(endHour) * time.Hour),
		}
	}

	tests := []struct {
		name string
		a, b Event
		want bool
	}{
		{name: "different dates", a: mk("2026-03-14", 9, 10), b: mk("2026-03-15", 9, 10), want: false},
		{name: "disjoint", a: mk("2026-03-14", 9, 10), b: mk("2026-03-14", 11, 12), want: false},
		{name: "shared boundary", a: mk("2026-03-14", 9, 10), b: mk("2026-03-14", 10, 11), want: true},
		{name: "partial overlap", a: mk("2026-03-14", 9, 11), b: mk("2026-03-14", 10, 12), want: true},
		{name: "containment", a: mk("2026-03-14", 9, 14), b: mk("2026-03-14", 10, 11), want: true},
		{name: "identical", a: mk("2026-03-14", 9, 10), b: mk("2026-03-14", 9, 10), want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.OverlapsWith(tt.b); got != tt.want {
				t.Errorf("OverlapsWith() = %v, want %v", got, tt.want)
			}
			// symmetry
			if got := tt.b.OverlapsWith(tt.a); got != tt.want {
				t.Errorf("OverlapsWith() (reversed) = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewEvent_Validate(t *testing.T) {
	valid := func() NewEvent {
		return NewEvent{
			Name:      "Robo Race",
			Chapter:   "ras",
			Date:      "2026-03-14",
			StartTime: "09:00",
			EndTime:   "10:00",
			Fee:       200,
		}
	}

	t.Run("valid, chapter is upper-cased", func(t *testing.T) {
		ne := valid()
		if err := ne.Validate(); err != nil {
			t.Fatalf("Validate() failed, %v", err)
		}
		if ne.Chapter != "RAS" {
			t.Errorf("Chapter = %s, want RAS", ne.Chapter)
		}
	})

	t.Run("unknown chapter", func(t *testing.T) {
		ne := valid()
		ne.Chapter = "XYZ"
		if err := ne.Validate(); err == nil {
			t.Error("Validate() expected an error for an unknown chapter")
		}
	})

	t.Run("negative fee", func(t *testing.T) {
		ne := valid()
		ne.Fee = -1
		if err := ne.Validate(); err == nil {
			t.Error("Validate() expected an error for a negative fee")
		}
	})

	t.Run("team max below min", func(t *testing.T) {
		ne := valid()
		ne.TeamMinSize = 3
		ne.TeamMaxSize = 2
		if err := ne.Validate(); err == nil {
			t.Error("Validate() expected an error for team_max_size < team_min_size")
		}
	})

	t.Run("bad schedule", func(t *testing.T) {
		ne := valid()
		ne.EndTime = "08:00"
		if err := ne.Validate(); err == nil {
			t.Error("Validate() expected an error for end before start")
		}
	})
}
