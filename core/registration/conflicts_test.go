package registration

import (
	"errors"
	"testing"
	"time"

	"github.com/trezcool/tamasha/core"
	"github.com/trezcool/tamasha/core/event"
)

func schedEvt(id int, name, date, start, end string) event.Event {
	d, err := time.ParseInLocation("2006-01-02", date, time.UTC)
	if err != nil {
		panic(err)
	}
	parse := func(v string) time.Time {
		t, err := time.ParseInLocation("15:04", v, time.UTC)
		if err != nil {
			panic(err)
		}
		return d.Add(time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute)
	}
	return event.Event{
		ID:       id,
		Name:     name,
		Chapter:  core.ChapterRAS,
		Date:     d,
		StartsAt: parse(start),
		EndsAt:   parse(end),
	}
}

func TestCheckSelectionOverlap(t *testing.T) {
	tests := []struct {
		name      string
		selection []event.Event
		wantClash string // conflicting event name; "" for no clash
	}{
		{name: "empty selection", selection: nil},
		{name: "single event", selection: []event.Event{schedEvt(1, "A", "2026-03-14", "09:00", "10:00")}},
		{
			name: "different dates never clash",
			selection: []event.Event{
				schedEvt(1, "A", "2026-03-14", "09:00", "10:00"),
				schedEvt(2, "B", "2026-03-15", "09:00", "10:00"),
			},
		},
		{
			name: "same date, disjoint times",
			selection: []event.Event{
				schedEvt(1, "A", "2026-03-14", "09:00", "09:59"),
				schedEvt(2, "B", "2026-03-14", "10:00", "11:00"),
			},
		},
		{
			name: "back-to-back boundaries clash",
			selection: []event.Event{
				schedEvt(1, "A", "2026-03-14", "09:00", "10:00"),
				schedEvt(2, "B", "2026-03-14", "10:00", "11:00"),
			},
			wantClash: "B",
		},
		{
			name: "partial overlap",
			selection: []event.Event{
				schedEvt(1, "A", "2026-03-14", "09:00", "10:30"),
				schedEvt(2, "B", "2026-03-14", "10:00", "11:00"),
			},
			wantClash: "B",
		},
		{
			name: "containment",
			selection: []event.Event{
				schedEvt(1, "A", "2026-03-14", "09:00", "12:00"),
				schedEvt(2, "B", "2026-03-14", "10:00", "11:00"),
			},
			wantClash: "B",
		},
		{
			name: "clash found beyond the first pair",
			selection: []event.Event{
				schedEvt(1, "A", "2026-03-14", "09:00", "10:00"),
				schedEvt(2, "B", "2026-03-14", "11:00", "12:00"),
				schedEvt(3, "C", "2026-03-14", "11:30", "12:30"),
			},
			wantClash: "C",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckSelectionOverlap(tt.selection)
			if tt.wantClash == "" {
				if err != nil {
					t.Fatalf("CheckSelectionOverlap() unexpected error = %v", err)
				}
				return
			}

			var conflictErr *ConflictError
			if !errors.As(err, &conflictErr) {
				t.Fatalf("CheckSelectionOverlap() error = %v, want *ConflictError", err)
			}
			if conflictErr.Kind != ConflictSchedule {
				t.Errorf("ConflictError.Kind = %s, want %s", conflictErr.Kind, ConflictSchedule)
			}
			if conflictErr.EventName != tt.wantClash {
				t.Errorf("ConflictError.EventName = %s, want %s", conflictErr.EventName, tt.wantClash)
			}
		})
	}
}

func TestConflictError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *ConflictError
		want string
	}{
		{
			name: "duplicate with event name",
			err:  &ConflictError{Kind: ConflictDuplicate, EventName: "Robo Race"},
			want: `you are already registered for "Robo Race"`,
		},
		{
			name: "duplicate without event name",
			err:  &ConflictError{Kind: ConflictDuplicate},
			want: "you are already registered for this event",
		},
		{
			name: "schedule clash",
			err:  &ConflictError{Kind: ConflictSchedule, EventName: "Robo Race"},
			want: `this selection clashes with the schedule of "Robo Race"`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("ConflictError.Error() = %s, want %s", got, tt.want)
			}
		})
	}
}
