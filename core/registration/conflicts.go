package registration

import (
	"context"
	"fmt"

	"github.com/trezcool/tamasha/core/event"
)

type ConflictKind string

const (
	ConflictDuplicate ConflictKind = "duplicate"
	ConflictSchedule  ConflictKind = "schedule"
)

// ConflictError rejects a submission as a duplicate or a schedule clash.
// It carries the name of the conflicting event so the participant can be
// told exactly what clashed.
type ConflictError struct {
	Kind      ConflictKind
	EventName string
}

func (e *ConflictError) Error() string {
	switch e.Kind {
	case ConflictDuplicate:
		if e.EventName == "" {
			return "you are already registered for this event"
		}
		return fmt.Sprintf("you are already registered for %q", e.EventName)
	default:
		return fmt.Sprintf("this selection clashes with the schedule of %q", e.EventName)
	}
}

// CheckSelectionOverlap rejects a selection containing two events that run
// on the same date with overlapping time intervals. Boundaries are
// inclusive: back-to-back events sharing an endpoint clash.
func CheckSelectionOverlap(selection []event.Event) error {
	for i := 0; i < len(selection); i++ {
		for j := i + 1; j < len(selection); j++ {
			if selection[i].OverlapsWith(selection[j]) {
				return &ConflictError{Kind: ConflictSchedule, EventName: selection[j].Name}
			}
		}
	}
	return nil
}

// checkConflicts runs the ordered eligibility checks for a participant
// identity against a candidate selection, before anything is persisted:
//  1. an existing registration for the same (email, phone, event): duplicate;
//  2. an existing registration whose event overlaps a candidate: schedule clash;
//  3. two candidates overlapping each other: schedule clash.
//
// These reads are advisory; the persistence layer's uniqueness guarantee
// (see Repository.CreateRegistrations) closes the remaining race.
func (svc *Service) checkConflicts(ctx context.Context, email, phone string, selection []event.Event) error {
	existing, err := svc.repo.QueryRegistrationsByParticipant(ctx, email, phone)
	if err != nil {
		return err
	}

	for _, evt := range selection {
		for _, reg := range existing {
			if reg.EventID == evt.ID {
				return &ConflictError{Kind: ConflictDuplicate, EventName: evt.Name}
			}
		}
	}

	if len(existing) > 0 {
		ids := make([]int, 0, len(existing))
		seen := make(map[int]bool, len(existing))
		for _, reg := range existing {
			if !seen[reg.EventID] {
				seen[reg.EventID] = true
				ids = append(ids, reg.EventID)
			}
		}
		registered, err := svc.eventRepo.GetEventsByID(ctx, ids...)
		if err != nil {
			return err
		}
		for _, evt := range selection {
			for _, other := range registered {
				if evt.OverlapsWith(other) {
					return &ConflictError{Kind: ConflictSchedule, EventName: other.Name}
				}
			}
		}
	}

	return CheckSelectionOverlap(selection)
}
