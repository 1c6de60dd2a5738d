package dummydb

import (
	"context"
	"testing"

	"github.com/trezcool/tamasha/core/registration"
)

func TestRegistrationRepository_CreateRegistrations_storesDistinctRows(t *testing.T) {
	db, err := Open()
	if err != nil {
		t.Fatalf("Open() failed, %v", err)
	}
	repo := NewRegistrationRepository(db)
	ctx := context.Background()

	created, err := repo.CreateRegistrations(ctx, []registration.Registration{
		{EventID: 1, Name: "Asha Rao", Email: "asha@test.in", Phone: "9876543210", Amount: 100},
		{EventID: 2, Name: "Asha Rao", Email: "asha@test.in", Phone: "9876543210", Amount: 120},
	})
	if err != nil {
		t.Fatalf("CreateRegistrations() failed, %v", err)
	}
	if len(created) != 2 {
		t.Fatalf("got %d registrations, want 2", len(created))
	}

	// each stored row must keep its own fields, not those of the last
	// inserted row
	for _, want := range created {
		got, err := repo.GetRegistrationByID(ctx, want.ID)
		if err != nil {
			t.Fatalf("GetRegistrationByID(%d) failed, %v", want.ID, err)
		}
		if got.ID != want.ID || got.EventID != want.EventID || got.Amount != want.Amount {
			t.Errorf("stored row = {ID:%d EventID:%d Amount:%d}, want {ID:%d EventID:%d Amount:%d}",
				got.ID, got.EventID, got.Amount, want.ID, want.EventID, want.Amount)
		}
	}

	regs, err := repo.QueryRegistrationsByParticipant(ctx, "asha@test.in", "9876543210")
	if err != nil {
		t.Fatalf("QueryRegistrationsByParticipant() failed, %v", err)
	}
	if len(regs) != 2 {
		t.Fatalf("got %d registrations, want 2", len(regs))
	}
	if regs[0].EventID == regs[1].EventID {
		t.Errorf("both rows reference event %d; expected distinct events", regs[0].EventID)
	}

	// the re-registration guard must now see both events
	_, err = repo.CreateRegistrations(ctx, []registration.Registration{
		{EventID: 1, Name: "Asha Rao", Email: "asha@test.in", Phone: "9876543210", Amount: 100},
	})
	if err != registration.ErrAlreadyRegistered {
		t.Errorf("CreateRegistrations() error = %v, want ErrAlreadyRegistered", err)
	}
}
