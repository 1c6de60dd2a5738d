package dummydb

import (
	"context"
	"sort"
	"strings"

	"github.com/trezcool/tamasha/core/registration"
)

var (
	regPKCount int
	payPKCount int
)

type registrationRepository struct {
	db *registrationTable
}

var _ registration.Repository = (*registrationRepository)(nil) // interface compliance check

func NewRegistrationRepository(db *DB) registration.Repository {
	return &registrationRepository{db: db.registration}
}

func (repo *registrationRepository) query() []registration.Registration {
	regs := make([]registration.Registration, 0, len(repo.db.table))
	for _, r := range repo.db.table {
		regs = append(regs, *r)
	}
	sort.Slice(regs, func(i, j int) bool { return regs[i].ID < regs[j].ID })
	return regs
}

// CreateRegistrations re-checks (email, phone, event) uniqueness under the
// write lock so two near-simultaneous submissions cannot both slip past the
// advisory conflict check. All rows are inserted or none.
func (repo *registrationRepository) CreateRegistrations(_ context.Context, regs []registration.Registration) ([]registration.Registration, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, reg := range regs {
		for _, existing := range repo.db.table {
			if existing.Email == reg.Email && existing.Phone == reg.Phone && existing.EventID == reg.EventID {
				return nil, registration.ErrAlreadyRegistered
			}
		}
	}

	created := make([]registration.Registration, 0, len(regs))
	for i := range regs {
		regPKCount++
		reg := regs[i]
		reg.ID = regPKCount
		repo.db.table[reg.ID] = &reg
		created = append(created, reg)
	}
	return created, nil
}

func (repo *registrationRepository) GetRegistrationByID(_ context.Context, id int) (registration.Registration, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if reg, ok := repo.db.table[id]; ok {
		return *reg, nil
	}
	return registration.Registration{}, registration.ErrNotFound
}

func (repo *registrationRepository) QueryRegistrationsByParticipant(_ context.Context, email, phone string) ([]registration.Registration, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var regs []registration.Registration
	for _, reg := range repo.query() {
		if reg.Email == email && reg.Phone == phone {
			regs = append(regs, reg)
		}
	}
	return regs, nil
}

func (repo *registrationRepository) FilterRegistrations(_ context.Context, filter registration.QueryFilter) ([]registration.Registration, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	regs := repo.query()

	if filter.Search != "" {
		var filtered []registration.Registration
		for _, r := range regs {
			if strings.Contains(strings.ToLower(r.Name), strings.ToLower(filter.Search)) ||
				strings.Contains(strings.ToLower(r.Email), strings.ToLower(filter.Search)) ||
				strings.Contains(r.Phone, filter.Search) ||
				strings.Contains(strings.ToLower(r.TransactionID), strings.ToLower(filter.Search)) {
				filtered = append(filtered, r)
			}
		}
		regs = filtered
	}
	if regs != nil && len(filter.EventIDs) > 0 {
		var filtered []registration.Registration
		for _, r := range regs {
			for _, id := range filter.EventIDs {
				if r.EventID == id {
					filtered = append(filtered, r)
					break
				}
			}
		}
		regs = filtered
	}
	if regs != nil && len(filter.Statuses) > 0 {
		var filtered []registration.Registration
		for _, r := range regs {
			for _, s := range filter.Statuses {
				if string(r.Status) == s {
					filtered = append(filtered, r)
					break
				}
			}
		}
		regs = filtered
	}
	if regs != nil && len(filter.PaymentStatuses) > 0 {
		var filtered []registration.Registration
		for _, r := range regs {
			for _, s := range filter.PaymentStatuses {
				if string(r.PaymentStatus) == s {
					filtered = append(filtered, r)
					break
				}
			}
		}
		regs = filtered
	}
	if regs != nil && !filter.CreatedFrom.IsZero() {
		var filtered []registration.Registration
		fromUTC := filter.CreatedFrom.UTC()
		for _, r := range regs {
			if r.CreatedAt.Equal(fromUTC) || r.CreatedAt.After(fromUTC) {
				filtered = append(filtered, r)
			}
		}
		regs = filtered
	}
	if regs != nil && !filter.CreatedTo.IsZero() {
		var filtered []registration.Registration
		toUTC := filter.CreatedTo.UTC()
		for _, r := range regs {
			if r.CreatedAt.Before(toUTC) || r.CreatedAt.Equal(toUTC) {
				filtered = append(filtered, r)
			}
		}
		regs = filtered
	}

	return regs, nil
}

// TransitionRegistration applies the terminal transition iff the stored row
// is still pending, so a double approval cannot derive two payments.
func (repo *registrationRepository) TransitionRegistration(_ context.Context, reg registration.Registration, pay *registration.Payment) (registration.Registration, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.table[reg.ID]
	if !ok {
		return registration.Registration{}, registration.ErrNotFound
	}
	if orig.IsTerminal() {
		return registration.Registration{}, registration.ErrAlreadyProcessed
	}

	orig.Status = reg.Status
	orig.PaymentStatus = reg.PaymentStatus
	orig.RejectionNote = reg.RejectionNote
	orig.VerifiedBy = reg.VerifiedBy
	orig.VerifiedAt = reg.VerifiedAt

	if pay != nil {
		p := *pay
		payPKCount++
		p.ID = payPKCount
		repo.db.payments[orig.ID] = &p
	}

	repo.db.table[orig.ID] = orig
	return *orig, nil
}

func (repo *registrationRepository) GetPaymentByRegistrationID(_ context.Context, regID int) (registration.Payment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if pay, ok := repo.db.payments[regID]; ok {
		return *pay, nil
	}
	return registration.Payment{}, registration.ErrNotFound
}
