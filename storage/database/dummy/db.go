package dummydb

import (
	"sync"

	"github.com/trezcool/tamasha/core/event"
	"github.com/trezcool/tamasha/core/registration"
	"github.com/trezcool/tamasha/core/user"
)

type (
	DB struct {
		user         *userTable
		event        *eventTable
		registration *registrationTable
	}

	userTable struct {
		sync.RWMutex
		table map[int]*user.User
	}

	eventTable struct {
		sync.RWMutex
		table map[int]*event.Event
	}

	registrationTable struct {
		sync.RWMutex
		table    map[int]*registration.Registration
		payments map[int]*registration.Payment // keyed by registration ID
	}
)

func Open() (*DB, error) {
	db := &DB{
		user:  &userTable{table: make(map[int]*user.User)},
		event: &eventTable{table: make(map[int]*event.Event)},
		registration: &registrationTable{
			table:    make(map[int]*registration.Registration),
			payments: make(map[int]*registration.Payment),
		},
	}
	return db, nil
}
