// Package store persists orders and payments and performs the atomic finalize
// transition. All multi-row mutations run inside a single gorm transaction.
package store

import (
	"errors"

	"gorm.io/gorm"
)

var (
	ErrNotFound             = errors.New("store: record not found")
	ErrDuplicateCheckoutKey = errors.New("store: checkout key already used")
	ErrInvalidTransition    = errors.New("store: invalid status transition")
)

// Store groups the repositories sharing one database handle.
type Store struct {
	Orders    *Orders
	Payments  *Payments
	Customers *Customers
}

func New(db *gorm.DB) *Store {
	return &Store{
		Orders:    &Orders{db: db},
		Payments:  &Payments{db: db},
		Customers: &Customers{db: db},
	}
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
