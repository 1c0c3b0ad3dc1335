package repository

import (
	"github.com/jmoiron/sqlx"
)

const (
	DefaultLimit = 100
	MaxLimit     = 1000
)

// Page is skip/limit offset pagination as exposed on list endpoints.
type Page struct {
	Skip  int
	Limit int
}

// Normalize applies the default page size and bounds.
func (p Page) Normalize() Page {
	if p.Skip < 0 {
		p.Skip = 0
	}
	if p.Limit <= 0 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	return p
}

// runner picks the transaction when one is given, the pool otherwise.
func runner(db *sqlx.DB, tx *sqlx.Tx) sqlx.ExtContext {
	if tx != nil {
		return tx
	}
	return db
}
