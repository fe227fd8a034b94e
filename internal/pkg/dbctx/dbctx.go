package dbctx

import (
	"context"

	"gorm.io/gorm"
)

// Context bundles a request context with an optional GORM transaction.
type Context struct {
	Ctx context.Context
	Tx  *gorm.DB
}

// InTx runs fn inside the caller's transaction when there is one, otherwise
// in a new transaction on db. Nested calls share the outer transaction.
func (c Context) InTx(db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if c.Tx != nil {
		return fn(c.Tx)
	}
	return db.WithContext(c.context()).Transaction(fn)
}

func (c Context) context() context.Context {
	if c.Ctx == nil {
		return context.Background()
	}
	return c.Ctx
}
