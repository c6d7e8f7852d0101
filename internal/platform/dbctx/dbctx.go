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

// Pick returns the transaction when one is set, otherwise fallback.
func (c Context) Pick(fallback *gorm.DB) *gorm.DB {
	if c.Tx != nil {
		return c.Tx
	}
	return fallback
}

// WithTx returns a copy of c bound to tx.
func (c Context) WithTx(tx *gorm.DB) Context {
	return Context{Ctx: c.Ctx, Tx: tx}
}
