package app

import (
	"context"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
)

// Recovery is a decorator to recover from panics in transactions,
// so we can log them as errors
type Recovery struct{}

var _ custody.Decorator = Recovery{}

// NewRecovery creates a Recovery decorator
func NewRecovery() Recovery {
	return Recovery{}
}

// Check turns panics into normal errors
func (Recovery) Check(ctx context.Context, info custody.BlockInfo, db custody.KVStore, tx custody.Tx, next custody.Checker) (_ *custody.CheckResult, err error) {
	defer errors.Recover(&err)
	return next.Check(ctx, info, db, tx)
}

// Deliver turns panics into normal errors
func (Recovery) Deliver(ctx context.Context, info custody.BlockInfo, db custody.KVStore, tx custody.Tx, next custody.Deliverer) (_ *custody.DeliverResult, err error) {
	defer errors.Recover(&err)
	return next.Deliver(ctx, info, db, tx)
}
