package sigs

import (
	"context"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
)

// Decorator verifies the signatures and adds them to the context
type Decorator struct {
	allowMissingSigs bool
}

var _ custody.Decorator = Decorator{}

// NewDecorator returns a default authentication decorator,
// which appends the chainID before checking the signature,
// and requires at least one signature to be present
func NewDecorator() Decorator {
	return Decorator{
		allowMissingSigs: false,
	}
}

// AllowMissingSigs allows us to pass along items with no signatures
func (d Decorator) AllowMissingSigs() Decorator {
	d.allowMissingSigs = true
	return d
}

// Check verifies signatures before calling down the stack.
func (d Decorator) Check(ctx context.Context, info custody.BlockInfo, db custody.KVStore, tx custody.Tx, next custody.Checker) (*custody.CheckResult, error) {
	ctx, err := d.authenticate(ctx, info, db, tx)
	if err != nil {
		return nil, err
	}
	return next.Check(ctx, info, db, tx)
}

// Deliver verifies signatures before calling down the stack.
func (d Decorator) Deliver(ctx context.Context, info custody.BlockInfo, db custody.KVStore, tx custody.Tx, next custody.Deliverer) (*custody.DeliverResult, error) {
	ctx, err := d.authenticate(ctx, info, db, tx)
	if err != nil {
		return nil, err
	}
	return next.Deliver(ctx, info, db, tx)
}

func (d Decorator) authenticate(ctx context.Context, info custody.BlockInfo, db custody.KVStore, tx custody.Tx) (context.Context, error) {
	var signers []custody.Address
	if stx, ok := tx.(SignedTx); ok {
		var err error
		signers, err = VerifyTxSignatures(db, stx, info.ChainID())
		if err != nil {
			return nil, errors.Wrap(err, "cannot verify signatures")
		}
	}
	if len(signers) == 0 && !d.allowMissingSigs {
		return nil, errors.Wrap(errors.ErrUnauthorized, "missing signature")
	}
	return withSigners(ctx, signers), nil
}
