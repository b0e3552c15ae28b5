package sigs

import (
	"context"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/x"
)

// RegisterRoutes will instantiate and register all handlers in this
// package.
func RegisterRoutes(r custody.Registry, auth x.Authenticator) {
	r.Handle(pathBumpSequenceMsg, &bumpSequenceHandler{
		b:    NewBucket(),
		auth: auth,
	})
}

type bumpSequenceHandler struct {
	auth x.Authenticator
	b    Bucket
}

func (h *bumpSequenceHandler) Check(ctx context.Context, info custody.BlockInfo, db custody.KVStore, tx custody.Tx) (*custody.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &custody.CheckResult{}, nil
}

func (h *bumpSequenceHandler) Deliver(ctx context.Context, info custody.BlockInfo, db custody.KVStore, tx custody.Tx) (*custody.DeliverResult, error) {
	user, msg, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}

	// Each transaction processing bumps the sequence by one. Increment
	// must represent the total increment value.
	incr := int64(msg.Increment) - 1
	if incr == 0 {
		return &custody.DeliverResult{}, nil
	}
	user.Sequence += incr
	if err := h.b.Save(db, user.PubKey, user); err != nil {
		return nil, errors.Wrap(err, "save user")
	}
	return &custody.DeliverResult{}, nil
}

func (h *bumpSequenceHandler) validate(ctx context.Context, db custody.KVStore, tx custody.Tx) (*UserData, *BumpSequenceMsg, error) {
	var msg *BumpSequenceMsg
	if err := custody.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}

	signer, ok := x.MainSigner(ctx, h.auth)
	if !ok {
		return nil, nil, errors.Wrap(errors.ErrUnauthorized, "missing signature")
	}
	var user UserData
	if err := h.b.One(db, signer, &user); err != nil {
		return nil, nil, errors.Wrap(err, "no sequence")
	}
	if user.Sequence+int64(msg.Increment) > maxSequenceValue {
		return nil, nil, errors.Wrap(errors.ErrOverflow, "user sequence")
	}
	return &user, msg, nil
}
