package sigs

import (
	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
)

// NextNonce returns the next numeric nonce value that should be used during a
// transaction signing. If not yet present, nonce counting starts with zero.
func NextNonce(db custody.ReadOnlyKVStore, signer custody.Address) (int64, error) {
	u, err := NewBucket().GetOrCreate(db, signer)
	if err != nil {
		return 0, errors.Wrap(err, "bucket get")
	}
	return u.Sequence, nil
}
