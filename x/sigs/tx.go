package sigs

import (
	"github.com/iov-one/custody/codec"
	"github.com/iov-one/custody/errors"
)

// SignedTx represents a transaction that contains signatures,
// which can be verified by the Decorator
type SignedTx interface {
	// GetSignBytes returns the canonical byte representation of the
	// transaction without its signatures.
	GetSignBytes() ([]byte, error)

	// GetSignatures returns the signature of signers who signed the Msg.
	GetSignatures() []*codec.Signature
}

var _ SignedTx = (*codec.Tx)(nil)

// validateSignature ensures the signature meets basic standards.
func validateSignature(s *codec.Signature) error {
	if s == nil {
		return errors.Wrap(errors.ErrUnauthorized, "missing signature")
	}
	if s.Sequence < 0 {
		return errors.Wrap(ErrInvalidSequence, "negative")
	}
	if s.PubKey.IsZero() {
		return errors.Wrap(errors.ErrUnauthorized, "missing public key")
	}
	if len(s.Sig) == 0 {
		return errors.Wrap(errors.ErrUnauthorized, "missing signature")
	}
	return nil
}
