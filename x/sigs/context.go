/*
Package sigs provides basic authentication
middleware to verify the signatures on the transaction,
and maintain nonces for replay protection.
*/
package sigs

import (
	"context"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/x"
)

type contextKey int // local to the sigs module

const (
	contextKeySigners contextKey = iota
)

// withSigners is a private method, as only this module
// can add a signer
func withSigners(ctx context.Context, signers []custody.Address) context.Context {
	return context.WithValue(ctx, contextKeySigners, signers)
}

// Authenticate reveals the signers verified by the Decorator.
type Authenticate struct{}

var _ x.Authenticator = Authenticate{}

// GetSigners returns who signed the current Context.
// May be empty
func (a Authenticate) GetSigners(ctx context.Context) []custody.Address {
	// (val, ok) form to return nil instead of panic if unset
	val, _ := ctx.Value(contextKeySigners).([]custody.Address)
	return val
}

// HasAddress returns true if the given address signed the current
// transaction.
func (a Authenticate) HasAddress(ctx context.Context, addr custody.Address) bool {
	for _, s := range a.GetSigners(ctx) {
		if addr.Equals(s) {
			return true
		}
	}
	return false
}
