package x

import (
	"context"

	"github.com/iov-one/custody"
)

// Authenticator is an interface we can use to extract authentication info
// from the context. This should be passed into the constructor of
// handlers, so we can plug in another authentication system,
// rather than hard-coding x/sigs for all extensions.
type Authenticator interface {
	// GetSigners reveals all identities that signed the current
	// transaction.
	GetSigners(context.Context) []custody.Address
	// HasAddress checks if any signer matches this address
	HasAddress(context.Context, custody.Address) bool
}

// MultiAuth chains together many Authenticators into one
type MultiAuth struct {
	impls []Authenticator
}

var _ Authenticator = MultiAuth{}

// ChainAuth groups together a series of Authenticator
func ChainAuth(impls ...Authenticator) MultiAuth {
	return MultiAuth{impls}
}

// GetSigners combines all signers from all Authenticators
func (m MultiAuth) GetSigners(ctx context.Context) []custody.Address {
	var res []custody.Address
	for _, impl := range m.impls {
		add := impl.GetSigners(ctx)
		if len(add) > 0 {
			res = append(res, add...)
		}
	}
	return res
}

// HasAddress returns true iff any Authenticator support this
func (m MultiAuth) HasAddress(ctx context.Context, addr custody.Address) bool {
	for _, impl := range m.impls {
		if impl.HasAddress(ctx, addr) {
			return true
		}
	}
	return false
}

// MainSigner returns the first signer if any.
func MainSigner(ctx context.Context, auth Authenticator) (custody.Address, bool) {
	signers := auth.GetSigners(ctx)
	if len(signers) == 0 {
		return custody.Address{}, false
	}
	return signers[0], true
}

// HasAllAddresses returns true if all elements in required are
// also in context.
func HasAllAddresses(ctx context.Context, auth Authenticator, required ...custody.Address) bool {
	for _, r := range required {
		if !auth.HasAddress(ctx, r) {
			return false
		}
	}
	return true
}

// SignerAuthority returns an Authority for all signers of the current
// transaction. It is what a user-signed transfer is authorized with.
func SignerAuthority(ctx context.Context, auth Authenticator) custody.Authority {
	signers := auth.GetSigners(ctx)
	res := make(custody.Authorities, len(signers))
	for i, s := range signers {
		res[i] = custody.SignedBy(s)
	}
	return res
}
