package custodytest

import (
	"context"
	"fmt"

	"github.com/iov-one/custody"
)

// Auth is a mock implementing x.Authenticator interface.
//
// This structure authenticates any of referenced addresses. Signer and
// Signers are combined when authenticating.
type Auth struct {
	// Signer represents a single signer. It is a convenience attribute
	// for the common case.
	Signer custody.Address

	// Signers represents an authentication of multiple signers.
	Signers []custody.Address
}

func (a *Auth) GetSigners(context.Context) []custody.Address {
	if !a.Signer.IsZero() {
		return append(a.Signers, a.Signer)
	}
	return a.Signers
}

func (a *Auth) HasAddress(ctx context.Context, addr custody.Address) bool {
	for _, s := range a.GetSigners(ctx) {
		if addr.Equals(s) {
			return true
		}
	}
	return false
}

// CtxAuth is a mock implementing x.Authenticator interface.
//
// This implementation is using context to store and retrieve signers.
type CtxAuth struct {
	// Key used to set and retrieve signers from the context. For
	// convenience only string type keys are allowed.
	Key string
}

func (a *CtxAuth) SetSigners(ctx context.Context, signers ...custody.Address) context.Context {
	return context.WithValue(ctx, a.Key, signers)
}

func (a *CtxAuth) GetSigners(ctx context.Context) []custody.Address {
	val := ctx.Value(a.Key)
	if val == nil {
		return nil
	}
	signers, ok := val.([]custody.Address)
	if !ok {
		panic(fmt.Sprintf("instead of []custody.Address got %T", val))
	}
	return signers
}

func (a *CtxAuth) HasAddress(ctx context.Context, addr custody.Address) bool {
	for _, s := range a.GetSigners(ctx) {
		if addr.Equals(s) {
			return true
		}
	}
	return false
}
