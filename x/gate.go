package x

import (
	"context"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
)

// The helpers below are the authorization gate every fund moving
// instruction runs through. A handler calls them in this order and stops
// at the first failure:
//
//   1. RequireSigner
//   2. RequireDerived or DeriveAndMatch, for every derived address
//   3. RequireFunds
//   4. RequireNotExpired
//   5. RequireLinked, for every account recorded at creation time

// RequireSigner fails with ErrUnauthorized unless given identity signed the
// current transaction.
func RequireSigner(ctx context.Context, auth Authenticator, who custody.Address, role string) error {
	if !auth.HasAddress(ctx, who) {
		return errors.Wrapf(errors.ErrUnauthorized, "%s %s did not sign", role, who)
	}
	return nil
}

// RequireDerived re-derives an address from the recorded bump and seeds and
// compares it with the supplied one. On success it returns the credential
// that lets the program sign for that address.
func RequireDerived(programID, supplied custody.Address, bump uint8, tag string, seeds ...[]byte) (custody.AuthorityCredential, error) {
	cred := custody.NewCredential(programID, bump, tag, seeds...)
	if !cred.Authorizes(supplied) {
		return cred, errors.Wrapf(errors.ErrAddressMismatch, "%s address %s", tag, supplied)
	}
	return cred, nil
}

// DeriveAndMatch searches the canonical bump for given seeds and compares
// the resulting address with the supplied one. It is used when an address
// is referenced for the first time and no bump is recorded yet.
func DeriveAndMatch(programID, supplied custody.Address, tag string, seeds ...[]byte) (custody.AuthorityCredential, error) {
	addr, bump, err := custody.Derive(programID, tag, seeds...)
	if err != nil {
		return custody.AuthorityCredential{}, errors.Wrapf(err, "derive %s", tag)
	}
	cred := custody.NewCredential(programID, bump, tag, seeds...)
	if addr != supplied {
		return cred, errors.Wrapf(errors.ErrAddressMismatch, "%s address %s, want %s", tag, supplied, addr)
	}
	return cred, nil
}

// RequireFunds fails with ErrInsufficientFunds if balance is lower than
// the requested amount.
func RequireFunds(balance, amount uint64) error {
	if balance < amount {
		return errors.Wrapf(errors.ErrInsufficientFunds, "balance %d, requested %d", balance, amount)
	}
	return nil
}

// RequireNotExpired fails with ErrExpired once the current slot reaches
// the expiry. Zero expiry never expires.
func RequireNotExpired(info custody.BlockInfo, expiry uint64) error {
	if info.IsExpired(expiry) {
		return errors.Wrapf(errors.ErrExpired, "expired at slot %d, now %d", expiry, info.Slot())
	}
	return nil
}

// RequireLinked fails with ErrAddressMismatch if the supplied account is
// not the one recorded.
func RequireLinked(name string, supplied, recorded custody.Address) error {
	if supplied != recorded {
		return errors.Wrapf(errors.ErrAddressMismatch, "%s %s, recorded %s", name, supplied, recorded)
	}
	return nil
}
