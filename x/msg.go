package x

import (
	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
)

// NamedAddress is an address referenced by an instruction, labeled for
// error messages.
type NamedAddress struct {
	Name    string
	Address custody.Address
}

// Named labels an address.
func Named(name string, addr custody.Address) NamedAddress {
	return NamedAddress{Name: name, Address: addr}
}

// ValidateAddresses fails on the first address that is not set.
func ValidateAddresses(fields ...NamedAddress) error {
	for _, f := range fields {
		if err := f.Address.Validate(); err != nil {
			return errors.Wrap(err, f.Name)
		}
	}
	return nil
}

// ValidateAmount fails with ErrInvalidAmount for a zero amount.
func ValidateAmount(amount uint64) error {
	if amount == 0 {
		return errors.Wrap(errors.ErrInvalidAmount, "zero amount")
	}
	return nil
}
