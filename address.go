package custody

import (
	"bytes"
	"encoding/json"

	"github.com/btcsuite/btcutil/base58"
	"github.com/iov-one/custody/errors"
)

// AddressLength is the length of all addresses, both public keys and
// derived addresses.
const AddressLength = 32

// Address identifies an account. It is either an ed25519 public key or an
// address derived by a program (see FindProgramAddress). Both kinds share
// the same space and can only be told apart by checking whether the value is
// a point on the curve.
type Address [AddressLength]byte

// NewAddress copies given bytes into an address. It fails if the length is
// not exactly AddressLength.
func NewAddress(raw []byte) (Address, error) {
	var a Address
	if len(raw) != AddressLength {
		return a, errors.Wrapf(errors.ErrInvalidInput, "address must be %d bytes, got %d", AddressLength, len(raw))
	}
	copy(a[:], raw)
	return a, nil
}

// ParseAddress decodes a base58 string representation of an address.
func ParseAddress(s string) (Address, error) {
	raw := base58.Decode(s)
	if len(raw) == 0 {
		return Address{}, errors.Wrapf(errors.ErrInvalidInput, "invalid base58 address %q", s)
	}
	return NewAddress(raw)
}

// MustParseAddress is like ParseAddress but panics on error. Use it only for
// values known at compile time.
func MustParseAddress(s string) Address {
	a, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return a
}

// Bytes returns a copy of the address as a slice.
func (a Address) Bytes() []byte {
	b := make([]byte, AddressLength)
	copy(b, a[:])
	return b
}

// Equals checks if two addresses are the same.
func (a Address) Equals(b Address) bool {
	return a == b
}

// IsZero returns true for the all zero address. It is used to mark absent
// optional values.
func (a Address) IsZero() bool {
	return a == Address{}
}

// Compare orders addresses bytewise.
func (a Address) Compare(b Address) int {
	return bytes.Compare(a[:], b[:])
}

// String returns the base58 representation.
func (a Address) String() string {
	return base58.Encode(a[:])
}

// Validate returns an error if the address is the zero value.
func (a Address) Validate() error {
	if a.IsZero() {
		return errors.Wrap(errors.ErrEmpty, "address")
	}
	return nil
}

// MarshalJSON provides a base58 representation for JSON.
func (a Address) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// UnmarshalJSON parses JSON in base58 representation.
func (a *Address) UnmarshalJSON(raw []byte) error {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return errors.Wrap(errors.ErrInvalidInput, "address must be a string")
	}
	parsed, err := ParseAddress(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
