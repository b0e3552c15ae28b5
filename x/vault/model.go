package vault

import (
	"github.com/iov-one/custody"
	"github.com/iov-one/custody/codec"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/orm"
)

// Seeds namespacing the addresses derived for a vault.
const (
	AuthTag  = "auth"
	VaultTag = "vault"
)

// Status records the last successful operation on a vault. It is an audit
// marker only and never gates an operation.
type Status uint8

const (
	StatusInitialized Status = iota
	StatusDeposited
	StatusWithdrawn
	StatusTokenDeposited
	StatusTokenWithdrawn
)

func (s Status) String() string {
	switch s {
	case StatusInitialized:
		return "initialized"
	case StatusDeposited:
		return "deposited"
	case StatusWithdrawn:
		return "withdrawn"
	case StatusTokenDeposited:
		return "token_deposited"
	case StatusTokenWithdrawn:
		return "token_withdrawn"
	}
	return "unknown"
}

var stateDiscriminator = codec.AccountDiscriminator("Vault")

// StateSize is the byte size of a stored VaultState.
const StateSize = codec.DiscriminatorLength + codec.SizeAddress + 3*codec.SizeUint8

// VaultState is the custody record of a single vault.
type VaultState struct {
	Owner     custody.Address `json:"owner"`
	AuthBump  uint8           `json:"auth_bump"`
	VaultBump uint8           `json:"vault_bump"`
	Status    Status          `json:"status"`
}

var _ orm.Model = (*VaultState)(nil)

func (v *VaultState) Marshal() ([]byte, error) {
	return codec.NewWriter(stateDiscriminator, StateSize).
		Address(v.Owner).
		Uint8(v.AuthBump).
		Uint8(v.VaultBump).
		Uint8(uint8(v.Status)).
		Bytes(), nil
}

func (v *VaultState) Unmarshal(raw []byte) error {
	r := codec.NewReader(stateDiscriminator, raw, StateSize)
	var status uint8
	r.Address(&v.Owner)
	r.Uint8(&v.AuthBump)
	r.Uint8(&v.VaultBump)
	r.Uint8(&status)
	v.Status = Status(status)
	return r.Err()
}

func (v *VaultState) Validate() error {
	if err := v.Owner.Validate(); err != nil {
		return errors.Wrap(err, "owner")
	}
	if v.Status > StatusTokenWithdrawn {
		return errors.Wrapf(errors.ErrInvalidModel, "status %d", v.Status)
	}
	return nil
}

// NewBucket returns the bucket of vault states, keyed by state address.
func NewBucket() orm.Bucket {
	return orm.NewBucket("vault", StateSize)
}

// AuthCredential returns the credential signing for the auth address of
// given state.
func AuthCredential(programID, state custody.Address, v *VaultState) custody.AuthorityCredential {
	return custody.NewCredential(programID, v.AuthBump, AuthTag, state[:])
}

// VaultCredential returns the credential signing for the native vault
// address of given auth address.
func VaultCredential(programID, auth custody.Address, v *VaultState) custody.AuthorityCredential {
	return custody.NewCredential(programID, v.VaultBump, VaultTag, auth[:])
}
