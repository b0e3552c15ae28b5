package sigs

import (
	"github.com/iov-one/custody"
	"github.com/iov-one/custody/codec"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/orm"
)

// BucketName is where we store the accounts
const BucketName = "sigs"

// maxSequenceValue is limited by the client. The greatest supported nonce
// value at client side is
//   Number.MAX_SAFE_INTEGER = 9007199254740991 = 2^53 - 1
const maxSequenceValue = (1 << 53) - 1

var userDiscriminator = codec.AccountDiscriminator("UserData")

const userDataSize = codec.DiscriminatorLength + codec.SizeAddress + codec.SizeUint64

// UserData stores the replay protection sequence of a signer.
type UserData struct {
	PubKey   custody.Address
	Sequence int64
}

var _ orm.Model = (*UserData)(nil)

func (u *UserData) Marshal() ([]byte, error) {
	return codec.NewWriter(userDiscriminator, userDataSize).
		Address(u.PubKey).
		Uint64(uint64(u.Sequence)).
		Bytes(), nil
}

func (u *UserData) Unmarshal(raw []byte) error {
	r := codec.NewReader(userDiscriminator, raw, userDataSize)
	var seq uint64
	r.Address(&u.PubKey)
	r.Uint64(&seq)
	u.Sequence = int64(seq)
	return r.Err()
}

func (u *UserData) Validate() error {
	if err := u.PubKey.Validate(); err != nil {
		return errors.Wrap(err, "pubkey")
	}
	if u.Sequence < 0 || u.Sequence > maxSequenceValue {
		return errors.Wrapf(ErrInvalidSequence, "%d", u.Sequence)
	}
	return nil
}

// CheckAndIncrementSequence implements check and increment operation.
// If current sequence value is the same as given expected value then it is
// incremented. Otherwise an error is returned.
func (u *UserData) CheckAndIncrementSequence(expected int64) error {
	if u.Sequence != expected {
		return errors.Wrapf(ErrInvalidSequence, "mismatch expected %d, got %d", expected, u.Sequence)
	}
	next := u.Sequence + 1
	if next <= 0 || next > maxSequenceValue {
		return errors.Wrap(errors.ErrOverflow, "sequence out of range")
	}
	u.Sequence = next
	return nil
}

// Bucket extends orm.Bucket with GetOrCreate
type Bucket struct {
	orm.Bucket
}

// NewBucket creates the proper bucket for this extension
func NewBucket() Bucket {
	return Bucket{Bucket: orm.NewBucket(BucketName, userDataSize)}
}

// GetOrCreate returns the user data of given public key, or a fresh one
// with zero sequence if none is stored yet.
func (b Bucket) GetOrCreate(db custody.ReadOnlyKVStore, pubkey custody.Address) (*UserData, error) {
	var u UserData
	switch err := b.One(db, pubkey, &u); {
	case err == nil:
		return &u, nil
	case errors.ErrNotFound.Is(err):
		return &UserData{PubKey: pubkey}, nil
	default:
		return nil, err
	}
}
