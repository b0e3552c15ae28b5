package sigs

import (
	"github.com/iov-one/custody"
	"github.com/iov-one/custody/codec"
	"github.com/iov-one/custody/errors"
)

const (
	pathBumpSequenceMsg = "sigs/bump_sequence"

	maxSequenceIncrement = 1000
	minSequenceIncrement = 1
)

var bumpSequenceDiscriminator = codec.InstructionDiscriminator("bump_sequence")

const bumpSequenceMsgSize = codec.DiscriminatorLength + codec.SizeUint64

// RegisterCodec binds all instructions of this package to their paths.
func RegisterCodec(r *codec.Registry) {
	r.Register(pathBumpSequenceMsg, func() custody.Msg { return &BumpSequenceMsg{} })
}

// BumpSequenceMsg increments the sequence of the main signer by given
// value. It invalidates every transaction signed in advance with a lower
// sequence.
type BumpSequenceMsg struct {
	Increment uint64 `json:"increment"`
}

var _ custody.Msg = (*BumpSequenceMsg)(nil)

func (msg *BumpSequenceMsg) Validate() error {
	if msg.Increment < minSequenceIncrement {
		return errors.Wrapf(errors.ErrInvalidMsg, "increment must be at least %d", minSequenceIncrement)
	}
	if msg.Increment > maxSequenceIncrement {
		return errors.Wrapf(errors.ErrInvalidMsg, "increment must not be greater than %d", maxSequenceIncrement)
	}
	return nil
}

func (BumpSequenceMsg) Path() string {
	return pathBumpSequenceMsg
}

func (msg *BumpSequenceMsg) Marshal() ([]byte, error) {
	return codec.NewWriter(bumpSequenceDiscriminator, bumpSequenceMsgSize).Uint64(msg.Increment).Bytes(), nil
}

func (msg *BumpSequenceMsg) Unmarshal(raw []byte) error {
	r := codec.NewReader(bumpSequenceDiscriminator, raw, bumpSequenceMsgSize)
	r.Uint64(&msg.Increment)
	return r.Err()
}
