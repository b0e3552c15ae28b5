package codec

import (
	"github.com/gogo/protobuf/proto"
	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
)

// Protobuf wire types used by the envelope.
const (
	wireVarint = 0
	wireBytes  = 2
)

// Field numbers of Tx and Signature messages. Together they are
// wire compatible with:
//
//   message Tx {
//     string path = 1;
//     bytes msg = 2;
//     repeated Signature signatures = 3;
//   }
//   message Signature {
//     bytes pubkey = 1;
//     int64 sequence = 2;
//     bytes signature = 3;
//   }
const (
	fieldTxPath       = 1
	fieldTxMsg        = 2
	fieldTxSignatures = 3

	fieldSigPubKey   = 1
	fieldSigSequence = 2
	fieldSigBytes    = 3
)

// Signature is an ed25519 signature of the sign bytes of a transaction,
// together with the signer public key and its replay protection sequence.
type Signature struct {
	PubKey   custody.Address `json:"pubkey"`
	Sequence int64           `json:"sequence"`
	Sig      []byte          `json:"signature"`
}

// Tx is the envelope of a single instruction.
type Tx struct {
	Path       string
	Msg        []byte
	Signatures []*Signature

	// msg is set by NewTx or when decoding with a Registry
	msg custody.Msg
}

var _ custody.Tx = (*Tx)(nil)

// NewTx wraps given instruction in a transaction without any signature.
func NewTx(msg custody.Msg) (*Tx, error) {
	raw, err := msg.Marshal()
	if err != nil {
		return nil, errors.Wrap(err, "cannot marshal message")
	}
	return &Tx{Path: msg.Path(), Msg: raw, msg: msg}, nil
}

// GetMsg returns the decoded instruction.
func (tx *Tx) GetMsg() (custody.Msg, error) {
	if tx.msg == nil {
		return nil, errors.Wrapf(errors.ErrInvalidMsg, "%s not decoded", tx.Path)
	}
	return tx.msg, nil
}

// GetSignatures returns all signatures attached.
func (tx *Tx) GetSignatures() []*Signature {
	return tx.Signatures
}

// GetSignBytes returns the bytes covered by signatures: the path, a zero
// separator and the raw instruction.
func (tx *Tx) GetSignBytes() ([]byte, error) {
	if tx.Path == "" {
		return nil, errors.Wrap(errors.ErrEmpty, "path")
	}
	out := make([]byte, 0, len(tx.Path)+1+len(tx.Msg))
	out = append(out, tx.Path...)
	out = append(out, 0)
	return append(out, tx.Msg...), nil
}

// Marshal serializes the envelope using protobuf wire format.
func (tx *Tx) Marshal() ([]byte, error) {
	var buf []byte
	buf = appendBytesField(buf, fieldTxPath, []byte(tx.Path))
	buf = appendBytesField(buf, fieldTxMsg, tx.Msg)
	for _, s := range tx.Signatures {
		buf = appendBytesField(buf, fieldTxSignatures, s.marshal())
	}
	return buf, nil
}

// Unmarshal reads the envelope. The instruction itself is left encoded,
// use a Registry to decode it.
func (tx *Tx) Unmarshal(raw []byte) error {
	*tx = Tx{}
	return eachField(raw, func(field, wire uint64, data []byte, _ uint64) error {
		switch field {
		case fieldTxPath:
			if wire != wireBytes {
				return errors.Wrap(errors.ErrInvalidInput, "path wire type")
			}
			tx.Path = string(data)
		case fieldTxMsg:
			if wire != wireBytes {
				return errors.Wrap(errors.ErrInvalidInput, "msg wire type")
			}
			tx.Msg = append([]byte(nil), data...)
		case fieldTxSignatures:
			if wire != wireBytes {
				return errors.Wrap(errors.ErrInvalidInput, "signature wire type")
			}
			var s Signature
			if err := s.unmarshal(data); err != nil {
				return err
			}
			tx.Signatures = append(tx.Signatures, &s)
		}
		return nil
	})
}

func (s *Signature) marshal() []byte {
	var buf []byte
	buf = appendBytesField(buf, fieldSigPubKey, s.PubKey[:])
	buf = appendVarintField(buf, fieldSigSequence, uint64(s.Sequence))
	buf = appendBytesField(buf, fieldSigBytes, s.Sig)
	return buf
}

func (s *Signature) unmarshal(raw []byte) error {
	return eachField(raw, func(field, wire uint64, data []byte, v uint64) error {
		switch field {
		case fieldSigPubKey:
			if wire != wireBytes {
				return errors.Wrap(errors.ErrInvalidInput, "pubkey wire type")
			}
			pk, err := custody.NewAddress(data)
			if err != nil {
				return errors.Wrap(err, "pubkey")
			}
			s.PubKey = pk
		case fieldSigSequence:
			if wire != wireVarint {
				return errors.Wrap(errors.ErrInvalidInput, "sequence wire type")
			}
			s.Sequence = int64(v)
		case fieldSigBytes:
			if wire != wireBytes {
				return errors.Wrap(errors.ErrInvalidInput, "signature bytes wire type")
			}
			s.Sig = append([]byte(nil), data...)
		}
		return nil
	})
}

func appendBytesField(buf []byte, field uint64, b []byte) []byte {
	buf = append(buf, proto.EncodeVarint(field<<3|wireBytes)...)
	buf = append(buf, proto.EncodeVarint(uint64(len(b)))...)
	return append(buf, b...)
}

func appendVarintField(buf []byte, field uint64, v uint64) []byte {
	buf = append(buf, proto.EncodeVarint(field<<3|wireVarint)...)
	return append(buf, proto.EncodeVarint(v)...)
}

// eachField walks protobuf encoded fields. For varint fields v holds the
// value, for length delimited fields data holds the payload.
func eachField(raw []byte, fn func(field, wire uint64, data []byte, v uint64) error) error {
	for len(raw) > 0 {
		key, n := proto.DecodeVarint(raw)
		if n == 0 {
			return errors.Wrap(errors.ErrInvalidInput, "malformed field key")
		}
		raw = raw[n:]
		field, wire := key>>3, key&7

		switch wire {
		case wireVarint:
			v, n := proto.DecodeVarint(raw)
			if n == 0 {
				return errors.Wrap(errors.ErrInvalidInput, "malformed varint")
			}
			raw = raw[n:]
			if err := fn(field, wire, nil, v); err != nil {
				return err
			}
		case wireBytes:
			l, n := proto.DecodeVarint(raw)
			if n == 0 || uint64(len(raw)-n) < l {
				return errors.Wrap(errors.ErrInvalidInput, "malformed length")
			}
			data := raw[n : n+int(l)]
			raw = raw[n+int(l):]
			if err := fn(field, wire, data, 0); err != nil {
				return err
			}
		default:
			return errors.Wrapf(errors.ErrInvalidInput, "unsupported wire type %d", wire)
		}
	}
	return nil
}
