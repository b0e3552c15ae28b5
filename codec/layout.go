/*
Package codec defines the binary layouts of records and instructions and the
transaction envelope the host decodes.

Records and instructions share one layout: an 8 byte discriminator followed
by fixed width fields in declared order. Addresses take 32 bytes, integers
are little endian, a flag is a single byte.
*/
package codec

import (
	"crypto/sha256"
	"encoding/binary"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
)

// DiscriminatorLength is the size of the type tag prefixing every record
// and instruction.
const DiscriminatorLength = 8

// Field sizes.
const (
	SizeAddress = custody.AddressLength
	SizeUint64  = 8
	SizeUint8   = 1
	SizeBool    = 1
)

// Discriminator tags serialized data with its type.
type Discriminator [DiscriminatorLength]byte

func discriminator(namespace, name string) Discriminator {
	var d Discriminator
	h := sha256.Sum256([]byte(namespace + ":" + name))
	copy(d[:], h[:DiscriminatorLength])
	return d
}

// AccountDiscriminator returns the tag of a record type.
func AccountDiscriminator(name string) Discriminator {
	return discriminator("account", name)
}

// InstructionDiscriminator returns the tag of an instruction.
func InstructionDiscriminator(name string) Discriminator {
	return discriminator("global", name)
}

// Writer serializes fixed width fields.
type Writer struct {
	buf []byte
}

// NewWriter starts a new buffer with given discriminator. Size is the total
// expected length and is only used to preallocate.
func NewWriter(d Discriminator, size int) *Writer {
	buf := make([]byte, 0, size)
	buf = append(buf, d[:]...)
	return &Writer{buf: buf}
}

func (w *Writer) Address(a custody.Address) *Writer {
	w.buf = append(w.buf, a[:]...)
	return w
}

func (w *Writer) Uint64(v uint64) *Writer {
	var b [SizeUint64]byte
	binary.LittleEndian.PutUint64(b[:], v)
	w.buf = append(w.buf, b[:]...)
	return w
}

func (w *Writer) Uint8(v uint8) *Writer {
	w.buf = append(w.buf, v)
	return w
}

func (w *Writer) Bool(v bool) *Writer {
	if v {
		return w.Uint8(1)
	}
	return w.Uint8(0)
}

// Bytes returns the serialized data.
func (w *Writer) Bytes() []byte {
	return w.buf
}

// Reader deserializes fixed width fields. The first failure is remembered
// and every later read is a no-op, so callers check Err once at the end.
type Reader struct {
	raw []byte
	err error
}

// NewReader validates the total length and the discriminator of raw.
func NewReader(d Discriminator, raw []byte, size int) *Reader {
	r := &Reader{raw: raw}
	switch {
	case len(raw) != size:
		r.err = errors.Wrapf(errors.ErrInvalidInput, "want %d bytes, got %d", size, len(raw))
	case sliceToDisc(raw) != d:
		r.err = errors.Wrap(errors.ErrInvalidType, "discriminator mismatch")
	default:
		r.raw = raw[DiscriminatorLength:]
	}
	return r
}

func sliceToDisc(raw []byte) (d Discriminator) {
	copy(d[:], raw)
	return d
}

func (r *Reader) next(n int) []byte {
	if r.err != nil {
		return nil
	}
	if len(r.raw) < n {
		r.err = errors.Wrap(errors.ErrInvalidInput, "unexpected end of data")
		return nil
	}
	b := r.raw[:n]
	r.raw = r.raw[n:]
	return b
}

func (r *Reader) Address(dst *custody.Address) {
	if b := r.next(SizeAddress); b != nil {
		copy(dst[:], b)
	}
}

func (r *Reader) Uint64(dst *uint64) {
	if b := r.next(SizeUint64); b != nil {
		*dst = binary.LittleEndian.Uint64(b)
	}
}

func (r *Reader) Uint8(dst *uint8) {
	if b := r.next(SizeUint8); b != nil {
		*dst = b[0]
	}
}

func (r *Reader) Bool(dst *bool) {
	var v uint8
	r.Uint8(&v)
	if r.err == nil && v > 1 {
		r.err = errors.Wrapf(errors.ErrInvalidInput, "invalid flag value %d", v)
	}
	*dst = v == 1
}

// Err returns the first failure, or an error if not all data was consumed.
func (r *Reader) Err() error {
	if r.err != nil {
		return r.err
	}
	if len(r.raw) != 0 {
		return errors.Wrapf(errors.ErrInvalidInput, "%d trailing bytes", len(r.raw))
	}
	return nil
}
