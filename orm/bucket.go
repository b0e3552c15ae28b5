/*
Package orm provides an easy to use db wrapper

Break state space into prefixed sections called Buckets.
* Each bucket contains only one type of record.
* Records are addressed by a custody.Address, exactly like accounts.
* Every record of a bucket has the same, fixed, byte length.
*/
package orm

import (
	"fmt"
	"regexp"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
)

var (
	isBucketName = regexp.MustCompile(`^[a-z_]{3,10}$`).MatchString
)

// Bucket is a prefixed subspace of the DB holding records of one type.
type Bucket struct {
	name   string
	prefix []byte
	size   int
}

var _ ModelBucket = Bucket{}

// NewBucket creates a bucket to store records of given byte size. Size zero
// means variable length records.
func NewBucket(name string, size int) Bucket {
	if !isBucketName(name) {
		panic(fmt.Sprintf("Illegal bucket: %s", name))
	}
	if size < 0 {
		panic(fmt.Sprintf("Illegal record size: %d", size))
	}
	return Bucket{
		name:   name,
		prefix: append([]byte(name), ':'),
		size:   size,
	}
}

// Name returns the bucket name.
func (b Bucket) Name() string {
	return b.name
}

// DBKey is the full key we store in the db, including prefix
// We copy into a new array rather than use append, as we don't
// want consequetive calls to overwrite the same byte array.
func (b Bucket) DBKey(key custody.Address) []byte {
	l := len(b.prefix)
	out := make([]byte, l+len(key))
	copy(out, b.prefix)
	copy(out[l:], key[:])
	return out
}

// One loads the record stored under given address into dest.
func (b Bucket) One(db custody.ReadOnlyKVStore, key custody.Address, dest Model) error {
	raw, err := db.Get(b.DBKey(key))
	if err != nil {
		return errors.Wrap(errors.ErrDatabase, err.Error())
	}
	if raw == nil {
		return errors.Wrapf(errors.ErrNotFound, "%T %s", dest, key)
	}
	if err := dest.Unmarshal(raw); err != nil {
		return errors.WithType(errors.Wrap(err, "cannot unmarshal"), dest)
	}
	return nil
}

// Has returns true if a record is stored under given address.
func (b Bucket) Has(db custody.ReadOnlyKVStore, key custody.Address) (bool, error) {
	ok, err := db.Has(b.DBKey(key))
	if err != nil {
		return false, errors.Wrap(errors.ErrDatabase, err.Error())
	}
	return ok, nil
}

// Create stores a new record. It fails if any record is already stored
// under given address.
func (b Bucket) Create(db custody.KVStore, key custody.Address, m Model) error {
	switch ok, err := b.Has(db, key); {
	case err != nil:
		return err
	case ok:
		return errors.Wrapf(errors.ErrDuplicate, "%s %s", b.name, key)
	}
	return b.Save(db, key, m)
}

// Save writes given record, replacing any previous value.
func (b Bucket) Save(db custody.KVStore, key custody.Address, m Model) error {
	if err := m.Validate(); err != nil {
		return errors.Wrap(err, "invalid model")
	}
	raw, err := m.Marshal()
	if err != nil {
		return errors.WithType(errors.Wrap(err, "cannot marshal"), m)
	}
	if b.size != 0 && len(raw) != b.size {
		return errors.Wrapf(errors.ErrInvalidModel, "%s record must be %d bytes, got %d", b.name, b.size, len(raw))
	}
	if err := db.Set(b.DBKey(key), raw); err != nil {
		return errors.Wrap(errors.ErrDatabase, err.Error())
	}
	return nil
}

// Delete removes the record stored under given address. It returns
// ErrNotFound if there is nothing to remove.
func (b Bucket) Delete(db custody.KVStore, key custody.Address) error {
	switch ok, err := b.Has(db, key); {
	case err != nil:
		return err
	case !ok:
		return errors.Wrapf(errors.ErrNotFound, "%s %s", b.name, key)
	}
	if err := db.Delete(b.DBKey(key)); err != nil {
		return errors.Wrap(errors.ErrDatabase, err.Error())
	}
	return nil
}
