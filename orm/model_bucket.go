package orm

import (
	"github.com/iov-one/custody"
)

// Model is implemented by any entity that can be stored using a Bucket.
type Model interface {
	custody.Persistent
	Validate() error
}

// ModelBucket is implemented by buckets that operates on Models.
type ModelBucket interface {
	// One query the database for a single model instance. Result is
	// loaded into given destination model.
	// This method returns ErrNotFound if the entity does not exist in the
	// database.
	One(db custody.ReadOnlyKVStore, key custody.Address, dest Model) error

	// Has returns true if an entity with given key exists.
	Has(db custody.ReadOnlyKVStore, key custody.Address) (bool, error)

	// Create saves given model in the database. It returns ErrDuplicate
	// if an entity with given key already exists.
	Create(db custody.KVStore, key custody.Address, m Model) error

	// Save saves given model in the database.
	Save(db custody.KVStore, key custody.Address, m Model) error

	// Delete removes an entity with given primary key from the database.
	// It returns ErrNotFound if an entity with given key does not exist.
	Delete(db custody.KVStore, key custody.Address) error
}
