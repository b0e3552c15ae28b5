package codec

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
)

// Registry maps instruction paths to message constructors. It is filled
// once at startup by every program's RegisterCodec.
type Registry struct {
	ctors map[string]func() custody.Msg
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{ctors: make(map[string]func() custody.Msg)}
}

// Register binds a path to a constructor. Registering the same path twice
// panics.
func (r *Registry) Register(path string, ctor func() custody.Msg) {
	if _, ok := r.ctors[path]; ok {
		panic(fmt.Sprintf("re-registering path: %s", path))
	}
	r.ctors[path] = ctor
}

// Paths returns all registered paths, sorted.
func (r *Registry) Paths() []string {
	paths := make([]string, 0, len(r.ctors))
	for p := range r.ctors {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

func (r *Registry) create(path string) (custody.Msg, error) {
	ctor, ok := r.ctors[path]
	if !ok {
		return nil, errors.Wrapf(errors.ErrNotFound, "no instruction %q", path)
	}
	return ctor(), nil
}

// Decode parses the binary form of an instruction.
func (r *Registry) Decode(path string, raw []byte) (custody.Msg, error) {
	msg, err := r.create(path)
	if err != nil {
		return nil, err
	}
	if err := msg.Unmarshal(raw); err != nil {
		return nil, errors.Wrapf(err, "cannot decode %s", path)
	}
	return msg, nil
}

// DecodeJSON parses the JSON form of an instruction, as written by hand for
// the command line.
func (r *Registry) DecodeJSON(path string, raw []byte) (custody.Msg, error) {
	msg, err := r.create(path)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, msg); err != nil {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "cannot decode %s: %s", path, err)
	}
	return msg, nil
}

// TxDecoder returns a decoder producing transactions with their instruction
// already decoded.
func (r *Registry) TxDecoder() custody.TxDecoder {
	return func(raw []byte) (custody.Tx, error) {
		var tx Tx
		if err := tx.Unmarshal(raw); err != nil {
			return nil, err
		}
		msg, err := r.Decode(tx.Path, tx.Msg)
		if err != nil {
			return nil, err
		}
		tx.msg = msg
		return &tx, nil
	}
}
