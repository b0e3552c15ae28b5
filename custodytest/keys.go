package custodytest

import (
	"crypto/sha256"

	"github.com/iov-one/custody"
	"golang.org/x/crypto/ed25519"
)

// Key is an ed25519 key pair used to sign test transactions.
type Key struct {
	Private ed25519.PrivateKey
}

// NewKey returns a key derived from given name. The same name always
// produces the same key.
func NewKey(name string) Key {
	seed := sha256.Sum256([]byte(name))
	return Key{Private: ed25519.NewKeyFromSeed(seed[:])}
}

// Address returns the public key of this pair.
func (k Key) Address() custody.Address {
	var a custody.Address
	copy(a[:], k.Private.Public().(ed25519.PublicKey))
	return a
}

// Sign signs given message.
func (k Key) Sign(msg []byte) []byte {
	return ed25519.Sign(k.Private, msg)
}

// NewAddress returns the address of a key derived from given name.
func NewAddress(name string) custody.Address {
	return NewKey(name).Address()
}
