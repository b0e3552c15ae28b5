package main

import (
	"encoding/hex"
	"io/ioutil"
	"os"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
	"golang.org/x/crypto/ed25519"
)

// keyPerm is the file permissions for saved private keys
const keyPerm = 0600

// genPrivateKey creates a new random key.
func genPrivateKey() (ed25519.PrivateKey, error) {
	_, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrHuman, "cannot generate ed25519 key: %s", err)
	}
	return priv, nil
}

// decodePrivateKey reads a hex string created by encodePrivateKey and
// returns the original key.
func decodePrivateKey(hexKey string) (ed25519.PrivateKey, error) {
	data, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "private key: %s", err)
	}
	if len(data) != ed25519.PrivateKeySize {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "invalid private key length: %d", len(data))
	}
	return ed25519.PrivateKey(data), nil
}

// encodePrivateKey returns the private key as a hex string that can be
// saved and later loaded.
func encodePrivateKey(key ed25519.PrivateKey) string {
	return hex.EncodeToString(key)
}

// loadPrivateKey will load a private key from a file, which was previously
// written by savePrivateKey.
func loadPrivateKey(filename string) (ed25519.PrivateKey, error) {
	raw, err := ioutil.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrNotFound, "cannot read private key file: %s", err)
	}
	return decodePrivateKey(string(raw))
}

// savePrivateKey will encode the private key in hex and write it to the
// named file. It will refuse to overwrite a file unless force is set.
func savePrivateKey(key ed25519.PrivateKey, filename string, force bool) error {
	if !force {
		// Do not allow to overwrite an existing private key. User must
		// manually delete it first.
		if _, err := os.Stat(filename); err == nil {
			return errors.Wrapf(errors.ErrDuplicate, "refusing to overwrite %s", filename)
		}
	}
	return ioutil.WriteFile(filename, []byte(encodePrivateKey(key)), keyPerm)
}

// keyAddress returns the address controlled by given key.
func keyAddress(key ed25519.PrivateKey) custody.Address {
	var a custody.Address
	copy(a[:], key.Public().(ed25519.PublicKey))
	return a
}
