package custody

import (
	"crypto/sha256"
	"encoding/binary"

	"filippo.io/edwards25519"
	"github.com/iov-one/custody/errors"
)

const (
	// MaxSeeds is the maximum number of seeds, bump included, that can be
	// used to derive an address.
	MaxSeeds = 16

	// MaxSeedLength is the maximum length in bytes of a single seed.
	MaxSeedLength = 32

	// pdaMarker is appended to every derivation preimage so that a derived
	// address can never be the hash of anything else used by the ledger.
	pdaMarker = "ProgramDerivedAddress"
)

// CreateProgramAddress computes the address owned by the program for the
// exact list of seeds given. The last seed is usually the bump.
//
// The result is rejected with ErrOnCurve when it is a valid ed25519 public
// key, because then someone could hold the matching private key.
func CreateProgramAddress(programID Address, seeds ...[]byte) (Address, error) {
	if len(seeds) > MaxSeeds {
		return Address{}, errors.Wrapf(errors.ErrInvalidInput, "too many seeds: %d", len(seeds))
	}
	h := sha256.New()
	for i, s := range seeds {
		if len(s) > MaxSeedLength {
			return Address{}, errors.Wrapf(errors.ErrInvalidInput, "seed %d too long: %d", i, len(s))
		}
		_, _ = h.Write(s)
	}
	_, _ = h.Write(programID[:])
	_, _ = h.Write([]byte(pdaMarker))

	var a Address
	copy(a[:], h.Sum(nil))
	if IsOnCurve(a[:]) {
		return Address{}, errors.ErrOnCurve
	}
	return a, nil
}

// FindProgramAddress searches for the highest bump, starting from 255 and
// going down, for which CreateProgramAddress(seeds..., [bump]) yields a valid
// off curve address. For a given program and seeds the result never
// changes.
//
// Failing to find any bump is a configuration error and is returned as
// ErrDerivation.
func FindProgramAddress(programID Address, seeds ...[]byte) (Address, uint8, error) {
	if len(seeds) >= MaxSeeds {
		return Address{}, 0, errors.Wrapf(errors.ErrInvalidInput, "too many seeds: %d", len(seeds))
	}
	withBump := make([][]byte, len(seeds)+1)
	copy(withBump, seeds)
	for bump := 255; bump >= 0; bump-- {
		withBump[len(seeds)] = []byte{uint8(bump)}
		a, err := CreateProgramAddress(programID, withBump...)
		switch {
		case err == nil:
			return a, uint8(bump), nil
		case errors.ErrOnCurve.Is(err):
			continue
		default:
			return Address{}, 0, err
		}
	}
	return Address{}, 0, errors.Wrap(errors.ErrDerivation, "no viable bump")
}

// Derive is FindProgramAddress with a namespace tag as the first seed. All
// custody addresses are derived this way so that addresses of different
// kinds never collide.
func Derive(programID Address, tag string, seeds ...[]byte) (Address, uint8, error) {
	all := make([][]byte, 0, len(seeds)+1)
	all = append(all, []byte(tag))
	all = append(all, seeds...)
	return FindProgramAddress(programID, all...)
}

// SeedUint64 returns the little endian encoding of a numeric seed.
func SeedUint64(v uint64) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, v)
	return b
}

// IsOnCurve returns true if given 32 bytes decode as an ed25519 point.
func IsOnCurve(b []byte) bool {
	_, err := new(edwards25519.Point).SetBytes(b)
	return err == nil
}
