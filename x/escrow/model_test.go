package escrow

import (
	"testing"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/custodytest"
	"github.com/iov-one/custody/custodytest/assert"
	"github.com/iov-one/custody/errors"
)

func TestEscrowLayout(t *testing.T) {
	e := Escrow{
		Maker:       custodytest.NewAddress("maker"),
		MakerAsset:  custodytest.NewAddress("maker-asset"),
		TakerAsset:  custodytest.NewAddress("taker-asset"),
		Seed:        5,
		OfferAmount: 50,
		Expiry:      1010,
		AuthBump:    255,
		VaultBump:   254,
		EscrowBump:  253,
	}
	raw, err := e.Marshal()
	assert.Nil(t, err)
	assert.Equal(t, 131, len(raw))
	assert.Equal(t, []byte{5, 0, 0, 0, 0, 0, 0, 0}, raw[104:112])
	assert.Equal(t, []byte{255, 254, 253}, raw[128:])

	var got Escrow
	assert.Nil(t, got.Unmarshal(raw))
	assert.Equal(t, e, got)

	assert.IsErr(t, errors.ErrInvalidInput, got.Unmarshal(raw[:130]))

	zero := e
	zero.OfferAmount = 0
	assert.IsErr(t, errors.ErrInvalidModel, zero.Validate())
}

func TestAddressesAreDistinct(t *testing.T) {
	pid := custodytest.NewAddress("escrow-program")
	maker := custodytest.NewAddress("maker")

	seen := make(map[custody.Address]string)
	for seed := uint64(0); seed < 3; seed++ {
		auth, escrow, vault, err := Addresses(pid, maker, seed)
		assert.Nil(t, err)
		for name, a := range map[string]custody.Address{"escrow": escrow, "vault": vault} {
			if prev, ok := seen[a]; ok {
				t.Fatalf("seed %d %s collides with %s", seed, name, prev)
			}
			seen[a] = name
		}
		// The auth address is shared by every escrow of the program.
		first, _, _, err := Addresses(pid, maker, 0)
		assert.Nil(t, err)
		assert.Equal(t, first, auth)
	}
}
