package exchange

import (
	"testing"

	"github.com/iov-one/custody/custodytest"
	"github.com/iov-one/custody/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExchangeLayout(t *testing.T) {
	e := Exchange{
		Seed:              0x0102,
		Initializer:       custodytest.NewAddress("initializer"),
		DepositAccount:    custodytest.NewAddress("deposit"),
		ReceiveAccount:    custodytest.NewAddress("receive"),
		InitializerAmount: 60,
		TakerAmount:       25,
		AuthorityBump:     255,
		VaultBump:         250,
		StateBump:         249,
	}
	raw, err := e.Marshal()
	require.NoError(t, err)
	assert.Len(t, raw, ExchangeSize)
	assert.Equal(t, []byte{2, 1, 0, 0, 0, 0, 0, 0}, raw[8:16])
	assert.Equal(t, []byte{255, 250, 249}, raw[ExchangeSize-3:])

	var got Exchange
	require.NoError(t, got.Unmarshal(raw))
	assert.Equal(t, e, got)

	e.TakerAmount = 0
	assert.True(t, errors.ErrInvalidModel.Is(e.Validate()))
}

func TestAddresses(t *testing.T) {
	a1, s1, v1, err := Addresses(DefaultProgramID, 1)
	require.NoError(t, err)
	a2, s2, v2, err := Addresses(DefaultProgramID, 2)
	require.NoError(t, err)

	assert.Equal(t, a1, a2, "authority is shared")
	assert.NotEqual(t, s1, s2)
	assert.NotEqual(t, v1, v2)
	assert.NotEqual(t, s1, v1)
}
