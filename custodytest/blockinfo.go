package custodytest

import (
	"testing"
	"time"

	"github.com/iov-one/custody"
	abci "github.com/tendermint/tendermint/abci/types"
)

// BlockInfo returns block information for given slot on a test chain.
func BlockInfo(t testing.TB, slot int64) custody.BlockInfo {
	t.Helper()
	header := abci.Header{
		ChainID: "test-chain",
		Height:  slot,
		Time:    time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(slot) * time.Second),
	}
	info, err := custody.NewBlockInfo(header, "test-chain", nil)
	if err != nil {
		t.Fatalf("block info: %s", err)
	}
	return info
}
