package sigs

import (
	"context"
	"testing"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/codec"
	"github.com/iov-one/custody/custodytest"
	"github.com/iov-one/custody/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sigCheckHandler stores the seen signers on each call.
type sigCheckHandler struct {
	Signers []custody.Address
}

var _ custody.Handler = (*sigCheckHandler)(nil)

func (s *sigCheckHandler) Check(ctx context.Context, info custody.BlockInfo, db custody.KVStore, tx custody.Tx) (*custody.CheckResult, error) {
	s.Signers = Authenticate{}.GetSigners(ctx)
	return &custody.CheckResult{}, nil
}

func (s *sigCheckHandler) Deliver(ctx context.Context, info custody.BlockInfo, db custody.KVStore, tx custody.Tx) (*custody.DeliverResult, error) {
	s.Signers = Authenticate{}.GetSigners(ctx)
	return &custody.DeliverResult{}, nil
}

func TestDecorator(t *testing.T) {
	kv := store.MemStore()
	checkKv := kv.CacheWrap()
	signers := new(sigCheckHandler)
	d := NewDecorator()
	info := custodytest.BlockInfo(t, 1)
	chainID := info.ChainID()
	ctx := context.Background()

	key := custodytest.NewKey("deco")
	want := []custody.Address{key.Address()}

	tx := newTx(t, "art")
	sig, err := SignTx(key.Private, tx, chainID, 0)
	require.NoError(t, err)
	sig1, err := SignTx(key.Private, tx, chainID, 1)
	require.NoError(t, err)

	deliver := func(dec custody.Decorator, my custody.Tx) error {
		_, err := dec.Deliver(ctx, info, kv, my, signers)
		return err
	}
	check := func(dec custody.Decorator, my custody.Tx) error {
		_, err := dec.Check(ctx, info, checkKv, my, signers)
		return err
	}

	for i, fn := range []func(custody.Decorator, custody.Tx) error{check, deliver} {
		// test with no sigs
		tx.Signatures = nil
		assert.Error(t, fn(d, tx), "%d", i)

		// test with one
		tx.Signatures = []*codec.Signature{sig}
		assert.NoError(t, fn(d, tx), "%d", i)
		assert.Equal(t, want, signers.Signers)

		// test with replay
		assert.Error(t, fn(d, tx), "%d", i)

		// test allowing none
		ad := d.AllowMissingSigs()
		tx.Signatures = nil
		assert.NoError(t, fn(ad, tx), "%d", i)
		assert.Empty(t, signers.Signers)

		// test allowing none still validates present signatures
		tx.Signatures = []*codec.Signature{sig1}
		assert.NoError(t, fn(ad, tx), "%d", i)
		assert.Equal(t, want, signers.Signers)
	}
}

func TestDecoratorUnsignedTx(t *testing.T) {
	info := custodytest.BlockInfo(t, 1)
	tx := &custodytest.Tx{Msg: &custodytest.Msg{RoutePath: "test/msg"}}
	h := new(sigCheckHandler)

	_, err := NewDecorator().Deliver(context.Background(), info, store.MemStore(), tx, h)
	assert.Error(t, err)
	_, err = NewDecorator().AllowMissingSigs().Deliver(context.Background(), info, store.MemStore(), tx, h)
	assert.NoError(t, err)
}
