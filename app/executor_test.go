package app

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/custodytest"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/store/iavl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pathDecoder builds a transaction routed to the path given as raw bytes.
func pathDecoder(raw []byte) (custody.Tx, error) {
	if len(raw) == 0 {
		panic("empty transaction")
	}
	return &custodytest.Tx{Msg: &custodytest.Msg{RoutePath: string(raw)}}, nil
}

// writingHandler stores the path of every processed transaction and fails
// afterwards for all paths in the "fail" namespace.
type writingHandler struct{}

func (h writingHandler) Check(ctx context.Context, info custody.BlockInfo, db custody.KVStore, tx custody.Tx) (*custody.CheckResult, error) {
	if err := h.write(db, tx); err != nil {
		return nil, err
	}
	return &custody.CheckResult{}, nil
}

func (h writingHandler) Deliver(ctx context.Context, info custody.BlockInfo, db custody.KVStore, tx custody.Tx) (*custody.DeliverResult, error) {
	if err := h.write(db, tx); err != nil {
		return nil, err
	}
	return &custody.DeliverResult{Log: custody.GetPath(tx)}, nil
}

func (writingHandler) write(db custody.KVStore, tx custody.Tx) error {
	path := custody.GetPath(tx)
	if err := db.Set([]byte(path), []byte("done")); err != nil {
		return err
	}
	if strings.HasPrefix(path, "fail/") {
		return errors.Wrap(errors.ErrInsufficientFunds, path)
	}
	return nil
}

func newTestExecutor(t testing.TB) *Executor {
	t.Helper()
	ex, err := NewExecutor(iavl.MockCommitStore(), pathDecoder, custody.ChainInitializers{})
	require.NoError(t, err)
	require.NoError(t, ex.InitChain(Genesis{ChainID: "test-chain"}))
	ex.WithHandler(writingHandler{})
	return ex
}

func assertStored(t testing.TB, db custody.ReadOnlyKVStore, key string, want bool) {
	t.Helper()
	has, err := db.Has([]byte(key))
	require.NoError(t, err)
	assert.Equal(t, want, has, "key %q", key)
}

func TestExecutorDeliverTx(t *testing.T) {
	ex := newTestExecutor(t)
	require.NoError(t, ex.BeginBlock(1, time.Now()))
	assert.Equal(t, uint64(1), ex.Slot())

	res, err := ex.DeliverTx([]byte("ok/first"))
	require.NoError(t, err)
	assert.Equal(t, "ok/first", res.Log)

	_, err = ex.DeliverTx([]byte("fail/second"))
	assert.True(t, errors.ErrInsufficientFunds.Is(err))

	_, err = ex.CheckTx([]byte("ok/third"))
	require.NoError(t, err)

	id, err := ex.Commit()
	require.NoError(t, err)
	assert.Equal(t, int64(1), id.Version)

	committed := ex.Committed()
	assertStored(t, committed, "ok/first", true)
	// a failed instruction leaves no partial state
	assertStored(t, committed, "fail/second", false)
	// checking never changes the state
	assertStored(t, committed, "ok/third", false)
}

func TestExecutorCheckTxReportsFailure(t *testing.T) {
	ex := newTestExecutor(t)
	require.NoError(t, ex.BeginBlock(1, time.Now()))

	_, err := ex.CheckTx([]byte("fail/check"))
	assert.True(t, errors.ErrInsufficientFunds.Is(err))
}

func TestExecutorRecoversFromDecoderPanic(t *testing.T) {
	ex := newTestExecutor(t)
	require.NoError(t, ex.BeginBlock(1, time.Now()))

	_, err := ex.DeliverTx(nil)
	assert.True(t, errors.ErrPanic.Is(err))
	_, err = ex.CheckTx(nil)
	assert.True(t, errors.ErrPanic.Is(err))
}

func TestExecutorLifecycle(t *testing.T) {
	store := iavl.MockCommitStore()
	ex, err := NewExecutor(store, pathDecoder, custody.ChainInitializers{})
	require.NoError(t, err)

	err = ex.BeginBlock(1, time.Now())
	assert.True(t, errors.ErrInvalidState.Is(err), "block before genesis")

	require.NoError(t, ex.InitChain(Genesis{ChainID: "test-chain"}))
	err = ex.InitChain(Genesis{ChainID: "other-chain"})
	assert.True(t, errors.ErrInvalidState.Is(err), "second genesis")

	_, err = ex.DeliverTx([]byte("ok/outside"))
	assert.True(t, errors.ErrInvalidState.Is(err), "instruction outside of a block")

	require.NoError(t, ex.BeginBlock(1, time.Now()))
	_, err = ex.DeliverTx([]byte("ok/nohandler"))
	assert.True(t, errors.ErrInvalidState.Is(err), "instruction without a handler")

	_, err = ex.Commit()
	require.NoError(t, err)

	// the chain id survives reopening the store
	reopened, err := NewExecutor(store, pathDecoder, custody.ChainInitializers{})
	require.NoError(t, err)
	assert.Equal(t, "test-chain", reopened.ChainID())
}

func TestExecutorRejectsInvalidChainID(t *testing.T) {
	ex, err := NewExecutor(iavl.MockCommitStore(), pathDecoder, custody.ChainInitializers{})
	require.NoError(t, err)
	err = ex.InitChain(Genesis{ChainID: "x"})
	assert.True(t, errors.ErrInvalidInput.Is(err))
	assert.Equal(t, "", ex.ChainID())
}
