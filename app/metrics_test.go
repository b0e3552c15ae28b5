package app

import (
	"context"
	"testing"

	"github.com/iov-one/custody/custodytest"
	"github.com/iov-one/custody/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsCountDeliveredInstructions(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg)
	require.NoError(t, err)

	ok := &custodytest.Handler{}
	failing := &custodytest.Handler{DeliverErr: errors.Wrap(errors.ErrExpired, "too late")}

	ctx := context.Background()
	info := custodytest.BlockInfo(t, 3)
	tx := &custodytest.Tx{Msg: &custodytest.Msg{RoutePath: "escrow/take"}}

	for i := 0; i < 2; i++ {
		_, err := ChainDecorators(m).WithHandler(ok).Deliver(ctx, info, nil, tx)
		require.NoError(t, err)
	}
	_, err = ChainDecorators(m).WithHandler(failing).Deliver(ctx, info, nil, tx)
	assert.True(t, errors.ErrExpired.Is(err))

	// checks are not counted
	_, err = ChainDecorators(m).WithHandler(ok).Check(ctx, info, nil, tx)
	require.NoError(t, err)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.instructions.WithLabelValues("escrow/take", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.instructions.WithLabelValues("escrow/take", "expired")))
}

func TestMetricsRegisterOnce(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewMetrics(reg)
	require.NoError(t, err)
	_, err = NewMetrics(reg)
	assert.True(t, errors.ErrHuman.Is(err))
}
