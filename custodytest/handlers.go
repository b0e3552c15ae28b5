package custodytest

import (
	"context"

	"github.com/iov-one/custody"
)

// Handler is a mock handler counting its calls.
type Handler struct {
	checkCall   int
	CheckResult custody.CheckResult
	CheckErr    error

	deliverCall   int
	DeliverResult custody.DeliverResult
	DeliverErr    error

	// OnDeliver if set is called with the store before returning.
	OnDeliver func(db custody.KVStore)
}

var _ custody.Handler = (*Handler)(nil)

func (h *Handler) Check(ctx context.Context, info custody.BlockInfo, db custody.KVStore, tx custody.Tx) (*custody.CheckResult, error) {
	h.checkCall++
	if h.CheckErr != nil {
		return nil, h.CheckErr
	}
	res := h.CheckResult
	return &res, nil
}

func (h *Handler) Deliver(ctx context.Context, info custody.BlockInfo, db custody.KVStore, tx custody.Tx) (*custody.DeliverResult, error) {
	h.deliverCall++
	if h.OnDeliver != nil {
		h.OnDeliver(db)
	}
	if h.DeliverErr != nil {
		return nil, h.DeliverErr
	}
	res := h.DeliverResult
	return &res, nil
}

func (h *Handler) CheckCallCount() int {
	return h.checkCall
}

func (h *Handler) DeliverCallCount() int {
	return h.deliverCall
}

func (h *Handler) CallCount() int {
	return h.checkCall + h.deliverCall
}
