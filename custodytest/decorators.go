package custodytest

import (
	"context"

	"github.com/iov-one/custody"
)

// Decorator is a mock implementation of the custody.Decorator interface.
//
// Set CheckErr or DeliverErr to force error response for corresponding
// method. If error attributes are not set then wrapped handler method is
// called and its result returned. Set PanicAt to make the decorator panic
// from given slot on.
type Decorator struct {
	checkCall   int
	CheckErr    error
	deliverCall int
	DeliverErr  error
	PanicAt     uint64
}

var _ custody.Decorator = (*Decorator)(nil)

func (d *Decorator) Check(ctx context.Context, info custody.BlockInfo, db custody.KVStore, tx custody.Tx, next custody.Checker) (*custody.CheckResult, error) {
	d.checkCall++
	d.maybePanic(info)
	if d.CheckErr != nil {
		return nil, d.CheckErr
	}
	return next.Check(ctx, info, db, tx)
}

func (d *Decorator) Deliver(ctx context.Context, info custody.BlockInfo, db custody.KVStore, tx custody.Tx, next custody.Deliverer) (*custody.DeliverResult, error) {
	d.deliverCall++
	d.maybePanic(info)
	if d.DeliverErr != nil {
		return nil, d.DeliverErr
	}
	return next.Deliver(ctx, info, db, tx)
}

func (d *Decorator) maybePanic(info custody.BlockInfo) {
	if d.PanicAt != 0 && info.Slot() >= d.PanicAt {
		panic("boom")
	}
}

func (d *Decorator) CheckCallCount() int {
	return d.checkCall
}

func (d *Decorator) DeliverCallCount() int {
	return d.deliverCall
}

func (d *Decorator) CallCount() int {
	return d.checkCall + d.deliverCall
}
