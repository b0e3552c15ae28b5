package app

import (
	"context"
	"time"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics is a decorator counting processed instructions and measuring
// their delivery time. Only Deliver is instrumented.
type Metrics struct {
	instructions *prometheus.CounterVec
	duration     *prometheus.HistogramVec
}

var _ custody.Decorator = (*Metrics)(nil)

// NewMetrics creates the instruction collectors and registers them with
// given registerer.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		instructions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "custody",
			Name:      "instructions_total",
			Help:      "Number of delivered instructions by path and result.",
		}, []string{"path", "result"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "custody",
			Name:      "instruction_duration_seconds",
			Help:      "Time spent delivering an instruction.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}, []string{"path"}),
	}
	for _, c := range []prometheus.Collector{m.instructions, m.duration} {
		if err := reg.Register(c); err != nil {
			return nil, errors.Wrap(errors.ErrHuman, err.Error())
		}
	}
	return m, nil
}

func (m *Metrics) Check(ctx context.Context, info custody.BlockInfo, db custody.KVStore, tx custody.Tx, next custody.Checker) (*custody.CheckResult, error) {
	return next.Check(ctx, info, db, tx)
}

func (m *Metrics) Deliver(ctx context.Context, info custody.BlockInfo, db custody.KVStore, tx custody.Tx, next custody.Deliverer) (*custody.DeliverResult, error) {
	path := custody.GetPath(tx)
	start := time.Now()
	res, err := next.Deliver(ctx, info, db, tx)
	m.duration.WithLabelValues(path).Observe(time.Since(start).Seconds())
	m.instructions.WithLabelValues(path, resultLabel(err)).Inc()
	return res, err
}

// resultLabel returns "ok" or the description of the registered error
// kind, which keeps the label set small.
func resultLabel(err error) string {
	if err == nil {
		return "ok"
	}
	code, _ := errors.ResultInfo(err, false)
	return errors.Description(code)
}
