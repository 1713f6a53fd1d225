// Package metrics publishes tmplog delivery queue activity as Prometheus
// metrics. Every series carries a "sink" label naming the async sink.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"pkt.systems/tmplog"
)

const namespace = "tmplog"

// Collector holds the queue metric vectors registered on one registry.
type Collector struct {
	// EnqueuedTotal counts records accepted by a queue.
	EnqueuedTotal *prometheus.CounterVec
	// DroppedTotal counts records lost to the full-queue policy.
	// Labels: sink, policy.
	DroppedTotal *prometheus.CounterVec
	// DeliveredTotal counts records handed to the sink successfully.
	DeliveredTotal *prometheus.CounterVec
	// FailuresTotal counts failed delivery attempts. The record stays queued.
	FailuresTotal *prometheus.CounterVec
	// Depth is the number of buffered records.
	Depth *prometheus.GaugeVec
	// FlushSeconds observes the duration of flush passes that delivered
	// records.
	FlushSeconds *prometheus.HistogramVec
}

// NewCollector registers the queue metrics on reg. A nil reg uses the
// default registerer.
func NewCollector(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Collector{
		EnqueuedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "queue",
				Name:      "enqueued_total",
				Help:      "Records accepted by the delivery queue",
			},
			[]string{"sink"},
		),
		DroppedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "queue",
				Name:      "dropped_total",
				Help:      "Records dropped because the delivery queue was full",
			},
			[]string{"sink", "policy"},
		),
		DeliveredTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "queue",
				Name:      "delivered_total",
				Help:      "Records delivered to the sink",
			},
			[]string{"sink"},
		),
		FailuresTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "queue",
				Name:      "failures_total",
				Help:      "Failed delivery attempts",
			},
			[]string{"sink"},
		),
		Depth: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "queue",
				Name:      "depth",
				Help:      "Records buffered in the delivery queue",
			},
			[]string{"sink"},
		),
		FlushSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "queue",
				Name:      "flush_seconds",
				Help:      "Duration of flush passes that delivered records",
				Buckets:   []float64{.0005, .001, .005, .01, .05, .1, .5, 1, 5},
			},
			[]string{"sink"},
		),
	}
}

// Observer returns a tmplog.QueueObserver reporting under the sink label.
func (c *Collector) Observer(sink string) tmplog.QueueObserver {
	return &queueObserver{
		enqueued:  c.EnqueuedTotal.WithLabelValues(sink),
		dropped:   c.DroppedTotal.MustCurryWith(prometheus.Labels{"sink": sink}),
		delivered: c.DeliveredTotal.WithLabelValues(sink),
		failures:  c.FailuresTotal.WithLabelValues(sink),
		depth:     c.Depth.WithLabelValues(sink),
		flush:     c.FlushSeconds.WithLabelValues(sink),
	}
}

// NewQueueObserver registers a Collector on reg and returns its observer for
// sink. Use NewCollector directly when several sinks share a registry.
func NewQueueObserver(reg prometheus.Registerer, sink string) tmplog.QueueObserver {
	return NewCollector(reg).Observer(sink)
}

type queueObserver struct {
	enqueued  prometheus.Counter
	dropped   *prometheus.CounterVec
	delivered prometheus.Counter
	failures  prometheus.Counter
	depth     prometheus.Gauge
	flush     prometheus.Observer
}

func (o *queueObserver) Enqueued(depth int) {
	o.enqueued.Inc()
	o.depth.Set(float64(depth))
}

func (o *queueObserver) Dropped(policy tmplog.FullPolicy) {
	o.dropped.WithLabelValues(policy.String()).Inc()
}

func (o *queueObserver) Delivered(depth int) {
	o.delivered.Inc()
	o.depth.Set(float64(depth))
}

func (o *queueObserver) Failed() {
	o.failures.Inc()
}

func (o *queueObserver) Flushed(delivered int, took time.Duration) {
	if delivered > 0 {
		o.flush.Observe(took.Seconds())
	}
}
