// Package metrics exposes decoder outcomes as Prometheus metrics.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jwhited/mpreach"
)

const (
	namespace = "mpreach"
	subsystem = "decoder"
)

// Label names for decoder metrics.
const (
	labelAttr   = "attr"
	labelFamily = "family"
	labelReason = "reason"
	labelKind   = "kind"
)

// Collector holds the decoder Prometheus metrics and implements
// mpreach.Observer.
type Collector struct {
	// Attributes counts MP_REACH_NLRI / MP_UNREACH_NLRI attributes whose
	// NLRI decoded completely.
	Attributes *prometheus.CounterVec

	// Records counts NLRI records produced by fully decoded attributes.
	Records *prometheus.CounterVec

	// Skipped counts attributes with an AFI/SAFI that is not decoded.
	Skipped *prometheus.CounterVec

	// Failures counts attributes whose decoding stopped early.
	Failures *prometheus.CounterVec

	// Messages counts messages handled by mpreachdump, labeled by outcome.
	Messages *prometheus.CounterVec
}

var _ mpreach.Observer = (*Collector)(nil)

// NewCollector creates a Collector with all metrics registered against reg.
// If reg is nil, prometheus.DefaultRegisterer is used.
func NewCollector(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	c := newMetrics()

	reg.MustRegister(
		c.Attributes,
		c.Records,
		c.Skipped,
		c.Failures,
		c.Messages,
	)

	return c
}

func newMetrics() *Collector {
	attrLabels := []string{labelAttr, labelFamily}

	return &Collector{
		Attributes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "attributes_total",
			Help:      "Total multiprotocol attributes decoded.",
		}, attrLabels),

		Records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "records_total",
			Help:      "Total NLRI records decoded.",
		}, attrLabels),

		Skipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "skipped_total",
			Help:      "Total multiprotocol attributes skipped for an unsupported AFI/SAFI.",
		}, []string{labelAttr, labelFamily, labelReason}),

		Failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "failures_total",
			Help:      "Total multiprotocol attributes whose decoding stopped early.",
		}, []string{labelAttr, labelFamily, labelKind}),

		Messages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "messages_total",
			Help:      "Total messages handled, by outcome.",
		}, []string{labelKind}),
	}
}

func attrName(code uint8) string {
	switch code {
	case mpreach.PATH_ATTR_MP_REACH_NLRI:
		return "mp_reach_nlri"
	case mpreach.PATH_ATTR_MP_UNREACH_NLRI:
		return "mp_unreach_nlri"
	}
	return strconv.Itoa(int(code))
}

// AttributeDecoded implements mpreach.Observer.
func (c *Collector) AttributeDecoded(code uint8, family mpreach.AFISAFI, records int) {
	attr, fam := attrName(code), family.String()
	c.Attributes.WithLabelValues(attr, fam).Inc()
	c.Records.WithLabelValues(attr, fam).Add(float64(records))
}

// AttributeSkipped implements mpreach.Observer.
func (c *Collector) AttributeSkipped(code uint8, family mpreach.AFISAFI, reason mpreach.SkipReason) {
	c.Skipped.WithLabelValues(attrName(code), family.String(), reason.String()).Inc()
}

// DecodeFailed implements mpreach.Observer.
func (c *Collector) DecodeFailed(code uint8, family mpreach.AFISAFI, kind string) {
	c.Failures.WithLabelValues(attrName(code), family.String(), kind).Inc()
}

// IncMessages counts a message handled with the given outcome, e.g. "ok",
// "notification" or "partial".
func (c *Collector) IncMessages(outcome string) {
	c.Messages.WithLabelValues(outcome).Inc()
}
