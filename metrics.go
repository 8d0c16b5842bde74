package indicore

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds Prometheus instrumentation for a Gateway. All methods are
// nil-safe: calls on a nil *Metrics are no-ops, so a Gateway built without a
// registerer can use its Metrics() unconditionally.
type Metrics struct {
	ElementsTotal   *prometheus.CounterVec
	DevicesGauge    prometheus.Gauge
	BlobBytesTotal  *prometheus.CounterVec
	ChainDepthGauge prometheus.Gauge
}

// NewMetrics creates Metrics and, if reg is non-nil, registers them. On
// re-registration (a second Gateway in the same process, or a server
// restart that reuses a registry) existing collectors are reused instead of
// panicking, so a test suite may construct many Gateways against a shared
// registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ElementsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "indicore",
			Subsystem: "framer",
			Name:      "elements_total",
			Help:      "Total number of top-level INDI elements processed, by tag.",
		}, []string{"tag"}),
		DevicesGauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "indicore",
			Subsystem: "tree",
			Name:      "devices",
			Help:      "Current number of known devices.",
		}),
		BlobBytesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "indicore",
			Subsystem: "blob",
			Name:      "bytes_total",
			Help:      "Total BLOB bytes spooled to disk, by device.",
		}, []string{"device"}),
		ChainDepthGauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "indicore",
			Subsystem: "defer",
			Name:      "chain_depth",
			Help:      "Number of links in the most recently observed DeferChain.",
		}),
	}

	if reg != nil {
		m.ElementsTotal = registerOrReuse(reg, m.ElementsTotal).(*prometheus.CounterVec)
		m.DevicesGauge = registerOrReuse(reg, m.DevicesGauge).(prometheus.Gauge)
		m.BlobBytesTotal = registerOrReuse(reg, m.BlobBytesTotal).(*prometheus.CounterVec)
		m.ChainDepthGauge = registerOrReuse(reg, m.ChainDepthGauge).(prometheus.Gauge)
	}

	return m
}

// registerOrReuse registers c with reg, returning the already-registered
// collector instead of erroring if one of the same name already exists.
func registerOrReuse(reg prometheus.Registerer, c prometheus.Collector) prometheus.Collector {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return are.ExistingCollector
		}
		panic(err)
	}
	return c
}

// RecordElement increments the per-tag element counter.
func (m *Metrics) RecordElement(tag string) {
	if m == nil {
		return
	}
	m.ElementsTotal.WithLabelValues(tag).Inc()
}

// SetDeviceCount sets the current device gauge.
func (m *Metrics) SetDeviceCount(n int) {
	if m == nil {
		return
	}
	m.DevicesGauge.Set(float64(n))
}

// RecordBlobBytes adds n bytes to the per-device BLOB spool counter.
func (m *Metrics) RecordBlobBytes(device string, n int) {
	if m == nil {
		return
	}
	m.BlobBytesTotal.WithLabelValues(device).Add(float64(n))
}

// SetChainDepth records the link count of the most recently observed chain.
func (m *Metrics) SetChainDepth(n int) {
	if m == nil {
		return
	}
	m.ChainDepthGauge.Set(float64(n))
}
