package metrics

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector bundles the service's Prometheus metrics. A nil *Collector is a
// valid no-op, so usecases can run without metrics in tests.
type Collector struct {
	gatherer prometheus.Gatherer

	ParcelsRegistered prometheus.Counter
	ParcelConflicts   prometheus.Counter
	Verifications     *prometheus.CounterVec
	LoansOriginated   *prometheus.CounterVec
	Repayments        *prometheus.CounterVec
	LoansClosed       *prometheus.CounterVec
	HTTPRequests      *prometheus.CounterVec
	HTTPDurations     *prometheus.HistogramVec
}

// New registers every metric against reg, defaulting to the global registry
// when nil. Re-registering on the same registry returns the existing collectors.
func New(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}
	c := &Collector{gatherer: gatherer}

	var err error
	if c.ParcelsRegistered, err = register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "landq_parcels_registered_total",
		Help: "Parcels registered.",
	})); err != nil {
		return nil, err
	}
	if c.ParcelConflicts, err = register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "landq_parcel_conflicts_total",
		Help: "Registrations refused because the boundary overlapped or equalled a registered parcel.",
	})); err != nil {
		return nil, err
	}
	if c.Verifications, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "landq_verifications_total",
		Help: "Verification transitions, labeled by outcome.",
	}, []string{"outcome"})); err != nil {
		return nil, err
	}
	if c.LoansOriginated, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "landq_loans_originated_total",
		Help: "Loans activated, labeled by period in seconds.",
	}, []string{"period"})); err != nil {
		return nil, err
	}
	if c.Repayments, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "landq_repayments_total",
		Help: "Repayments applied, labeled by settlement currency.",
	}, []string{"currency"})); err != nil {
		return nil, err
	}
	if c.LoansClosed, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "landq_loans_closed_total",
		Help: "Loans reaching a terminal state, labeled by state.",
	}, []string{"state"})); err != nil {
		return nil, err
	}
	if c.HTTPRequests, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "landq_http_requests_total",
		Help: "HTTP requests, labeled by method, route and status code.",
	}, []string{"method", "route", "code"})); err != nil {
		return nil, err
	}
	if c.HTTPDurations, err = register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "landq_http_request_duration_seconds",
		Help:    "HTTP request latency in seconds.",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	}, []string{"method", "route"})); err != nil {
		return nil, err
	}
	return c, nil
}

// Handler exposes a ready-to-use /metrics handler.
func (c *Collector) Handler() http.Handler {
	if c == nil || c.gatherer == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(c.gatherer, promhttp.HandlerOpts{})
}

func (c *Collector) ParcelRegistered() {
	if c != nil {
		c.ParcelsRegistered.Inc()
	}
}

func (c *Collector) ParcelConflict() {
	if c != nil {
		c.ParcelConflicts.Inc()
	}
}

func (c *Collector) Verification(outcome string) {
	if c != nil {
		c.Verifications.WithLabelValues(outcome).Inc()
	}
}

func (c *Collector) LoanOriginated(periodSeconds int64) {
	if c != nil {
		c.LoansOriginated.WithLabelValues(fmt.Sprint(periodSeconds)).Inc()
	}
}

func (c *Collector) Repayment(currency string) {
	if c != nil {
		c.Repayments.WithLabelValues(currency).Inc()
	}
}

func (c *Collector) LoanClosed(state string) {
	if c != nil {
		c.LoansClosed.WithLabelValues(state).Inc()
	}
}

func (c *Collector) HTTPRequest(method, route string, code int, seconds float64) {
	if c == nil {
		return
	}
	c.HTTPRequests.WithLabelValues(method, route, fmt.Sprint(code)).Inc()
	c.HTTPDurations.WithLabelValues(method, route).Observe(seconds)
}

func register[T prometheus.Collector](reg prometheus.Registerer, col T) (T, error) {
	if err := reg.Register(col); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
			var zero T
			return zero, fmt.Errorf("collector %T already registered with incompatible type", col)
		}
		var zero T
		return zero, err
	}
	return col, nil
}
