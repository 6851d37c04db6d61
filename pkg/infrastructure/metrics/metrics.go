package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/WangYihang/Domain-Checker/pkg/domain/entity"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "domain_checker"

// Outcome label values
const (
	OutcomeAvailable  = "available"
	OutcomeRegistered = "registered"
	OutcomeError      = "error"
)

// Collector implements application.Recorder on top of Prometheus
type Collector struct {
	lookups  *prometheus.CounterVec
	duration prometheus.Histogram
	waves    *prometheus.CounterVec
	requests *prometheus.CounterVec
}

// NewCollector creates the collectors and registers them on reg
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lookups_total",
			Help:      "Domain lookups by outcome.",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "lookup_duration_seconds",
			Help:      "Wall time of a single domain lookup.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		}),
		waves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "waves_total",
			Help:      "Dispatcher waves by result.",
		}, []string{"result"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resolver_requests_total",
			Help:      "DNS-over-HTTPS requests by resolver and status code.",
		}, []string{"resolver", "code"}),
	}
	reg.MustRegister(c.lookups, c.duration, c.waves, c.requests)
	return c
}

// ObserveLookup records one lookup outcome
func (c *Collector) ObserveLookup(outcome entity.Outcome) {
	label := OutcomeRegistered
	switch {
	case outcome.Err != nil:
		label = OutcomeError
	case outcome.Available:
		label = OutcomeAvailable
	}
	c.lookups.WithLabelValues(label).Inc()
	c.duration.Observe(outcome.Duration.Seconds())
}

// ObserveWave records a resolved wave
func (c *Collector) ObserveWave(dropped bool) {
	result := "completed"
	if dropped {
		result = "dropped"
	}
	c.waves.WithLabelValues(result).Inc()
}

// InstrumentRoundTripper counts the requests next sends on behalf of resolver
func (c *Collector) InstrumentRoundTripper(resolver string, next http.RoundTripper) http.RoundTripper {
	counter := c.requests.MustCurryWith(prometheus.Labels{"resolver": resolver})
	return promhttp.InstrumentRoundTripperCounter(counter, next)
}

// Handler exposes the metrics gathered by gatherer
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is done
func Serve(ctx context.Context, addr string, gatherer prometheus.Gatherer) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(gatherer))
	server := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
