package metrics

import (
	"strconv"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	dispatchDuration *prom.HistogramVec
	dispatchResults  *prom.CounterVec
	registrations    *prom.CounterVec
	rebuilds         prom.Counter
	modules          prom.Gauge
}

// NewPrometheusRecorder constructs the collectors and registers them on reg.
// A nil reg gets a private registry.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		dispatchDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "grdesk",
			Name:      "dispatch_duration_seconds",
			Help:      "Duration of action dispatches through the aggregate reducer",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5},
		}, []string{"action_type"}),
		dispatchResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "grdesk",
			Name:      "dispatch_results_total",
			Help:      "Dispatch results by outcome",
		}, []string{"result"}),
		registrations: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "grdesk",
			Name:      "module_registrations_total",
			Help:      "Module registrations by key and whether an existing entry was replaced",
		}, []string{"module_key", "replaced"}),
		rebuilds: prom.NewCounter(prom.CounterOpts{
			Namespace: "grdesk",
			Name:      "reducer_rebuilds_total",
			Help:      "Number of aggregate reducer rebuilds",
		}),
		modules: prom.NewGauge(prom.GaugeOpts{
			Namespace: "grdesk",
			Name:      "registered_modules",
			Help:      "Number of modules in the registration table",
		}),
	}
	reg.MustRegister(pr.dispatchDuration, pr.dispatchResults, pr.registrations, pr.rebuilds, pr.modules)
	return pr
}

func (p *PrometheusRecorder) ObserveDispatchDuration(actionType string, d time.Duration) {
	if p == nil {
		return
	}
	p.dispatchDuration.WithLabelValues(actionType).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncDispatchResult(result ResultLabel) {
	if p == nil {
		return
	}
	p.dispatchResults.WithLabelValues(string(result)).Inc()
}

func (p *PrometheusRecorder) IncRegistration(moduleKey string, replaced bool) {
	if p == nil {
		return
	}
	p.registrations.WithLabelValues(moduleKey, strconv.FormatBool(replaced)).Inc()
}

func (p *PrometheusRecorder) IncRebuild() {
	if p == nil {
		return
	}
	p.rebuilds.Inc()
}

func (p *PrometheusRecorder) SetRegisteredModules(n int) {
	if p == nil {
		return
	}
	p.modules.Set(float64(n))
}
