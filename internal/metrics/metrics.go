// Package metrics exposes pipeline counters over Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nexa-assistant/nexa/internal/intent"
)

// Pipeline counts utterance outcomes and per-stage rejections. It
// implements the orchestrator's Metrics interface.
type Pipeline struct {
	registry   *prometheus.Registry
	utterances *prometheus.CounterVec
	rejections *prometheus.CounterVec
}

func NewPipeline() *Pipeline {
	p := &Pipeline{
		registry: prometheus.NewRegistry(),
		utterances: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nexa",
			Name:      "utterances_total",
			Help:      "Utterances processed, by final envelope status.",
		}, []string{"status"}),
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nexa",
			Name:      "stage_rejections_total",
			Help:      "Pipeline short-circuits, by rejecting stage.",
		}, []string{"stage"}),
	}
	p.registry.MustRegister(p.utterances, p.rejections)
	return p
}

func (p *Pipeline) RunCompleted(status intent.Status) {
	p.utterances.WithLabelValues(string(status)).Inc()
}

func (p *Pipeline) StageRejected(stage string) {
	p.rejections.WithLabelValues(stage).Inc()
}

// Handler serves the scrape endpoint for this collector set.
func (p *Pipeline) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}
