package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	mintedTokensCounter  prometheus.Counter
	mintFailuresCounter  prometheus.Counter
	renderedFPSGauge     prometheus.Gauge
	targetFPSGauge       prometheus.Gauge
	scansRecordedCounter prometheus.Counter
	scansRejectedCounter prometheus.Counter
}

func NewMetrics(namespace string) *Metrics {
	m := Metrics{
		// issuance loop metrics
		mintedTokensCounter: promauto.NewCounter(prometheus.CounterOpts{
			Name: fmt.Sprintf("%s_minted_tokens_total", namespace),
			Help: "Total number of presence tokens minted",
		}),
		mintFailuresCounter: promauto.NewCounter(prometheus.CounterOpts{
			Name: fmt.Sprintf("%s_mint_failures_total", namespace),
			Help: "Total number of failed mint attempts",
		}),
		renderedFPSGauge: promauto.NewGauge(prometheus.GaugeOpts{
			Name: fmt.Sprintf("%s_rendered_fps", namespace),
			Help: "Observed frame rate of the issuance loop over the last second",
		}),
		targetFPSGauge: promauto.NewGauge(prometheus.GaugeOpts{
			Name: fmt.Sprintf("%s_target_fps", namespace),
			Help: "Configured target frame rate of the issuance loop",
		}),
		// ingestion metrics
		scansRecordedCounter: promauto.NewCounter(prometheus.CounterOpts{
			Name: fmt.Sprintf("%s_scans_recorded_total", namespace),
			Help: "Total number of accepted attendance scans",
		}),
		scansRejectedCounter: promauto.NewCounter(prometheus.CounterOpts{
			Name: fmt.Sprintf("%s_scans_rejected_total", namespace),
			Help: "Total number of rejected attendance scans",
		}),
	}
	return &m
}

func (metrics *Metrics) IncMintedTokens() {
	metrics.mintedTokensCounter.Inc()
}

func (metrics *Metrics) IncMintFailures() {
	metrics.mintFailuresCounter.Inc()
}

func (metrics *Metrics) SetRenderedFPS(fps float64) {
	metrics.renderedFPSGauge.Set(fps)
}

func (metrics *Metrics) SetTargetFPS(fps int) {
	metrics.targetFPSGauge.Set(float64(fps))
}

func (metrics *Metrics) IncScansRecorded() {
	metrics.scansRecordedCounter.Inc()
}

func (metrics *Metrics) IncScansRejected() {
	metrics.scansRejectedCounter.Inc()
}
