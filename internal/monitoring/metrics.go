// internal/monitoring/metrics.go
package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Счетчики конвейера обработки событий.
// Ненулевой rate по events_dropped_total — повод для алерта:
// так проявляется молчаливая смена схемы у продюсера.
var (
	EventsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "events_processed_total",
		Help: "Events acknowledged after successful processing",
	}, []string{"queue"})

	EventsDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "events_dropped_total",
		Help: "Malformed events dropped during batch pop",
	}, []string{"queue"})

	EventsDeadLettered = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "events_dead_lettered_total",
		Help: "Events moved to the dead letter segment",
	}, []string{"queue"})

	OrphansRecovered = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orphans_recovered_total",
		Help: "Events returned from processing to main after a consumer crash",
	}, []string{"queue"})

	QueueDepth = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "queue_segment_depth",
		Help: "Current length of a queue segment",
	}, []string{"queue", "segment"})
)
