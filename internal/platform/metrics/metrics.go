package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ballotRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tegenstem_ballot_requests_total",
		Help: "Ballot submissions received, labelled by outcome",
	}, []string{"status"})

	resultsReadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tegenstem_results_reads_total",
		Help: "Results endpoint reads, labelled by outcome",
	}, []string{"status"})

	ballotProcessingDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tegenstem_ballot_processing_duration_seconds",
		Help:    "Time to run the full ballot acceptance pipeline",
		Buckets: prometheus.DefBuckets,
	})
)

func ObserveBallotRequest(status string) {
	ballotRequestsTotal.WithLabelValues(status).Inc()
}

func ObserveResultsRead(status string) {
	resultsReadsTotal.WithLabelValues(status).Inc()
}

func ObserveBallotDuration(seconds float64) {
	ballotProcessingDuration.Observe(seconds)
}
