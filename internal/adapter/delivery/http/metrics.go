package http

import "github.com/prometheus/client_golang/prometheus"

const metricsNamespace = "url_shortener"

// Redirect outcomes.
const (
	outcomeRedirected = "redirected"
	outcomeNotFound   = "not_found"
	outcomeExpired    = "expired"
)

type metrics struct {
	shortenedURLs   prometheus.Counter
	rejectedBatches prometheus.Counter
	redirects       *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		shortenedURLs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "shortened_urls_total",
			Help:      "Number of URLs stored by accepted batches.",
		}),
		rejectedBatches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "rejected_batches_total",
			Help:      "Number of batches rejected because a row failed validation.",
		}),
		redirects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "redirects_total",
			Help:      "Number of short code visits by outcome.",
		}, []string{"outcome"}),
	}

	reg.MustRegister(m.shortenedURLs, m.rejectedBatches, m.redirects)

	return m
}
