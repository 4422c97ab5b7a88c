// Package metrics provides the Prometheus metrics recorded while building
// and serving index pages.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Render holds the metrics of page rendering.
type Render struct {
	// PagesRendered counts pages rendered successfully, by page kind.
	PagesRendered *prometheus.CounterVec

	// RenderErrors counts pages that failed to render, by page kind.
	RenderErrors *prometheus.CounterVec

	// RenderDuration measures how long rendering a page takes, by page
	// kind.
	RenderDuration *prometheus.HistogramVec

	// PostsIndexed tracks how many posts the last build indexed, by
	// language.
	PostsIndexed *prometheus.GaugeVec
}

// NewRender registers the render metrics with reg. Passing
// prometheus.DefaultRegisterer exposes them on the default /metrics handler.
func NewRender(reg prometheus.Registerer) *Render {
	factory := promauto.With(reg)
	return &Render{
		PagesRendered: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "postindex_pages_rendered_total",
				Help: "Total number of index pages rendered",
			},
			[]string{"kind"},
		),
		RenderErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "postindex_render_errors_total",
				Help: "Total number of index pages that failed to render",
			},
			[]string{"kind"},
		),
		RenderDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "postindex_render_duration_seconds",
				Help:    "Time taken to render an index page in seconds",
				Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
			},
			[]string{"kind"},
		),
		PostsIndexed: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "postindex_posts_indexed",
				Help: "Number of posts included in the indexes of the last build",
			},
			[]string{"lang"},
		),
	}
}

// ObserveRender records one render of a page of kind that started at start.
func (m *Render) ObserveRender(kind string, start time.Time, err error) {
	if m == nil {
		return
	}
	m.RenderDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
	if err != nil {
		m.RenderErrors.WithLabelValues(kind).Inc()
		return
	}
	m.PagesRendered.WithLabelValues(kind).Inc()
}

// SetPostsIndexed records how many posts in lang were indexed.
func (m *Render) SetPostsIndexed(lang string, count int) {
	if m == nil {
		return
	}
	m.PostsIndexed.WithLabelValues(lang).Set(float64(count))
}
